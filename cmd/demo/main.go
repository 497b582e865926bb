package main

import (
	"context"
	"log"

	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
	"github.com/MikuAddict/flea-market-sub000/internal/logging"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
	"github.com/MikuAddict/flea-market-sub000/internal/service"
)

// demo 在真实数据库上跑一遍完整的订单生命周期：
// 下单 -> 支付 -> 完成（结算）-> 评价，打印每一步的产物
func main() {
	cfg := config.Load()
	logger := logging.Init(true)

	db := mysql.Init(&cfg.MySQL)

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	tradeRepo := mysql.NewTradeRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	pointsRepo := mysql.NewPointsRepository(db)

	pointsSvc := service.NewPointsService(db, pointsRepo)
	settlementSvc := service.NewSettlementService(db, tradeRepo, logger)
	orderSvc := service.NewOrderService(db, orderRepo, settlementSvc, pointsSvc,
		service.SymmetricPolicy{}, cfg.Points, nil, logger)
	reviewSvc := service.NewReviewService(db, reviewRepo, settlementSvc, pointsSvc, cfg.Points, logger)

	ctx := context.Background()

	// 准备一对买卖家和一件在售商品
	seller := &user.User{Username: "demo-seller", Password: "x", Role: user.RoleUser}
	buyer := &user.User{Username: "demo-buyer", Password: "x", Role: user.RoleUser}
	if err := userRepo.Create(ctx, seller); err != nil {
		log.Fatalf("create seller: %v", err)
	}
	if err := userRepo.Create(ctx, buyer); err != nil {
		log.Fatalf("create buyer: %v", err)
	}

	p := &product.Product{Name: "九成新山地车", Price: 10000, OwnerID: seller.ID, Status: product.StatusListed}
	if err := productRepo.Create(ctx, p); err != nil {
		log.Fatalf("create product: %v", err)
	}

	buyerID := auth.Identity{UserID: buyer.ID, Username: buyer.Username, Role: buyer.Role}
	sellerID := auth.Identity{UserID: seller.ID, Username: seller.Username, Role: seller.Role}

	o, err := orderSvc.Create(ctx, buyerID, p.ID, 0)
	if err != nil {
		log.Fatalf("create order: %v", err)
	}
	log.Printf("order created: id=%d status=%d amount=%d", o.ID, o.Status, o.Amount)

	if err := orderSvc.Pay(ctx, buyerID, o.ID); err != nil {
		log.Fatalf("pay order: %v", err)
	}
	log.Printf("order paid")

	if err := orderSvc.Complete(ctx, sellerID, o.ID); err != nil {
		log.Fatalf("complete order: %v", err)
	}
	rec, err := settlementSvc.GetByOrder(ctx, o.ID)
	if err != nil {
		log.Fatalf("load trade record: %v", err)
	}
	log.Printf("order completed, trade record: id=%d status=%d product=%q buyer=%q seller=%q",
		rec.ID, rec.TradeStatus, rec.ProductName, rec.BuyerName, rec.SellerName)

	rv, err := reviewSvc.Add(ctx, buyerID, o.ID, 5, "车况很好，卖家人也好")
	if err != nil {
		log.Fatalf("add review: %v", err)
	}
	rec, _ = settlementSvc.GetByOrder(ctx, o.ID)
	log.Printf("review added: id=%d rating=%d, trade status now %d", rv.ID, rv.Rating, rec.TradeStatus)

	buyerPoints, _ := pointsSvc.Balance(ctx, buyer.ID)
	sellerPoints, _ := pointsSvc.Balance(ctx, seller.ID)
	log.Printf("points: buyer=%d seller=%d", buyerPoints, sellerPoints)
}
