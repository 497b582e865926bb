package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
)

// testEnv 每个测试一套内存数据库和完整服务栈
type testEnv struct {
	db         *gorm.DB
	orderSvc   *OrderService
	reviewSvc  *ReviewService
	settlement *SettlementService
	pointsSvc  *PointsService
	userRepo   user.Repository
	prodRepo   product.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// 内存库限制单连接，避免连接池拿到不同的内存实例
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(mysql.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := mysql.NewUserRepository(db)
	prodRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	tradeRepo := mysql.NewTradeRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	pointsRepo := mysql.NewPointsRepository(db)

	pointsCfg := config.PointsConfig{TradeReward: 10, ReviewReward: 5}
	pointsSvc := NewPointsService(db, pointsRepo)
	settlementSvc := NewSettlementService(db, tradeRepo, nil)
	orderSvc := NewOrderService(db, orderRepo, settlementSvc, pointsSvc,
		SymmetricPolicy{}, pointsCfg, nil, nil)
	reviewSvc := NewReviewService(db, reviewRepo, settlementSvc, pointsSvc, pointsCfg, nil)

	return &testEnv{
		db:         db,
		orderSvc:   orderSvc,
		reviewSvc:  reviewSvc,
		settlement: settlementSvc,
		pointsSvc:  pointsSvc,
		userRepo:   userRepo,
		prodRepo:   prodRepo,
	}
}

func (e *testEnv) mustUser(t *testing.T, name, role string) auth.Identity {
	t.Helper()
	u := &user.User{Username: name, Password: "x", Role: role}
	if err := e.userRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) mustProduct(t *testing.T, name string, price int64, owner auth.Identity, status int) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, Price: price, OwnerID: owner.UserID, Status: status}
	if err := e.prodRepo.Create(context.Background(), p); err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}
