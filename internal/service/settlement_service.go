package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
)

// SettlementService 交易结算：订单完成时生成不可变的交易记录快照，
// 评价产生后把评价挂到对应的交易记录上
type SettlementService struct {
	db        *gorm.DB
	tradeRepo trade.Repository
	log       *zap.Logger
}

// NewSettlementService 创建结算服务
func NewSettlementService(db *gorm.DB, tradeRepo trade.Repository, log *zap.Logger) *SettlementService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettlementService{db: db, tradeRepo: tradeRepo, log: log}
}

// SettleInTx 在完成订单的同一事务内创建交易记录
// 商品名和买卖家昵称冗余查询是尽力而为：查不到只记日志、字段留空；
// 记录本身创建失败则返回错误，由调用方回滚整个完成事务
func (s *SettlementService) SettleInTx(tx *gorm.DB, o *order.Order) (*trade.Record, error) {
	tradeTime := time.Now()
	if o.FinishedAt != nil {
		tradeTime = *o.FinishedAt
	}

	rec := &trade.Record{
		OrderID:           o.ID,
		ProductID:         o.ProductID,
		BuyerID:           o.BuyerID,
		SellerID:          o.SellerID,
		Amount:            o.Amount,
		PaymentMethod:     o.PaymentMethod,
		PaymentMethodDesc: order.PayMethodDesc(o.PaymentMethod),
		TradeTime:         tradeTime,
		TradeStatus:       trade.StatusSettled,
	}

	var p product.Product
	if err := tx.First(&p, o.ProductID).Error; err == nil {
		rec.ProductName = p.Name
	} else {
		s.log.Warn("结算时查询商品名失败，冗余字段留空",
			zap.Int64("order_id", o.ID),
			zap.Int64("product_id", o.ProductID),
			zap.Error(err))
	}

	var buyer user.User
	if err := tx.First(&buyer, o.BuyerID).Error; err == nil {
		rec.BuyerName = buyer.Username
	} else {
		s.log.Warn("结算时查询买家昵称失败，冗余字段留空",
			zap.Int64("order_id", o.ID),
			zap.Int64("buyer_id", o.BuyerID),
			zap.Error(err))
	}

	var seller user.User
	if err := tx.First(&seller, o.SellerID).Error; err == nil {
		rec.SellerName = seller.Username
	} else {
		s.log.Warn("结算时查询卖家昵称失败，冗余字段留空",
			zap.Int64("order_id", o.ID),
			zap.Int64("seller_id", o.SellerID),
			zap.Error(err))
	}

	// order_id 上有唯一索引，并发重复结算会在这里失败并回滚
	if err := tx.Create(rec).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "创建交易记录失败", err)
	}
	return rec, nil
}

// LinkReview 把评价关联到订单的交易记录并置为已评价
// 评价的唯一性由评价侧保证，这一层不做重复关联防护
func (s *SettlementService) LinkReview(ctx context.Context, orderID, reviewID int64) error {
	res := s.db.WithContext(ctx).
		Model(&trade.Record{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"review_id":    reviewID,
			"trade_status": trade.StatusReviewed,
		})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "关联评价到交易记录失败", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "交易记录不存在")
	}
	return nil
}

// GetByOrder 查询订单对应的交易记录
func (s *SettlementService) GetByOrder(ctx context.Context, orderID int64) (*trade.Record, error) {
	rec, err := s.tradeRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "交易记录不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询交易记录失败", err)
	}
	return rec, nil
}

// ListByUser 查询用户参与的交易记录
func (s *SettlementService) ListByUser(ctx context.Context, userID int64, limit int) ([]*trade.Record, error) {
	list, err := s.tradeRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询交易记录失败", err)
	}
	return list, nil
}

// ListRecent 最近的交易记录，供后台审计
func (s *SettlementService) ListRecent(ctx context.Context, limit int) ([]*trade.Record, error) {
	list, err := s.tradeRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询交易记录失败", err)
	}
	return list, nil
}
