package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
)

type tradeRepo struct {
	db *gorm.DB
}

// NewTradeRepository 创建交易记录仓储
func NewTradeRepository(db *gorm.DB) trade.Repository {
	return &tradeRepo{db: db}
}

func (r *tradeRepo) GetByOrderID(ctx context.Context, orderID int64) (*trade.Record, error) {
	var rec trade.Record
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *tradeRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*trade.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*trade.Record
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("trade_time DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *tradeRepo) ListRecent(ctx context.Context, limit int) ([]*trade.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*trade.Record
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
