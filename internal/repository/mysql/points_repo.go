package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
)

type pointsRepo struct {
	db *gorm.DB
}

// NewPointsRepository 创建积分仓储
func NewPointsRepository(db *gorm.DB) points.Repository {
	return &pointsRepo{db: db}
}

func (r *pointsRepo) GetAccount(ctx context.Context, userID int64) (*points.Account, error) {
	var acc points.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *pointsRepo) ListRecords(ctx context.Context, userID int64, limit int) ([]*points.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*points.Record
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
