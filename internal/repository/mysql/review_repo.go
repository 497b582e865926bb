package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/review"
)

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*review.Review, error) {
	var rv review.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) GetByOrderID(ctx context.Context, orderID int64) (*review.Review, error) {
	var rv review.Review
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rv).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64, limit int) ([]*review.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&review.Review{}, id).Error
}
