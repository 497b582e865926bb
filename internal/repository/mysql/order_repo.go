package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// List 按条件分页查询，默认按创建时间倒序
func (r *orderRepo) List(ctx context.Context, q order.ListQuery) ([]*order.Order, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	db := r.db.WithContext(ctx).Model(&order.Order{})
	if q.BuyerID > 0 {
		db = db.Where("buyer_id = ?", q.BuyerID)
	}
	if q.SellerID > 0 {
		db = db.Where("seller_id = ?", q.SellerID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}

	var list []*order.Order
	if err := db.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// StatisticsByBuyer 统计买家侧订单：总数、各状态计数、已完成金额合计
func (r *orderRepo) StatisticsByBuyer(ctx context.Context, buyerID int64) (*order.Statistics, error) {
	var rows []struct {
		Status int
		Cnt    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("status, COUNT(*) AS cnt").
		Where("buyer_id = ?", buyerID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &order.Statistics{ByStatus: make(map[int]int64)}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Cnt
		stats.Total += row.Cnt
	}

	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("buyer_id = ? AND status = ?", buyerID, order.StatusCompleted).
		Scan(&stats.CompletedAmount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
