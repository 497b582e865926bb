package trade

import (
	"context"
	"time"
)

// 交易记录状态
const (
	StatusSettled  = 1 // 已结算
	StatusReviewed = 2 // 已评价
	StatusRefunded = 3 // 已退款
)

// Record 不可变的结算快照，订单完成时创建且每个订单至多一条
// 冗余的商品名与买卖家昵称在创建时冻结，之后不随改名刷新
type Record struct {
	ID                int64     `gorm:"primaryKey"`
	OrderID           int64     `gorm:"uniqueIndex;not null"`
	ProductID         int64     `gorm:"index;not null"`
	ProductName       string    `gorm:"size:128"`
	BuyerID           int64     `gorm:"index;not null"`
	BuyerName         string    `gorm:"size:64"`
	SellerID          int64     `gorm:"index;not null"`
	SellerName        string    `gorm:"size:64"`
	Amount            int64     `gorm:"not null"` // 分
	PaymentMethod     int       `gorm:"not null"`
	PaymentMethodDesc string    `gorm:"size:32"`
	TradeTime         time.Time `gorm:"index"`
	TradeStatus       int       `gorm:"index;not null"`
	Remark            string    `gorm:"size:255"`
	ReviewID          *int64    // 评价关联后写入
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName 与 points.Record 默认复数表名冲突，按规范落在 trade_records
func (Record) TableName() string {
	return "trade_records"
}

// Repository 交易记录仓储接口；创建与评价关联在服务层事务内完成
type Repository interface {
	GetByOrderID(ctx context.Context, orderID int64) (*Record, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Record, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
