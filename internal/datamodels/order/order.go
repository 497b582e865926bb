package order

import (
	"context"
	"time"
)

// 订单状态，只能向前推进或转入取消，不可回退
const (
	StatusPendingPayment = 0 // 待支付
	StatusPaid           = 1 // 已支付
	StatusCompleted      = 2 // 已完成（终态，触发结算）
	StatusCancelled      = 3 // 已取消（终态）
)

// 支付方式
const (
	PayMethodCash   = 0 // 现金当面交易
	PayMethodWallet = 1 // 钱包支付
	PayMethodPoints = 2 // 积分抵扣
	PayMethodBarter = 3 // 以物易物
)

// ValidPayMethod 判断支付方式是否合法
func ValidPayMethod(m int) bool {
	return m >= PayMethodCash && m <= PayMethodBarter
}

// PayMethodDesc 支付方式的展示文案
func PayMethodDesc(m int) string {
	switch m {
	case PayMethodCash:
		return "现金当面交易"
	case PayMethodWallet:
		return "钱包支付"
	case PayMethodPoints:
		return "积分抵扣"
	case PayMethodBarter:
		return "以物易物"
	default:
		return "未知方式"
	}
}

// Order 订单模型，一个订单对应一件商品的一次购买意向
// Amount 为下单时刻商品价格的快照，之后不再重算
type Order struct {
	ID            int64      `gorm:"primaryKey"`
	ProductID     int64      `gorm:"index;not null"`
	BuyerID       int64      `gorm:"index;not null"`
	SellerID      int64      `gorm:"index;not null"`
	Amount        int64      `gorm:"not null"` // 分
	PaymentMethod int        `gorm:"not null"`
	Status        int        `gorm:"index;not null"`
	FinishedAt    *time.Time // 仅在完成时写入
	CreatedAt     time.Time  `gorm:"index"`
	UpdatedAt     time.Time
}

// Terminal 是否处于终态
func (o *Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// ListQuery 订单列表查询条件；零值字段不参与过滤
type ListQuery struct {
	BuyerID  int64
	SellerID int64
	Status   *int
	Page     int
	PageSize int
}

// Statistics 买家侧订单统计
type Statistics struct {
	Total           int64         `json:"total"`
	ByStatus        map[int]int64 `json:"by_status"`
	CompletedAmount int64         `json:"completed_amount"` // 已完成订单金额合计，分
}

// Repository 订单仓储接口；状态流转在服务层事务内完成
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, q ListQuery) ([]*Order, error)
	StatisticsByBuyer(ctx context.Context, buyerID int64) (*Statistics, error)
}
