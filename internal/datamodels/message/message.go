package message

import (
	"context"
	"time"
)

// 通知类型
const (
	KindTradeSettled   = "trade_settled"   // 交易完成
	KindReviewReceived = "review_received" // 收到评价
)

// Message 站内通知，由 trade-worker 在交易结算后写入买卖双方的收件箱
type Message struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Kind      string    `gorm:"size:32;index;not null"`
	Content   string    `gorm:"size:512;not null"`
	RelatedID int64     `gorm:"index"` // 关联的订单 ID
	CreatedAt time.Time `gorm:"index"`
}

// Repository 通知仓储接口
type Repository interface {
	ListByUser(ctx context.Context, userID int64, afterID uint64, limit int) ([]*Message, error)
	Create(ctx context.Context, m *Message) error
}
