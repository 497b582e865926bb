package points

import (
	"context"
	"time"
)

// 积分变动类型
const (
	ChangeTypeTrade  = "trade"  // 交易完成奖励
	ChangeTypeReview = "review" // 评价奖励
	ChangeTypeOther  = "other"
)

// Account 用户积分账户
type Account struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex;not null"`
	Balance   int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record 积分流水，只追加不修改
type Record struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"index;not null"`
	Change      int64     `gorm:"not null"`      // 正数入账，负数扣减
	After       int64     `gorm:"not null"`      // 变动后的余额
	ChangeType  string    `gorm:"size:32;index"` // trade / review / other
	RelatedID   int64     `gorm:"index"`         // 关联的订单或评价 ID
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"index"`
}

// TableName 与 trade.Record 默认复数表名冲突，按规范落在 points_records
func (Record) TableName() string {
	return "points_records"
}

// Repository 积分仓储接口；入账在服务层事务内完成
type Repository interface {
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	ListRecords(ctx context.Context, userID int64, limit int) ([]*Record, error)
}
