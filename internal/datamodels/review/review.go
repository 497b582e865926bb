package review

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// 评分与内容约束
const (
	MinRating     = 1
	MaxRating     = 5
	MaxContentLen = 500 // 按字符数计
)

// Review 买家对已完成订单的评价，一个订单至多一条
// 删除是软删除：评价一经给出订单即永久失去评价资格，唯一索引也因此常驻
type Review struct {
	ID        int64          `gorm:"primaryKey"`
	OrderID   int64          `gorm:"uniqueIndex;not null"`
	ProductID int64          `gorm:"index;not null"`
	UserID    int64          `gorm:"index;not null"` // 必须是订单买家
	Rating    int            `gorm:"not null"`
	Content   string         `gorm:"size:500;not null"`
	CreatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Repository 评价仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Review, error)
	GetByOrderID(ctx context.Context, orderID int64) (*Review, error)
	ListByProduct(ctx context.Context, productID int64, limit int) ([]*Review, error)
	Delete(ctx context.Context, id int64) error
}
