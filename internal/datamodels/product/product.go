package product

import (
	"context"
	"time"
)

// 商品上架状态
const (
	StatusDraft    = 0 // 草稿/未上架
	StatusListed   = 1 // 在售
	StatusDelisted = 2 // 已下架
	StatusSold     = 3 // 已售出
)

// Product 二手商品模型
type Product struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"size:128;not null"`
	Description string    `gorm:"size:512"`
	Price       int64     `gorm:"not null"` // 分
	OwnerID     int64     `gorm:"index;not null"`
	Status      int       `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListListed(ctx context.Context) ([]*Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
