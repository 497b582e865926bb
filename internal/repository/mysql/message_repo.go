package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/message"
)

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepository 创建通知仓储
func NewMessageRepository(db *gorm.DB) message.Repository {
	return &messageRepo{db: db}
}

func (r *messageRepo) ListByUser(ctx context.Context, userID int64, afterID uint64, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []*message.Message
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}
