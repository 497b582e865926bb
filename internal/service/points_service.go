package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
)

// PointsService 积分台账：账户余额 + 只追加的流水
type PointsService struct {
	db   *gorm.DB
	repo points.Repository
}

// NewPointsService 创建积分服务
func NewPointsService(db *gorm.DB, repo points.Repository) *PointsService {
	return &PointsService{db: db, repo: repo}
}

// AwardInTx 在外部事务内给用户入账并写流水
// 锁定账户行后计算变动后余额，流水里携带 After 方便审计
func (s *PointsService) AwardInTx(tx *gorm.DB, userID, change int64, changeType string, relatedID int64, desc string) error {
	var acc points.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&acc).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.Internal, "查询积分账户失败", err)
		}
		acc = points.Account{UserID: userID}
		if err := tx.Create(&acc).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "创建积分账户失败", err)
		}
	}

	acc.Balance += change
	if err := tx.Save(&acc).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "更新积分余额失败", err)
	}

	rec := &points.Record{
		UserID:      userID,
		Change:      change,
		After:       acc.Balance,
		ChangeType:  changeType,
		RelatedID:   relatedID,
		Description: desc,
	}
	if err := tx.Create(rec).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "写积分流水失败", err)
	}
	return nil
}

// Balance 查询积分余额，账户不存在视为 0
func (s *PointsService) Balance(ctx context.Context, userID int64) (int64, error) {
	acc, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperr.Wrap(apperr.Internal, "查询积分账户失败", err)
	}
	return acc.Balance, nil
}

// ListRecords 查询积分流水
func (s *PointsService) ListRecords(ctx context.Context, userID int64, limit int) ([]*points.Record, error) {
	list, err := s.repo.ListRecords(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询积分流水失败", err)
	}
	return list, nil
}
