package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/review"
)

// ReviewService 评价闸口：一个已完成订单只允许买家评价一次
type ReviewService struct {
	db         *gorm.DB
	reviewRepo review.Repository
	settlement *SettlementService
	pointsSvc  *PointsService
	pointsCfg  config.PointsConfig
	log        *zap.Logger
}

// NewReviewService 创建评价服务
func NewReviewService(
	db *gorm.DB,
	reviewRepo review.Repository,
	settlement *SettlementService,
	pointsSvc *PointsService,
	pointsCfg config.PointsConfig,
	log *zap.Logger,
) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{
		db:         db,
		reviewRepo: reviewRepo,
		settlement: settlement,
		pointsSvc:  pointsSvc,
		pointsCfg:  pointsCfg,
		log:        log,
	}
}

// Add 买家对已完成订单发布评价
// 前置检查按序失败即返回：订单存在 -> 已完成 -> 买家本人 -> 尚未评价
// -> 评分合法 -> 内容合法；商品 ID 直接取自订单，一致性天然成立。
// 评价与积分奖励同一事务写入；关联交易记录是尽力而为的二次效果
func (s *ReviewService) Add(ctx context.Context, caller auth.Identity, orderID int64, rating int, content string) (*review.Review, error) {
	if err := guardCaller(caller); err != nil {
		return nil, err
	}

	var created *review.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "订单不存在")
			}
			return apperr.Wrap(apperr.Internal, "查询订单失败", err)
		}
		if o.Status != order.StatusCompleted {
			return apperr.New(apperr.InvalidState, "订单尚未完成，不能评价")
		}
		if o.BuyerID != caller.UserID {
			return apperr.New(apperr.PermissionDenied, "只有买家可以评价")
		}

		// 含软删除记录一起数：评价被删除也不恢复评价资格
		var cnt int64
		if err := tx.Unscoped().Model(&review.Review{}).
			Where("order_id = ?", orderID).
			Count(&cnt).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "查询评价失败", err)
		}
		if cnt > 0 {
			return apperr.New(apperr.InvalidState, "该订单已评价")
		}

		if rating < review.MinRating || rating > review.MaxRating {
			return apperr.Newf(apperr.InvalidArgument, "评分需在 %d-%d 之间", review.MinRating, review.MaxRating)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return apperr.New(apperr.InvalidArgument, "评价内容不能为空")
		}
		if utf8.RuneCountInString(content) > review.MaxContentLen {
			return apperr.Newf(apperr.InvalidArgument, "评价内容不能超过 %d 字", review.MaxContentLen)
		}

		rv := &review.Review{
			OrderID:   o.ID,
			ProductID: o.ProductID,
			UserID:    caller.UserID,
			Rating:    rating,
			Content:   content,
		}
		// order_id 唯一索引兜底并发重复评价
		if err := tx.Create(rv).Error; err != nil {
			GetMonitor().RecordReviewError()
			return apperr.Wrap(apperr.Internal, "创建评价失败", err)
		}

		if err := s.pointsSvc.AwardInTx(tx, caller.UserID, s.pointsCfg.ReviewReward,
			points.ChangeTypeReview, rv.ID, "发布评价奖励"); err != nil {
			return err
		}

		created = rv
		return nil
	})
	if err != nil {
		return nil, err
	}

	GetMonitor().RecordReviewCreated()

	// 尽力把评价挂到交易记录上，失败只记日志，评价本身已生效
	if err := s.settlement.LinkReview(ctx, orderID, created.ID); err != nil {
		s.log.Warn("评价关联交易记录失败",
			zap.Int64("order_id", orderID),
			zap.Int64("review_id", created.ID),
			zap.Error(err))
	}
	return created, nil
}

// Delete 删除评价，仅作者或管理员可操作
// 交易记录的已评价状态不回退，订单也不会重新获得评价资格
func (s *ReviewService) Delete(ctx context.Context, caller auth.Identity, reviewID int64) error {
	if err := guardCaller(caller); err != nil {
		return err
	}
	rv, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "评价不存在")
		}
		return apperr.Wrap(apperr.Internal, "查询评价失败", err)
	}
	if rv.UserID != caller.UserID && !caller.IsAdmin() {
		return apperr.New(apperr.PermissionDenied, "无权删除该评价")
	}
	if err := s.reviewRepo.Delete(ctx, rv.ID); err != nil {
		return apperr.Wrap(apperr.Internal, "删除评价失败", err)
	}
	return nil
}

// GetByOrder 查询订单的评价，至多一条
func (s *ReviewService) GetByOrder(ctx context.Context, orderID int64) (*review.Review, error) {
	rv, err := s.reviewRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "该订单暂无评价")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询评价失败", err)
	}
	return rv, nil
}

// ListByProduct 查询商品的评价列表
func (s *ReviewService) ListByProduct(ctx context.Context, productID int64, limit int) ([]*review.Review, error) {
	list, err := s.reviewRepo.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询评价失败", err)
	}
	return list, nil
}
