package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
)

// TradeEventsQueue 结算事件队列，trade-worker 消费后写站内通知
const TradeEventsQueue = "trade_events"

// TradeSettledMessage 结算完成事件
type TradeSettledMessage struct {
	TradeID     int64  `json:"trade_id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	BuyerID     int64  `json:"buyer_id"`
	SellerID    int64  `json:"seller_id"`
	Amount      int64  `json:"amount"`
}

// OrderService 订单生命周期引擎
// 状态检查和状态写入在同一事务内以"行锁 + 状态条件更新"完成，
// 并发推进同一订单时只有一方成功，失败方得到 InvalidState
type OrderService struct {
	db         *gorm.DB
	orderRepo  order.Repository
	settlement *SettlementService
	pointsSvc  *PointsService
	policy     TransitionPolicy
	pointsCfg  config.PointsConfig
	mqConn     *amqp.Connection // 可为 nil，此时跳过事件发布
	log        *zap.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo order.Repository,
	settlement *SettlementService,
	pointsSvc *PointsService,
	policy TransitionPolicy,
	pointsCfg config.PointsConfig,
	mqConn *amqp.Connection,
	log *zap.Logger,
) *OrderService {
	if policy == nil {
		policy = SymmetricPolicy{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		db:         db,
		orderRepo:  orderRepo,
		settlement: settlement,
		pointsSvc:  pointsSvc,
		policy:     policy,
		pointsCfg:  pointsCfg,
		mqConn:     mqConn,
		log:        log,
	}
}

// guardCaller 统一的调用者前置校验：必须已登录，封禁用户一律拒绝
func guardCaller(caller auth.Identity) error {
	if caller.UserID <= 0 {
		return apperr.New(apperr.Unauthenticated, "未登录")
	}
	if caller.Banned() {
		return apperr.New(apperr.PermissionDenied, "账号已被封禁")
	}
	return nil
}

// lockOrder 事务内按主键加行锁读取订单
func lockOrder(tx *gorm.DB, orderID int64) (*order.Order, error) {
	var o order.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "订单不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询订单失败", err)
	}
	return &o, nil
}

// Create 买家对一件在售商品下单，金额取当前标价快照
func (s *OrderService) Create(ctx context.Context, caller auth.Identity, productID int64, payMethod int) (*order.Order, error) {
	if err := guardCaller(caller); err != nil {
		return nil, err
	}
	if !order.ValidPayMethod(payMethod) {
		return nil, apperr.Newf(apperr.InvalidArgument, "不支持的支付方式: %d", payMethod)
	}

	var p product.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "商品不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询商品失败", err)
	}
	if p.Status != product.StatusListed {
		return nil, apperr.New(apperr.InvalidState, "商品未上架或已下架")
	}
	if p.OwnerID == caller.UserID {
		return nil, apperr.New(apperr.InvalidArgument, "不能购买自己发布的商品")
	}

	o := &order.Order{
		ProductID:     p.ID,
		BuyerID:       caller.UserID,
		SellerID:      p.OwnerID,
		Amount:        p.Price,
		PaymentMethod: payMethod,
		Status:        order.StatusPendingPayment,
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		GetMonitor().RecordDBError()
		return nil, apperr.Wrap(apperr.Internal, "创建订单失败", err)
	}
	GetMonitor().RecordOrderCreated()
	return o, nil
}

// Pay 支付订单：待支付 -> 已支付，要求商品仍在售
func (s *OrderService) Pay(ctx context.Context, caller auth.Identity, orderID int64) error {
	if err := guardCaller(caller); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !s.policy.CanPay(o, caller) {
			return apperr.New(apperr.PermissionDenied, "无权操作该订单")
		}
		if o.Status != order.StatusPendingPayment {
			return apperr.New(apperr.InvalidState, "订单当前状态不允许支付")
		}

		var p product.Product
		if err := tx.First(&p, o.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "商品不存在")
			}
			return apperr.Wrap(apperr.Internal, "查询商品失败", err)
		}
		if p.Status != product.StatusListed {
			return apperr.New(apperr.InvalidState, "商品已不在售，无法支付")
		}

		res := tx.Model(&order.Order{}).
			Where("id = ? AND status = ?", o.ID, order.StatusPendingPayment).
			Update("status", order.StatusPaid)
		if res.Error != nil {
			GetMonitor().RecordDBError()
			return apperr.Wrap(apperr.Internal, "更新订单状态失败", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.InvalidState, "订单状态已变化，请刷新后重试")
		}
		return nil
	})
}

// Cancel 取消订单：待支付/已支付 -> 已取消，终态
func (s *OrderService) Cancel(ctx context.Context, caller auth.Identity, orderID int64) error {
	if err := guardCaller(caller); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !s.policy.CanCancel(o, caller) {
			return apperr.New(apperr.PermissionDenied, "无权操作该订单")
		}
		if o.Status != order.StatusPendingPayment && o.Status != order.StatusPaid {
			return apperr.New(apperr.InvalidState, "订单已完成或已取消，无法再取消")
		}

		res := tx.Model(&order.Order{}).
			Where("id = ? AND status IN ?", o.ID, []int{order.StatusPendingPayment, order.StatusPaid}).
			Update("status", order.StatusCancelled)
		if res.Error != nil {
			GetMonitor().RecordDBError()
			return apperr.Wrap(apperr.Internal, "更新订单状态失败", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.InvalidState, "订单状态已变化，请刷新后重试")
		}
		return nil
	})
}

// Complete 确认完成：已支付 -> 已完成，同一事务内结算交易记录、
// 商品置为已售出、买卖双方各入账积分；事务提交后尽力发布结算事件
func (s *OrderService) Complete(ctx context.Context, caller auth.Identity, orderID int64) error {
	if err := guardCaller(caller); err != nil {
		return err
	}

	var settled *trade.Record
	var completed *order.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !s.policy.CanComplete(o, caller) {
			return apperr.New(apperr.PermissionDenied, "无权操作该订单")
		}
		if o.Status != order.StatusPaid {
			return apperr.New(apperr.InvalidState, "只有已支付的订单才能确认完成")
		}

		now := time.Now()
		res := tx.Model(&order.Order{}).
			Where("id = ? AND status = ?", o.ID, order.StatusPaid).
			Updates(map[string]interface{}{
				"status":      order.StatusCompleted,
				"finished_at": now,
			})
		if res.Error != nil {
			GetMonitor().RecordDBError()
			return apperr.Wrap(apperr.Internal, "更新订单状态失败", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.InvalidState, "订单状态已变化，请刷新后重试")
		}
		o.Status = order.StatusCompleted
		o.FinishedAt = &now

		rec, err := s.settlement.SettleInTx(tx, o)
		if err != nil {
			return err
		}

		// 二手商品成交即离场
		if err := tx.Model(&product.Product{}).
			Where("id = ?", o.ProductID).
			Update("status", product.StatusSold).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "更新商品状态失败", err)
		}

		if err := s.pointsSvc.AwardInTx(tx, o.BuyerID, s.pointsCfg.TradeReward,
			points.ChangeTypeTrade, o.ID, "交易完成奖励"); err != nil {
			return err
		}
		if err := s.pointsSvc.AwardInTx(tx, o.SellerID, s.pointsCfg.TradeReward,
			points.ChangeTypeTrade, o.ID, "交易完成奖励"); err != nil {
			return err
		}

		settled = rec
		completed = o
		return nil
	})
	if err != nil {
		GetMonitor().RecordSettlementError()
		return err
	}

	GetMonitor().RecordSettlementSuccess()
	s.publishTradeSettled(ctx, completed, settled)
	return nil
}

// publishTradeSettled 发布结算事件，失败只记日志不影响结果
func (s *OrderService) publishTradeSettled(ctx context.Context, o *order.Order, rec *trade.Record) {
	if s.mqConn == nil {
		return
	}
	ch, err := s.mqConn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		s.log.Warn("打开 MQ 通道失败，结算事件未发布", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(TradeEventsQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		s.log.Warn("声明结算事件队列失败", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	body, err := json.Marshal(&TradeSettledMessage{
		TradeID:     rec.ID,
		OrderID:     o.ID,
		ProductID:   o.ProductID,
		ProductName: rec.ProductName,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		Amount:      o.Amount,
	})
	if err != nil {
		s.log.Warn("序列化结算事件失败", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		TradeEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		GetMonitor().RecordMQError()
		s.log.Warn("发布结算事件失败", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

// Get 查询订单，仅买家、卖家或管理员可见
func (s *OrderService) Get(ctx context.Context, caller auth.Identity, orderID int64) (*order.Order, error) {
	if err := guardCaller(caller); err != nil {
		return nil, err
	}
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "订单不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询订单失败", err)
	}
	if !caller.IsAdmin() && !isParty(o, caller) {
		return nil, apperr.New(apperr.PermissionDenied, "无权查看该订单")
	}
	return o, nil
}

// 列表查询的身份侧别
const (
	SideBuyer  = "buyer"
	SideSeller = "seller"
)

// ListRequest 订单列表请求
type ListRequest struct {
	Side     string // buyer / seller，普通用户生效
	Status   *int
	Page     int
	PageSize int
	// 以下过滤仅对管理员开放
	BuyerID  int64
	SellerID int64
}

// List 查询订单列表；普通用户只能查自己买/卖两侧，管理员可自由过滤
func (s *OrderService) List(ctx context.Context, caller auth.Identity, req ListRequest) ([]*order.Order, error) {
	if err := guardCaller(caller); err != nil {
		return nil, err
	}

	q := order.ListQuery{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if caller.IsAdmin() {
		q.BuyerID = req.BuyerID
		q.SellerID = req.SellerID
	} else if req.Side == SideSeller {
		q.SellerID = caller.UserID
	} else {
		q.BuyerID = caller.UserID
	}

	list, err := s.orderRepo.List(ctx, q)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询订单列表失败", err)
	}
	return list, nil
}

// Statistics 买家侧订单统计
func (s *OrderService) Statistics(ctx context.Context, caller auth.Identity) (*order.Statistics, error) {
	if err := guardCaller(caller); err != nil {
		return nil, err
	}
	stats, err := s.orderRepo.StatisticsByBuyer(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "统计订单失败", err)
	}
	return stats, nil
}
