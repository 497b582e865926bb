package service

import (
	"context"
	"fmt"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/message"
)

// MessageService 站内通知，trade-worker 消费结算事件后写入
type MessageService struct {
	repo message.Repository
}

// NewMessageService 创建通知服务
func NewMessageService(repo message.Repository) *MessageService {
	return &MessageService{repo: repo}
}

// NotifyTradeSettled 向买卖双方各写一条交易完成通知
func (s *MessageService) NotifyTradeSettled(ctx context.Context, ev *TradeSettledMessage) error {
	name := ev.ProductName
	if name == "" {
		name = fmt.Sprintf("商品 #%d", ev.ProductID)
	}
	amount := fmt.Sprintf("¥%.2f", float64(ev.Amount)/100)

	buyerMsg := &message.Message{
		UserID:    ev.BuyerID,
		Kind:      message.KindTradeSettled,
		Content:   fmt.Sprintf("订单 #%d 已完成，%s（%s）交易成功，记得给卖家评价哦", ev.OrderID, name, amount),
		RelatedID: ev.OrderID,
	}
	if err := s.repo.Create(ctx, buyerMsg); err != nil {
		return apperr.Wrap(apperr.Internal, "写买家通知失败", err)
	}

	sellerMsg := &message.Message{
		UserID:    ev.SellerID,
		Kind:      message.KindTradeSettled,
		Content:   fmt.Sprintf("订单 #%d 已完成，%s（%s）已售出", ev.OrderID, name, amount),
		RelatedID: ev.OrderID,
	}
	if err := s.repo.Create(ctx, sellerMsg); err != nil {
		return apperr.Wrap(apperr.Internal, "写卖家通知失败", err)
	}
	return nil
}

// ListByUser 拉取用户的通知，afterID 用于增量拉取
func (s *MessageService) ListByUser(ctx context.Context, userID int64, afterID uint64, limit int) ([]*message.Message, error) {
	list, err := s.repo.ListByUser(ctx, userID, afterID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询通知失败", err)
	}
	return list, nil
}
