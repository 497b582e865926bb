package service

import (
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
)

// TransitionPolicy 决定谁可以推进订单的状态流转
// 线上行为是买卖双方对支付/取消/完成三个动作完全对等，
// 这里抽成策略接口，便于收紧为"仅买家可支付"而不动引擎本身
type TransitionPolicy interface {
	CanPay(o *order.Order, caller auth.Identity) bool
	CanCancel(o *order.Order, caller auth.Identity) bool
	CanComplete(o *order.Order, caller auth.Identity) bool
}

func isParty(o *order.Order, caller auth.Identity) bool {
	return caller.UserID == o.BuyerID || caller.UserID == o.SellerID
}

// SymmetricPolicy 买卖双方均可支付/取消/完成，沿用现网行为
type SymmetricPolicy struct{}

func (SymmetricPolicy) CanPay(o *order.Order, caller auth.Identity) bool {
	return isParty(o, caller)
}

func (SymmetricPolicy) CanCancel(o *order.Order, caller auth.Identity) bool {
	return isParty(o, caller)
}

func (SymmetricPolicy) CanComplete(o *order.Order, caller auth.Identity) bool {
	return isParty(o, caller)
}

// BuyerPaysPolicy 更严格的策略：仅买家可支付，取消/完成仍双方对等
type BuyerPaysPolicy struct{}

func (BuyerPaysPolicy) CanPay(o *order.Order, caller auth.Identity) bool {
	return caller.UserID == o.BuyerID
}

func (BuyerPaysPolicy) CanCancel(o *order.Order, caller auth.Identity) bool {
	return isParty(o, caller)
}

func (BuyerPaysPolicy) CanComplete(o *order.Order, caller auth.Identity) bool {
	return isParty(o, caller)
}
