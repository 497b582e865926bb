package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "旧吉他", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	// 下单即待支付，金额取商品标价快照
	got, err := env.orderSvc.Get(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPendingPayment, got.Status)
	assert.Equal(t, int64(10000), got.Amount)
	assert.Equal(t, order.PayMethodCash, got.PaymentMethod)
	assert.Equal(t, buyer.UserID, got.BuyerID)
	assert.Equal(t, seller.UserID, got.SellerID)
	assert.Nil(t, got.FinishedAt)
}

func TestCreateOrderRejectsSelfPurchase(t *testing.T) {
	env := newTestEnv(t)
	seller := env.mustUser(t, "seller", user.RoleUser)
	p := env.mustProduct(t, "旧吉他", 10000, seller, product.StatusListed)

	_, err := env.orderSvc.Create(context.Background(), seller, p.ID, order.PayMethodCash)
	assert.True(t, apperr.IsInvalidArgument(err), "self purchase should be invalid argument, got %v", err)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	listed := env.mustProduct(t, "在售", 100, seller, product.StatusListed)
	delisted := env.mustProduct(t, "已下架", 100, seller, product.StatusDelisted)

	_, err := env.orderSvc.Create(ctx, buyer, 99999, order.PayMethodCash)
	assert.True(t, apperr.IsNotFound(err))

	_, err = env.orderSvc.Create(ctx, buyer, delisted.ID, order.PayMethodCash)
	assert.True(t, apperr.IsInvalidState(err))

	_, err = env.orderSvc.Create(ctx, buyer, listed.ID, 7)
	assert.True(t, apperr.IsInvalidArgument(err))

	banned := env.mustUser(t, "banned", user.RoleBan)
	_, err = env.orderSvc.Create(ctx, banned, listed.ID, order.PayMethodCash)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))
	got, _ := env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusPaid, got.Status)

	// 卖家确认完成
	require.NoError(t, env.orderSvc.Complete(ctx, seller, o.ID))
	got, _ = env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)

	// 结算生成唯一交易记录
	rec, err := env.settlement.GetByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), rec.Amount)
	assert.Equal(t, trade.StatusSettled, rec.TradeStatus)
	assert.Equal(t, "山地车", rec.ProductName)
	assert.Equal(t, "buyer", rec.BuyerName)
	assert.Equal(t, "seller", rec.SellerName)
	assert.Equal(t, order.PayMethodDesc(order.PayMethodCash), rec.PaymentMethodDesc)

	// 商品成交即离场
	gotP, err := env.prodRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, product.StatusSold, gotP.Status)

	// 买卖双方各得交易积分
	buyerPts, _ := env.pointsSvc.Balance(ctx, buyer.UserID)
	sellerPts, _ := env.pointsSvc.Balance(ctx, seller.UserID)
	assert.Equal(t, int64(10), buyerPts)
	assert.Equal(t, int64(10), sellerPts)

	recs, err := env.pointsSvc.ListRecords(ctx, buyer.UserID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, points.ChangeTypeTrade, recs[0].ChangeType)
	assert.Equal(t, o.ID, recs[0].RelatedID)
	assert.Equal(t, int64(10), recs[0].After)
}

func TestCompleteTwiceCreatesSingleTradeRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))

	require.NoError(t, env.orderSvc.Complete(ctx, seller, o.ID))
	err = env.orderSvc.Complete(ctx, buyer, o.ID)
	assert.True(t, apperr.IsInvalidState(err), "second complete should lose, got %v", err)

	var cnt int64
	require.NoError(t, env.db.Model(&trade.Record{}).Where("order_id = ?", o.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestPayRejectedInWrongStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))
	require.NoError(t, env.orderSvc.Complete(ctx, seller, o.ID))

	// 已完成的订单不能再支付，状态保持不变
	err = env.orderSvc.Pay(ctx, buyer, o.ID)
	assert.True(t, apperr.IsInvalidState(err))
	got, _ := env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusCompleted, got.Status)

	// 已取消的订单同理
	p2 := env.mustProduct(t, "备用商品", 5000, seller, product.StatusListed)
	o2, err := env.orderSvc.Create(ctx, buyer, p2.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Cancel(ctx, buyer, o2.ID))
	err = env.orderSvc.Pay(ctx, buyer, o2.ID)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestPayRequiresProductStillListed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	p.Status = product.StatusDelisted
	require.NoError(t, env.prodRepo.Update(ctx, p))

	err = env.orderSvc.Pay(ctx, buyer, o.ID)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestCancelTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	require.NoError(t, env.orderSvc.Cancel(ctx, buyer, o.ID))
	got, _ := env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusCancelled, got.Status)

	// 第二次取消失败，状态与完成时间保持不变
	err = env.orderSvc.Cancel(ctx, buyer, o.ID)
	assert.True(t, apperr.IsInvalidState(err))
	got, _ = env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Nil(t, got.FinishedAt)
}

func TestCancelAfterPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))

	// 卖家也可以取消已支付的订单
	require.NoError(t, env.orderSvc.Cancel(ctx, seller, o.ID))
	got, _ := env.orderSvc.Get(ctx, buyer, o.ID)
	assert.Equal(t, order.StatusCancelled, got.Status)
}

func TestGetOrderPermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	outsider := env.mustUser(t, "outsider", user.RoleUser)
	admin := env.mustUser(t, "admin", user.RoleAdmin)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	_, err = env.orderSvc.Get(ctx, outsider, o.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = env.orderSvc.Get(ctx, seller, o.ID)
	assert.NoError(t, err)
	_, err = env.orderSvc.Get(ctx, admin, o.ID)
	assert.NoError(t, err)

	// 第三方也不能推进状态
	err = env.orderSvc.Pay(ctx, outsider, o.ID)
	assert.True(t, apperr.IsPermissionDenied(err))
	err = env.orderSvc.Cancel(ctx, outsider, o.ID)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	other := env.mustUser(t, "other", user.RoleUser)
	admin := env.mustUser(t, "admin", user.RoleAdmin)

	p1 := env.mustProduct(t, "p1", 100, seller, product.StatusListed)
	p2 := env.mustProduct(t, "p2", 200, seller, product.StatusListed)
	p3 := env.mustProduct(t, "p3", 300, other, product.StatusListed)

	o1, err := env.orderSvc.Create(ctx, buyer, p1.ID, order.PayMethodCash)
	require.NoError(t, err)
	_, err = env.orderSvc.Create(ctx, buyer, p2.ID, order.PayMethodCash)
	require.NoError(t, err)
	_, err = env.orderSvc.Create(ctx, other, p1.ID, order.PayMethodCash)
	require.NoError(t, err)
	_, err = env.orderSvc.Create(ctx, buyer, p3.ID, order.PayMethodCash)
	require.NoError(t, err)

	require.NoError(t, env.orderSvc.Cancel(ctx, buyer, o1.ID))

	// 买家侧只看到自己的
	list, err := env.orderSvc.List(ctx, buyer, ListRequest{Side: SideBuyer})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, o := range list {
		assert.Equal(t, buyer.UserID, o.BuyerID)
	}

	// 卖家侧
	list, err = env.orderSvc.List(ctx, seller, ListRequest{Side: SideSeller})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	// 状态过滤
	cancelled := order.StatusCancelled
	list, err = env.orderSvc.List(ctx, buyer, ListRequest{Side: SideBuyer, Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o1.ID, list[0].ID)

	// 管理员可以自由过滤
	list, err = env.orderSvc.List(ctx, admin, ListRequest{BuyerID: other.UserID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, other.UserID, list[0].BuyerID)

	// 管理员不传过滤即全量
	list, err = env.orderSvc.List(ctx, admin, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)

	p1 := env.mustProduct(t, "p1", 10000, seller, product.StatusListed)
	p2 := env.mustProduct(t, "p2", 5000, seller, product.StatusListed)
	p3 := env.mustProduct(t, "p3", 3000, seller, product.StatusListed)

	o1, err := env.orderSvc.Create(ctx, buyer, p1.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o1.ID))
	require.NoError(t, env.orderSvc.Complete(ctx, seller, o1.ID))

	o2, err := env.orderSvc.Create(ctx, buyer, p2.ID, order.PayMethodWallet)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Cancel(ctx, buyer, o2.ID))

	_, err = env.orderSvc.Create(ctx, buyer, p3.ID, order.PayMethodCash)
	require.NoError(t, err)

	stats, err := env.orderSvc.Statistics(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusCompleted])
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusCancelled])
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusPendingPayment])
	assert.Equal(t, int64(10000), stats.CompletedAmount)

	// 统计只算买家侧：卖家视角为空
	stats, err = env.orderSvc.Statistics(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
}
