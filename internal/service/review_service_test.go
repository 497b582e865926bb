package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
)

// completedOrder 造一单已完成的交易，返回买卖双方和订单
func completedOrder(t *testing.T, env *testEnv) (buyer, seller auth.Identity, o *order.Order) {
	t.Helper()
	ctx := context.Background()
	seller = env.mustUser(t, "seller", user.RoleUser)
	buyer = env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))
	require.NoError(t, env.orderSvc.Complete(ctx, seller, o.ID))
	return buyer, seller, o
}

func TestAddReviewLinksTradeRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer, _, o := completedOrder(t, env)

	rv, err := env.reviewSvc.Add(ctx, buyer, o.ID, 5, "车况很好")
	require.NoError(t, err)
	assert.Equal(t, 5, rv.Rating)
	assert.Equal(t, o.ProductID, rv.ProductID)
	assert.Equal(t, buyer.UserID, rv.UserID)

	// 交易记录被标为已评价并回指评价
	rec, err := env.settlement.GetByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusReviewed, rec.TradeStatus)
	require.NotNil(t, rec.ReviewID)
	assert.Equal(t, rv.ID, *rec.ReviewID)

	// 评价奖励入账
	recs, err := env.pointsSvc.ListRecords(ctx, buyer.UserID, 10)
	require.NoError(t, err)
	var found bool
	for _, r := range recs {
		if r.ChangeType == points.ChangeTypeReview {
			found = true
			assert.Equal(t, int64(5), r.Change)
		}
	}
	assert.True(t, found, "review reward record missing")
}

func TestAddReviewRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer, _, o := completedOrder(t, env)

	_, err := env.reviewSvc.Add(ctx, buyer, o.ID, 5, "很好")
	require.NoError(t, err)

	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 4, "再评一次")
	assert.True(t, apperr.IsInvalidState(err), "duplicate review should fail, got %v", err)
}

func TestAddReviewRequiresCompletedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.mustUser(t, "seller", user.RoleUser)
	buyer := env.mustUser(t, "buyer", user.RoleUser)
	p := env.mustProduct(t, "山地车", 10000, seller, product.StatusListed)

	o, err := env.orderSvc.Create(ctx, buyer, p.ID, order.PayMethodCash)
	require.NoError(t, err)

	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, "还没完成呢")
	assert.True(t, apperr.IsInvalidState(err))

	require.NoError(t, env.orderSvc.Pay(ctx, buyer, o.ID))
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, "还没完成呢")
	assert.True(t, apperr.IsInvalidState(err))

	_, err = env.reviewSvc.Add(ctx, buyer, 99999, 5, "订单不存在")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddReviewBuyerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, seller, o := completedOrder(t, env)
	outsider := env.mustUser(t, "outsider", user.RoleUser)

	_, err := env.reviewSvc.Add(ctx, seller, o.ID, 5, "卖家不能评")
	assert.True(t, apperr.IsPermissionDenied(err))
	_, err = env.reviewSvc.Add(ctx, outsider, o.ID, 5, "路人不能评")
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestAddReviewValidatesRatingAndContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer, _, o := completedOrder(t, env)

	_, err := env.reviewSvc.Add(ctx, buyer, o.ID, 6, "超范围")
	assert.True(t, apperr.IsInvalidArgument(err))
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 0, "超范围")
	assert.True(t, apperr.IsInvalidArgument(err))
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, "   ")
	assert.True(t, apperr.IsInvalidArgument(err))
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, strings.Repeat("好", 501))
	assert.True(t, apperr.IsInvalidArgument(err))

	// 上述失败都不应留下评价
	_, err = env.reviewSvc.GetByOrder(ctx, o.ID)
	assert.True(t, apperr.IsNotFound(err))

	// 恰好 500 字可以
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, strings.Repeat("好", 500))
	assert.NoError(t, err)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer, seller, o := completedOrder(t, env)
	admin := env.mustUser(t, "admin", user.RoleAdmin)

	rv, err := env.reviewSvc.Add(ctx, buyer, o.ID, 4, "还不错")
	require.NoError(t, err)

	// 非作者非管理员不能删
	err = env.reviewSvc.Delete(ctx, seller, rv.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	// 作者可删
	require.NoError(t, env.reviewSvc.Delete(ctx, buyer, rv.ID))
	_, err = env.reviewSvc.GetByOrder(ctx, o.ID)
	assert.True(t, apperr.IsNotFound(err))

	// 删除不回退交易记录状态，订单也不能再次评价
	rec, err := env.settlement.GetByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusReviewed, rec.TradeStatus)
	_, err = env.reviewSvc.Add(ctx, buyer, o.ID, 5, "再评一次")
	assert.True(t, apperr.IsInvalidState(err))

	// 管理员删除不存在的评价
	err = env.reviewSvc.Delete(ctx, admin, rv.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetReviewByOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer, _, o := completedOrder(t, env)

	_, err := env.reviewSvc.GetByOrder(ctx, o.ID)
	assert.True(t, apperr.IsNotFound(err))

	rv, err := env.reviewSvc.Add(ctx, buyer, o.ID, 5, "很好")
	require.NoError(t, err)

	got, err := env.reviewSvc.GetByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, rv.ID, got.ID)

	list, err := env.reviewSvc.ListByProduct(ctx, o.ProductID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rv.ID, list[0].ID)
}
