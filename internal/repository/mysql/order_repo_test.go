package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// 内存库限制单连接，避免连接池拿到不同的内存实例
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID, sellerID int64, status int, amount int64, createdAt time.Time) *order.Order {
	t.Helper()
	o := &order.Order{
		ProductID:     1,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		Amount:        amount,
		PaymentMethod: order.PayMethodCash,
		Status:        status,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestOrderRepoListOrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := seedOrder(t, db, 1, 2, order.StatusCompleted, 1000, base)
	mid := seedOrder(t, db, 1, 3, order.StatusPendingPayment, 2000, base.Add(time.Minute))
	newest := seedOrder(t, db, 4, 2, order.StatusPaid, 3000, base.Add(2*time.Minute))

	// 无过滤条件时按创建时间倒序
	list, err := repo.List(ctx, order.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, newest.ID, list[0].ID)
	assert.Equal(t, mid.ID, list[1].ID)
	assert.Equal(t, old.ID, list[2].ID)

	// 买家过滤
	list, err = repo.List(ctx, order.ListQuery{BuyerID: 1})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, mid.ID, list[0].ID)

	// 卖家过滤
	list, err = repo.List(ctx, order.ListQuery{SellerID: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)

	// 状态过滤，零值状态（待支付）也要能查
	pending := order.StatusPendingPayment
	list, err = repo.List(ctx, order.ListQuery{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mid.ID, list[0].ID)
}

func TestOrderRepoListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedOrder(t, db, 1, 2, order.StatusPendingPayment, 100, base.Add(time.Duration(i)*time.Second))
	}

	first, err := repo.List(ctx, order.ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := repo.List(ctx, order.ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	third, err := repo.List(ctx, order.ListQuery{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, third, 1)

	// 非法分页参数回退默认值
	all, err := repo.List(ctx, order.ListQuery{Page: 0, PageSize: -1})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestOrderRepoStatisticsByBuyer(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, db, 1, 2, order.StatusCompleted, 1000, base)
	seedOrder(t, db, 1, 2, order.StatusCompleted, 2500, base.Add(time.Minute))
	seedOrder(t, db, 1, 3, order.StatusCancelled, 9999, base.Add(2*time.Minute))
	seedOrder(t, db, 1, 3, order.StatusPendingPayment, 100, base.Add(3*time.Minute))
	// 其他买家的订单不计入
	seedOrder(t, db, 7, 2, order.StatusCompleted, 88888, base.Add(4*time.Minute))

	stats, err := repo.StatisticsByBuyer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[order.StatusCompleted])
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusCancelled])
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusPendingPayment])
	// 已完成金额只累加已完成订单
	assert.Equal(t, int64(3500), stats.CompletedAmount)

	// 没有订单的买家得到空统计
	empty, err := repo.StatisticsByBuyer(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total)
	assert.Equal(t, int64(0), empty.CompletedAmount)
}
