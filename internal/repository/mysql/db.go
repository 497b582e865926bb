package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/message"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/order"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/points"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/review"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/trade"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Models 需要迁移的全部模型；trade_records.order_id 与 reviews.order_id
// 的唯一索引在这里落库，用来封死并发重复结算/重复评价
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Product{},
		&order.Order{},
		&trade.Record{},
		&review.Review{},
		&points.Account{},
		&points.Record{},
		&message.Message{},
	}
}

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = db.AutoMigrate(Models()...); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
