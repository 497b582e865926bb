package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
)

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// seed-data 造一批演示用户和在售商品，方便本地联调
func main() {
	cfg := config.Load()
	db := mysql.Init(&cfg.MySQL)
	ctx := context.Background()

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)

	users := []*user.User{
		{Username: "admin", Role: user.RoleAdmin},
		{Username: "alice", Role: user.RoleUser},
		{Username: "bob", Role: user.RoleUser},
	}
	for _, u := range users {
		u.Salt = "flea-market"
		u.Password = hashPassword("123456", u.Salt)
		if err := userRepo.Create(ctx, u); err != nil {
			log.Printf("skip user %s: %v", u.Username, err)
			continue
		}
		log.Printf("user %s created, id=%d", u.Username, u.ID)
	}

	var alice, bob *user.User
	for _, u := range users {
		switch u.Username {
		case "alice":
			alice = u
		case "bob":
			bob = u
		}
	}
	if alice == nil || bob == nil || alice.ID == 0 || bob.ID == 0 {
		log.Printf("seed users missing, skip products")
		return
	}

	products := []*product.Product{
		{Name: "九成新山地车", Description: "骑了半年，无磕碰", Price: 10000, OwnerID: alice.ID, Status: product.StatusListed},
		{Name: "Kindle Paperwhite", Description: "屏幕完好，带保护套", Price: 29900, OwnerID: alice.ID, Status: product.StatusListed},
		{Name: "宿舍小冰箱", Description: "毕业出，自提", Price: 15000, OwnerID: bob.ID, Status: product.StatusListed},
		{Name: "旧吉他", Description: "入门款，送调音器", Price: 8000, OwnerID: bob.ID, Status: product.StatusListed},
	}
	for _, p := range products {
		if err := productRepo.Create(ctx, p); err != nil {
			log.Printf("skip product %s: %v", p.Name, err)
			continue
		}
		log.Printf("product %q created, id=%d price=%d", p.Name, p.ID, p.Price)
	}
}
