package server

import (
	"strconv"

	"github.com/kataras/iris/v12"

	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
	"github.com/MikuAddict/flea-market-sub000/internal/logging"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
	"github.com/MikuAddict/flea-market-sub000/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台 Web 服务分离；所有接口要求管理员角色。
// 管理员对订单与交易记录是只读审计视角，不能代替买卖双方推进状态
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	log := logging.L()

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	tradeRepo := mysql.NewTradeRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	pointsRepo := mysql.NewPointsRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	pointsSvc := service.NewPointsService(db, pointsRepo)
	settlementSvc := service.NewSettlementService(db, tradeRepo, log)
	orderSvc := service.NewOrderService(db, orderRepo, settlementSvc, pointsSvc,
		service.SymmetricPolicy{}, cfg.Points, nil, log)
	reviewSvc := service.NewReviewService(db, reviewRepo, settlementSvc, pointsSvc, cfg.Points, log)

	api := app.Party("/api", func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, err := auth.ParseToken(&cfg.JWT, token)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
			return
		}
		id := claims.Identity()
		if !id.IsAdmin() {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "仅管理员可访问后台"})
			return
		}
		ctx.Values().Set("identity", id)
		ctx.Next()
	})

	// ---------- 订单审计 ----------

	api.Get("/orders", func(ctx iris.Context) {
		var status *int
		if s := ctx.URLParam("status"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				status = &v
			}
		}
		buyerID, _ := strconv.ParseInt(ctx.URLParamDefault("buyer_id", "0"), 10, 64)
		sellerID, _ := strconv.ParseInt(ctx.URLParamDefault("seller_id", "0"), 10, 64)
		page, _ := strconv.Atoi(ctx.URLParamDefault("page", "1"))
		pageSize, _ := strconv.Atoi(ctx.URLParamDefault("page_size", "20"))

		list, err := orderSvc.List(ctx.Request().Context(), identityFrom(ctx), service.ListRequest{
			Status:   status,
			Page:     page,
			PageSize: pageSize,
			BuyerID:  buyerID,
			SellerID: sellerID,
		})
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.Get(ctx.Request().Context(), identityFrom(ctx), id)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// ---------- 交易记录审计 ----------

	api.Get("/trades", func(ctx iris.Context) {
		limit, _ := strconv.Atoi(ctx.URLParamDefault("limit", "50"))
		list, err := settlementSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 评价管理 ----------

	api.Delete("/reviews/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := reviewSvc.Delete(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "deleted"})
	})

	// ---------- 商品管理 ----------

	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/products/{id:int64}/delist", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delist(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "delisted"})
	})

	// ---------- 用户管理 ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := userSvc.ListAll(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/users/{id:int64}/ban", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := userSvc.SetRole(ctx.Request().Context(), identityFrom(ctx), id, user.RoleBan); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "banned"})
	})

	api.Post("/users/{id:int64}/unban", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := userSvc.SetRole(ctx.Request().Context(), identityFrom(ctx), id, user.RoleUser); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "unbanned"})
	})

	// ---------- 监控 ----------

	api.Get("/monitor", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})
}
