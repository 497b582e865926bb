package server

import (
	"strconv"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
	"github.com/MikuAddict/flea-market-sub000/internal/infra/mq"
	"github.com/MikuAddict/flea-market-sub000/internal/infra/redis"
	"github.com/MikuAddict/flea-market-sub000/internal/logging"
	"github.com/MikuAddict/flea-market-sub000/internal/middleware"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
	"github.com/MikuAddict/flea-market-sub000/internal/service"
)

// writeErr 把业务错误类别映射成 HTTP 状态码
func writeErr(ctx iris.Context, err error) {
	code := 500
	switch apperr.KindOf(err) {
	case apperr.Unauthenticated:
		code = 401
	case apperr.PermissionDenied:
		code = 403
	case apperr.NotFound:
		code = 404
	case apperr.InvalidArgument:
		code = 400
	case apperr.InvalidState:
		code = 409
	}
	ctx.StopWithJSON(code, iris.Map{"code": code, "msg": err.Error()})
}

// identityFrom 取出鉴权中间件写入的调用者身份
func identityFrom(ctx iris.Context) auth.Identity {
	if v := ctx.Values().Get("identity"); v != nil {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

// RegisterRoutes 注册前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)
	log := logging.L()

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	tradeRepo := mysql.NewTradeRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	pointsRepo := mysql.NewPointsRepository(db)
	messageRepo := mysql.NewMessageRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	pointsSvc := service.NewPointsService(db, pointsRepo)
	settlementSvc := service.NewSettlementService(db, tradeRepo, log)
	orderSvc := service.NewOrderService(db, orderRepo, settlementSvc, pointsSvc,
		service.SymmetricPolicy{}, cfg.Points, mqConn, log)
	reviewSvc := service.NewReviewService(db, reviewRepo, settlementSvc, pointsSvc, cfg.Points, log)
	messageSvc := service.NewMessageService(messageRepo)

	// JWT 解析结果缓存，降低热点接口的签名校验开销
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"id": u.ID, "username": u.Username}})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 需要登录的接口：先查缓存，未命中再解析并回填
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, hit, err := tokenCache.Get(ctx.Request().Context(), token)
		if err != nil || !hit {
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			_ = tokenCache.Set(ctx.Request().Context(), token, claims)
		}
		ctx.Values().Set("identity", claims.Identity())
		ctx.Next()
	})

	// ---------- 商品 ----------

	authAPI.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListListed(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	authAPI.Post("/products", func(ctx iris.Context) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       int64  `json:"price"` // 分
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p := &product.Product{Name: req.Name, Description: req.Description, Price: req.Price}
		if err := productSvc.Publish(ctx.Request().Context(), identityFrom(ctx), p); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	authAPI.Get("/products/{id:int64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		limit, _ := strconv.Atoi(ctx.URLParamDefault("limit", "20"))
		list, err := reviewSvc.ListByProduct(ctx.Request().Context(), id, limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 订单 ----------

	authAPI.Post("/orders", middleware.OrderCreateRateLimit(), func(ctx iris.Context) {
		var req struct {
			ProductID     int64 `json:"product_id"`
			PaymentMethod int   `json:"payment_method"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := orderSvc.Create(ctx.Request().Context(), identityFrom(ctx), req.ProductID, req.PaymentMethod)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	authAPI.Get("/orders", func(ctx iris.Context) {
		var status *int
		if s := ctx.URLParam("status"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				status = &v
			}
		}
		page, _ := strconv.Atoi(ctx.URLParamDefault("page", "1"))
		pageSize, _ := strconv.Atoi(ctx.URLParamDefault("page_size", "20"))
		list, err := orderSvc.List(ctx.Request().Context(), identityFrom(ctx), service.ListRequest{
			Side:     ctx.URLParamDefault("side", service.SideBuyer),
			Status:   status,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/orders/statistics", func(ctx iris.Context) {
		stats, err := orderSvc.Statistics(ctx.Request().Context(), identityFrom(ctx))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": stats})
	})

	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.Get(ctx.Request().Context(), identityFrom(ctx), id)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	authAPI.Post("/orders/{id:int64}/pay", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := orderSvc.Pay(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "paid"})
	})

	authAPI.Post("/orders/{id:int64}/cancel", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := orderSvc.Cancel(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "cancelled"})
	})

	authAPI.Post("/orders/{id:int64}/complete", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := orderSvc.Complete(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "completed"})
	})

	// ---------- 评价 ----------

	authAPI.Post("/orders/{id:int64}/review", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Rating  int    `json:"rating"`
			Content string `json:"content"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		rv, err := reviewSvc.Add(ctx.Request().Context(), identityFrom(ctx), id, req.Rating, req.Content)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": rv})
	})

	authAPI.Get("/orders/{id:int64}/review", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		rv, err := reviewSvc.GetByOrder(ctx.Request().Context(), id)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": rv})
	})

	authAPI.Delete("/reviews/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := reviewSvc.Delete(ctx.Request().Context(), identityFrom(ctx), id); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "deleted"})
	})

	// ---------- 交易记录 / 积分 / 通知 ----------

	authAPI.Get("/trades", func(ctx iris.Context) {
		limit, _ := strconv.Atoi(ctx.URLParamDefault("limit", "20"))
		list, err := settlementSvc.ListByUser(ctx.Request().Context(), identityFrom(ctx).UserID, limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/points", func(ctx iris.Context) {
		balance, err := pointsSvc.Balance(ctx.Request().Context(), identityFrom(ctx).UserID)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"balance": balance}})
	})

	authAPI.Get("/points/records", func(ctx iris.Context) {
		limit, _ := strconv.Atoi(ctx.URLParamDefault("limit", "20"))
		list, err := pointsSvc.ListRecords(ctx.Request().Context(), identityFrom(ctx).UserID, limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/messages", func(ctx iris.Context) {
		afterID, _ := strconv.ParseUint(ctx.URLParamDefault("after_id", "0"), 10, 64)
		limit, _ := strconv.Atoi(ctx.URLParamDefault("limit", "50"))
		list, err := messageSvc.ListByUser(ctx.Request().Context(), identityFrom(ctx).UserID, afterID, limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})
}
