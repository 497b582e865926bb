package main

import (
	"log"

	"github.com/kataras/iris/v12"

	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/logging"
	"github.com/MikuAddict/flea-market-sub000/internal/server"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.Debug)

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("market api listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to run market api: %v", err)
	}
}
