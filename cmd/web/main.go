package main

import (
	"log"
	"os"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/kaabmedia/Vdubscards/internal/config"
	"github.com/kaabmedia/Vdubscards/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfgPath := os.Getenv("VDUBS_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	app := iris.New()
	if err := server.RegisterRoutes(app, cfg); err != nil {
		zap.L().Fatal("failed to register routes", zap.Error(err))
	}

	addr := cfg.Server.Addr()
	zap.L().Info("web server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zap.L().Fatal("failed to run web server", zap.Error(err))
	}
}
