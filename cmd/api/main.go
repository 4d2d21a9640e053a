package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/config"
	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("サーバーの初期化に失敗", zap.Error(err))
	}
	if err := app.Run(context.Background()); err != nil {
		logger.Fatal("サーバー起動に失敗", zap.Error(err))
	}
}
