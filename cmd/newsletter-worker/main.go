package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/kaabmedia/Vdubscards/internal/config"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/subscriber"
	"github.com/kaabmedia/Vdubscards/internal/infra/mq"
	"github.com/kaabmedia/Vdubscards/internal/repository/mysql"
)

// Drains newsletter signup events from the queue into MySQL. The API
// publishes best-effort; this worker is the durable side of signups.
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

	db := mysql.Init(&cfg.MySQL)
	repo := mysql.NewSubscriberRepository(db)

	deliveries, conn, err := mq.Consume(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		zap.L().Fatal("failed to consume queue", zap.Error(err))
	}
	defer conn.Close()

	zap.L().Info("newsletter worker consuming", zap.String("queue", cfg.RabbitMQ.Queue))

	ctx := context.Background()
	for d := range deliveries {
		var ev subscriber.SignupEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			zap.L().Warn("dropping malformed signup event", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		sub := &subscriber.Subscriber{
			Email:  ev.Email,
			Topic:  ev.Topic,
			Source: ev.Source,
		}
		if err := repo.Upsert(ctx, sub); err != nil {
			zap.L().Error("subscriber upsert failed",
				zap.String("event", ev.ID), zap.Error(err))
			_ = d.Nack(false, true)
			continue
		}
		_ = d.Ack(false)
	}
}
