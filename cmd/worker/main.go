package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tutorbooking/config"
	"github.com/Domenick1991/tutorbooking/internal/app"
	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"github.com/Domenick1991/tutorbooking/internal/notify"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EventsTopic, logger)
	defer consumer.Close()

	sender := notify.NewSender(logger.Named("notify"))

	logger.Info("worker started",
		zap.String("topic", cfg.Kafka.EventsTopic),
		zap.String("group_id", cfg.Kafka.GroupID))
	if err := consumer.Consume(ctx, sender.Send); err != nil {
		logger.Error("consumer stopped", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}
