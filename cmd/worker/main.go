package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/email"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log.Level).With("component", "worker")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(log)
	log.Info("consuming notifications", "topic", cfg.Kafka.NotificationsTopic, "group_id", cfg.Kafka.GroupID)

	err = consumer.ConsumeEvents(ctx, sender.Send, func(msg kafkaGo.Message, err error) {
		log.Warn("skipping undecodable message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", "error", err)
	}
	log.Info("worker stopped")
}
