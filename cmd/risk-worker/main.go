package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
	"github.com/synaptica-ai/cardiorisk/pkg/common/kafka"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/serving"
)

func main() {
	logger.Init()
	cfg := config.Load()

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	service, cleanup, err := serving.Bootstrap(startCtx, cfg, "risk-worker")
	cancelStart()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to start risk worker")
	}
	defer cleanup()

	consumer := kafka.NewConsumer(cfg, cfg.IntakeTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down Risk Worker...")
		cancel()
	}()

	logger.Log.WithFields(map[string]interface{}{
		"topic":   cfg.IntakeTopic,
		"group":   cfg.KafkaGroupID,
		"publish": cfg.AssessmentTopic,
	}).Info("Risk Worker started")

	if err := consumer.Consume(ctx, serving.IntakeHandler(service)); err != nil && err != context.Canceled {
		logger.Log.WithError(err).Error("Consumer stopped")
	}

	logger.Log.Info("Risk Worker stopped")
}
