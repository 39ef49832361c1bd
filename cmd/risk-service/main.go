package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/gateway/auth"
	"github.com/synaptica-ai/cardiorisk/pkg/gateway/middleware"
	"github.com/synaptica-ai/cardiorisk/pkg/observability/metrics"
	"github.com/synaptica-ai/cardiorisk/pkg/serving"
)

func main() {
	logger.Init()
	cfg := config.Load()

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	service, cleanup, err := serving.Bootstrap(startCtx, cfg, "risk-service")
	cancelStart()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to start risk service")
	}
	defer cleanup()

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods("GET")
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	api.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	if cfg.OIDCIssuer != "" {
		oidc, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to configure OIDC")
		}
		api.Use(middleware.Authenticate(oidc))
		logger.Log.WithField("issuer", oidc.Issuer()).Info("OIDC authentication enabled")
	} else {
		logger.Log.Warn("OIDC issuer not configured, API is unauthenticated")
	}
	serving.NewHTTPHandler(service, cfg.MaxRequestBody).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		info := service.Info()
		logger.Log.WithFields(map[string]interface{}{
			"host":   cfg.ServerHost,
			"port":   cfg.ServerPort,
			"model":  info.Name,
			"layout": info.Layout,
		}).Info("Risk Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Risk Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Risk Service stopped")
}
