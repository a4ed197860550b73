package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvicentini/dispensa/internal/auth"
	"github.com/mvicentini/dispensa/internal/config"
	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/db"
	"github.com/mvicentini/dispensa/internal/invite"
	"github.com/mvicentini/dispensa/internal/logger"
	"github.com/mvicentini/dispensa/internal/middleware"
	"github.com/mvicentini/dispensa/internal/notify"
	"github.com/mvicentini/dispensa/internal/realtime"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Mongo.URI == "" {
		log.Fatal("MONGODB_URI must be set")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("failed to connect to DB", "error", err)
	}
	defer func() {
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", "error", err)
	}

	lists := data.NewListsStore(dbClient.ListsCollection())
	requests := data.NewRequestsStore(dbClient.RequestsCollection())

	// Notifications go to Kafka when brokers are configured, otherwise to
	// the log. Either way delivery stays best-effort.
	var sink notify.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			_ = kafkaSink.Close()
		}()
		sink = kafkaSink
		log.Info("notifications via kafka", "topic", cfg.Kafka.Topic)
	} else {
		sink = notify.NewLogSink(log)
		log.Info("no kafka brokers configured, notifications go to the log")
	}

	invites := invite.NewManager(requests, lists, sink, log)
	jwtMgr := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	hub := realtime.NewHub()

	limiter := middleware.NewLimiterStore(cfg.RateLimit.RPM, cfg.RateLimit.Burst, time.Minute)
	defer limiter.Stop()

	srv := newServer(lists, invites, hub, log)
	router := setupRouter(srv, jwtMgr, limiter, cfg)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server exit", "error", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
