package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/expensetrade/backend/internal/config"
	cronrunner "github.com/expensetrade/backend/internal/cron"
	"github.com/expensetrade/backend/internal/handler"
	"github.com/expensetrade/backend/internal/logger"
	"github.com/expensetrade/backend/internal/quotes"
	"github.com/expensetrade/backend/internal/service"
	"github.com/expensetrade/backend/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envOnly := flag.Bool("env-only", false, "skip the config file and read environment only")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	switch cfg.Store.Backend {
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.Store.ProjectID)
		if err != nil {
			log.Fatal("create firestore client", zap.Error(err))
		}
		defer client.Close()
		st = store.NewFirestoreStore(client)
		log.Info("using firestore store", zap.String("project", cfg.Store.ProjectID))
	default:
		st = store.NewMemoryStore()
		log.Info("using in-memory store")
	}

	provider := quotes.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.APIKey)
	alerts := service.NewAlertNotifier(st, cfg.Webhook.URL, cfg.Webhook.Timeout, log)
	svc := service.NewForecastService(st, provider, alerts, cfg, log)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	(&handler.HealthHandler{Store: st}).Register(r)
	(&handler.RecordsHandler{Store: st, Quotes: provider, Logger: log}).Register(r)
	(&handler.ForecastHandler{Service: svc, Logger: log}).Register(r)

	var runner *cronrunner.Runner
	if cfg.Cron.Enabled {
		runner = cronrunner.New(log, ctx)
		if _, err := runner.Add(cfg.Cron.LimitSweep, svc.SweepDailyLimits); err != nil {
			log.Fatal("register limit sweep", zap.Error(err))
		}
		if _, err := runner.Add(cfg.Cron.DailyDigest, svc.SendDailyDigests); err != nil {
			log.Fatal("register daily digest", zap.Error(err))
		}
		runner.Start()
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Owner",
		},
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: h2c.NewHandler(c.Handler(r), &http2.Server{}),
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if runner != nil {
		runner.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}
