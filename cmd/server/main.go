package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"raffle-5050/internal/config"
	"raffle-5050/internal/db"
	"raffle-5050/internal/handlers"
	"raffle-5050/internal/ledger"
	"raffle-5050/internal/logger"
	"raffle-5050/internal/middleware"
	"raffle-5050/internal/models"
	"raffle-5050/internal/services"
)

func main() {
	// 0. Load config, logging to the console until it is known
	_ = logger.Initialize(logger.Configuration{Level: "info", Console: true})
	cfg, err := config.LoadServer()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Initialize(cfg.Log.Logger()); err != nil {
		logger.Fatal("logger init failed", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ledger storage
	var store ledger.Store
	if strings.EqualFold(cfg.DatabaseURL, "memory") {
		logger.Warn("using in-memory ledger, registrations are lost on restart")
		store = ledger.NewMemoryStore()
	} else {
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabaseAuthToken)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer conn.Close()
		logger.Info("database initialized")
		store = ledger.NewSQLStore(conn)
	}

	// 2. Telegram bot
	adminIDs := middleware.ParseAdminIDs(cfg.AdminTelegramIDs)
	var opts []ledger.Option
	if cfg.TelegramToken == "" {
		logger.Warn("TELEGRAM_TOKEN not set, bot notifications disabled")
	} else {
		stats := func(ctx context.Context) (models.AggregateStats, error) {
			pool, err := store.Pool(ctx)
			return pool.Stats(), err
		}
		notifier, err := services.InitBot(ctx, cfg.TelegramToken, adminIDs, stats)
		if err != nil {
			logger.Warn("failed to init telegram bot", zap.Error(err))
		} else {
			opts = append(opts, ledger.WithNotifier(notifier))
		}
	}
	svc := ledger.New(store, opts...)

	// 3. Router
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, time.Minute)
	routerOpts := handlers.RouterOptions{
		RateLimit: limiter.Handler,
	}
	if cfg.StaffPassword == "" && cfg.TelegramToken == "" {
		logger.Warn("STAFF_PASSWORD not set, register and draw are open to anyone")
	} else {
		routerOpts.StaffAuth = middleware.StaffAuth(middleware.StaffAuthConfig{
			User:     cfg.StaffUser,
			Password: cfg.StaffPassword,
			BotToken: cfg.TelegramToken,
			AdminIDs: adminIDs,
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(handlers.New(svc), routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Start
	go func() {
		logger.Info("ledger listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
