package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"raffle-5050/internal/config"
	"raffle-5050/internal/kiosk"
	"raffle-5050/internal/ledgerclient"
	"raffle-5050/internal/logger"
)

func main() {
	_ = logger.Initialize(logger.Configuration{Level: "warn", Console: true})
	cfg, err := config.LoadKiosk()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ledgerURL := flag.String("ledger", cfg.LedgerURL, "ledger service base URL")
	flag.Parse()

	// The terminal is the UI; keep log lines off it unless a file is set.
	logCfg := cfg.Log.Logger()
	if logCfg.LogFile != "" {
		logCfg.Console = false
	}
	if err := logger.Initialize(logCfg); err != nil {
		logger.Fatal("logger init failed", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ledgerclient.NewHTTPClient(ledgerclient.Config{
		BaseURL:  *ledgerURL,
		User:     cfg.StaffUser,
		Password: cfg.StaffPassword,
		Timeout:  cfg.Timeout,
	})

	app := kiosk.New(client, os.Stdin, os.Stdout, kiosk.Config{Organization: cfg.Organization})
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("kiosk stopped", zap.Error(err))
	}
}
