// ====================================
// File: cmd/sniper/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/bot"
	"github.com/rovshanmuradov/gmgn-sniper/internal/config"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to application config")
	flag.Parse()

	// Setup context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Close() }()

	runner := bot.NewRunner(cfg, log)
	if err := runner.Initialize(); err != nil {
		log.Fatal("💥 Failed to initialize sniper", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.LogError("Sniper execution error", err)
	}
}
