package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FinTrain/internal/di"
	"FinTrain/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if len(cfg.Finnhub.Symbols) == 0 {
		log.Fatalf("finnhub.symbols is empty")
	}

	app, cleanup, err := di.InitializeCollectorApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Collect(ctx); err != nil {
		log.Printf("app error: %v", err)
		stop()
		cleanup()
		os.Exit(1)
	}
}
