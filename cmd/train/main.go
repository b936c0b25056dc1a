package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FinTrain/internal/di"
	"FinTrain/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [SYMBOL]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if symbol := flag.Arg(0); symbol != "" {
		cfg.SetSymbol(symbol)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeTrainingApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, err = app.RunTraining(ctx)
	stop()
	cleanup()

	if err != nil {
		log.Printf("training failed: %v", err)
		os.Exit(1)
	}
}
