package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"symbolgen/pkg/config"
	"symbolgen/pkg/constituents"
	"symbolgen/pkg/generator"
	"symbolgen/pkg/logging"
	"symbolgen/pkg/marketdata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[SYMBOLS] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Debug("[SYMBOLS] .env file not found, using process environment")
	}

	selection, err := generator.ParseSelection(cfg.Selection)
	if err != nil {
		return err
	}

	provider, err := marketdata.NewProvider(cfg.Provider, marketdata.AlpacaConfig{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		DataURL:   cfg.Alpaca.DataURL,
		Feed:      cfg.Alpaca.Feed,
		Lookback:  cfg.Lookback,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
	}, logger)
	if err != nil {
		return err
	}

	source := constituents.NewWikipedia(cfg.SourceURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)

	gen := generator.New(source, provider, generator.Options{
		OutputPath: cfg.OutputPath,
		StockLimit: cfg.StockLimit,
		Selection:  selection,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("[SYMBOLS] Starting symbol generator",
		zap.String("provider", provider.Name()),
		zap.String("output", cfg.OutputPath),
		zap.Duration("interval", cfg.Interval),
	)
	return gen.Run(ctx, cfg.Interval)
}
