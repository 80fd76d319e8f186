// File: pos-catalog-browser/cmd/posbrowser/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-catalog-browser/internal/browser"
	"pos-catalog-browser/internal/catalog"
	"pos-catalog-browser/internal/config"
	"pos-catalog-browser/internal/imageresolver"
	"pos-catalog-browser/internal/logging"
	"pos-catalog-browser/internal/notify"
	"pos-catalog-browser/internal/sale"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "posbrowser:", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()

	cfg, err := config.LoadBrowser()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel, "POSBrowser")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	money, err := browser.NewMoney(cfg.Locale, cfg.Currency)
	if err != nil {
		return err
	}

	apiClient := &http.Client{Timeout: 30 * time.Second}
	resolver := imageresolver.NewResolver(cfg.ImageBaseURL)
	products := catalog.New(catalog.NewHTTPLoader(cfg.APIBaseURL, apiClient), logger)
	center := notify.NewCenter(cfg.NotificationTTL, logger)
	workflow := sale.NewWorkflow(products, sale.NewClient(cfg.APIBaseURL, apiClient, logger), center, resolver, logger)
	prober := imageresolver.NewProber(nil, cfg.ImageProbeTimeout, logger)

	logger.Info("starting POS browser",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("image_base_url", cfg.ImageBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := browser.New(products, workflow, center, resolver, prober, money, os.Stdout, logger)
	if err := b.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("POS browser stopped")
	return nil
}
