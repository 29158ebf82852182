// Package main is the entry point for the market-data edge proxy.
//
// The proxy sits between dashboard front-ends and third-party financial
// data providers (Finnhub, SEC EDGAR). It hides upstream API keys, enforces
// an origin allow-list and per-IP rate limits, and caches normalized
// responses with per-route TTLs. Each instance keeps independent in-memory
// state; there is no cross-instance coordination.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/clients/edgar"
	"github.com/quotedesk/edgeproxy/internal/clients/finnhub"
	"github.com/quotedesk/edgeproxy/internal/config"
	"github.com/quotedesk/edgeproxy/internal/modules/darkpool"
	"github.com/quotedesk/edgeproxy/internal/modules/filings"
	"github.com/quotedesk/edgeproxy/internal/modules/quote"
	"github.com/quotedesk/edgeproxy/internal/modules/shortinterest"
	"github.com/quotedesk/edgeproxy/internal/ratelimit"
	"github.com/quotedesk/edgeproxy/internal/scheduler"
	"github.com/quotedesk/edgeproxy/internal/server"
	"github.com/quotedesk/edgeproxy/pkg/logger"
)

const (
	maxRequestsPerWindow = 120
	rateLimitWindow      = time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting market-data proxy")

	if cfg.FinnhubAPIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY not set; quote and metrics routes will return configuration errors")
	}

	// Upstream clients
	finnhubClient := finnhub.NewClient(cfg.FinnhubAPIKey, log)
	edgarClient := edgar.NewClient(cfg.SECUserAgent, log)

	// Per-route caches, each with its own TTL and entry cap
	quoteCache := cache.New(quote.CacheTTL, quote.CacheMaxEntries)
	filingsCache := cache.New(filings.CacheTTL, filings.CacheMaxEntries)
	shortInterestCache := cache.New(shortinterest.CacheTTL, shortinterest.CacheMaxEntries)
	darkPoolCache := cache.New(darkpool.CacheTTL, darkpool.CacheMaxEntries)

	// Services
	quoteService := quote.NewService(finnhubClient, quoteCache, log)
	filingsService := filings.NewService(edgarClient, filingsCache, log)
	shortInterestService := shortinterest.NewService(finnhubClient, shortInterestCache, log)
	darkPoolService := darkpool.NewService(finnhubClient, darkPoolCache, log)

	// Rate limiter shared by all routes
	limiter := ratelimit.New(maxRequestsPerWindow, rateLimitWindow)

	systemHandlers := server.NewSystemHandlers(map[string]*cache.Cache{
		"quote":          quoteCache,
		"filings":        filingsCache,
		"short_interest": shortInterestCache,
		"dark_pool":      darkPoolCache,
	}, limiter, log)

	srv := server.New(server.Config{
		Log:                  log,
		Config:               cfg,
		Limiter:              limiter,
		SystemHandlers:       systemHandlers,
		QuoteHandler:         quote.NewHandler(quoteService, finnhubClient.HasAPIKey(), log),
		FilingsHandler:       filings.NewHandler(filingsService, log),
		ShortInterestHandler: shortinterest.NewHandler(shortInterestService, log),
		DarkPoolHandler:      darkpool.NewHandler(darkPoolService, log),
	})

	// Background refresh keeps the slow short-interest route warm
	sched := scheduler.New(log)
	if cfg.FinnhubAPIKey != "" {
		if err := sched.AddJob("@hourly", shortinterest.NewRefreshJob(shortInterestService)); err != nil {
			log.Error().Err(err).Msg("Failed to register short-interest refresh job")
		}
	}
	sched.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server stopped")
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
