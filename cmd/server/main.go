package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/routinematch/backend/config"
	httpDelivery "github.com/routinematch/backend/internal/delivery/http"
	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/infrastructure/cache"
	"github.com/routinematch/backend/internal/infrastructure/imagerelay"
	"github.com/routinematch/backend/internal/infrastructure/leads"
	"github.com/routinematch/backend/internal/infrastructure/payment"
	"github.com/routinematch/backend/internal/infrastructure/vtex"
	"github.com/routinematch/backend/internal/logging"
	"github.com/routinematch/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.BaseURL).
		Msg("Starting RoutineMatch backend")

	// Catalog search, optionally behind the TTL cache
	var searcher domain.CatalogSearcher = vtex.NewClient(vtex.Config{
		BaseURL:          cfg.Catalog.BaseURL,
		PageSize:         cfg.Catalog.PageSize,
		OrderBy:          cfg.Catalog.OrderBy,
		Timeout:          cfg.Catalog.Timeout,
		RequestsPerSec:   cfg.Catalog.RequestsPerSec,
		Burst:            cfg.Catalog.Burst,
		BreakerFailures:  cfg.Catalog.BreakerFailures,
		BreakerOpenDelay: cfg.Catalog.BreakerOpenDelay,
	})
	if cfg.Cache.Enabled {
		memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
		defer memoryCache.Close()
		searcher = cache.NewCatalogCache(searcher, memoryCache, cfg.Cache.TTL)
		logging.Info().Dur("ttl", cfg.Cache.TTL).Msg("Catalog cache enabled")
	}

	recommendations, err := usecase.NewRecommendationService(searcher, usecase.RecommendationConfig{
		Ruleset:              usecase.DefaultRuleset(),
		Bands:                cfg.Budget.Bands,
		BudgetPolicy:         usecase.BudgetPolicy(cfg.Budget.Policy),
		ExhaustionPolicy:     usecase.ExhaustionPolicy(cfg.Recommend.ExhaustionPolicy),
		QueryTimeout:         cfg.Recommend.QueryTimeout,
		SufficiencyThreshold: cfg.Recommend.SufficiencyThreshold,
		MaxConcurrency:       cfg.Recommend.MaxConcurrency,
		StoreBaseURL:         cfg.Catalog.BaseURL,
		StoreDomain:          cfg.Catalog.StoreDomain,
		DefaultBrand:         cfg.Catalog.DefaultBrand,
		AffiliateParams:      cfg.Affiliate.ParamMap(),
		ImageRelayURL:        cfg.Images.RelayPath,
		FallbackPrice:        cfg.Recommend.FallbackPrice,
		IDPrefix:             cfg.Recommend.IDPrefix,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation service")
	}
	logging.Info().
		Str("budget_policy", cfg.Budget.Policy).
		Str("exhaustion_policy", cfg.Recommend.ExhaustionPolicy).
		Int("bands", recommendations.Ladder().Len()).
		Msg("Recommendation pipeline ready")

	charges := newChargeService(cfg)
	leadSink := newLeadSink(cfg)

	images := imagerelay.NewFetcher(imagerelay.Config{
		Timeout:      cfg.Images.Timeout,
		MaxBytes:     cfg.Images.MaxBytes,
		AllowedHosts: cfg.Images.AllowedHosts,
	})

	handler := httpDelivery.NewHandler(recommendations, charges, leadSink, images, httpDelivery.HandlerConfig{
		FakePayments:      cfg.Payment.Fake,
		ChargeAmount:      cfg.Payment.DefaultAmount,
		ChargeDescription: cfg.Payment.DefaultDescription,
	})
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("Server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Server stopped")
}

// newChargeService returns nil when neither fake mode nor a provider token is configured
func newChargeService(cfg *config.Config) domain.ChargeService {
	if cfg.Payment.Fake {
		logging.Warn().Msg("PIX charges are fake (payment.fake=true)")
		return payment.NewFakeGateway()
	}
	if !cfg.PaymentsEnabled() {
		logging.Warn().Msg("PIX charges disabled: no access token")
		return nil
	}
	client, err := payment.NewMercadoPagoClient(payment.MercadoPagoConfig{
		BaseURL:     cfg.Payment.BaseURL,
		AccessToken: cfg.Payment.AccessToken,
		Timeout:     cfg.Payment.Timeout,
	})
	if err != nil {
		logging.Warn().Err(err).Msg("PIX charges disabled")
		return nil
	}
	return client
}

// newLeadSink returns nil when no webhook is configured
func newLeadSink(cfg *config.Config) domain.LeadSink {
	if !cfg.LeadsEnabled() {
		logging.Warn().Msg("Lead capture disabled: no webhook url")
		return nil
	}
	sink, err := leads.NewWebhookSink(leads.WebhookConfig{
		URL:     cfg.Leads.WebhookURL,
		Timeout: cfg.Leads.Timeout,
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Lead capture disabled")
		return nil
	}
	return sink
}
