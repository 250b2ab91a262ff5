// Package app wires the engine's components from configuration. Both the
// HTTP server and the admin CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"remit/internal/config"
	"remit/internal/events"
	"remit/internal/metrics"
	"remit/internal/repositories"
	"remit/internal/repositories/cache"
	"remit/internal/services/compliance"
	"remit/internal/services/corridor"
	"remit/internal/services/currency"
	"remit/internal/services/partner"
	"remit/internal/services/payment"
	"remit/internal/services/rates"
	"remit/internal/services/reporting"
	"remit/internal/services/transfer"

	"gorm.io/gorm"
)

const (
	rateMirrorTTL      = 10 * time.Minute
	referenceSpread    = 0.005
	simulatedLatency   = 150 * time.Millisecond
	sweepTimeout       = time.Minute
	shutdownStepBudget = 5 * time.Second
)

// Engine holds every long-lived component of a running instance.
type Engine struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.PrometheusCollector

	DB    *gorm.DB
	Redis *cache.CacheService
	Store repositories.Store

	Currencies *currency.Registry
	Corridors  *corridor.Catalog
	Partners   *partner.Directory
	Rates      *rates.Cache
	Scheduler  *rates.Scheduler
	Events     events.Publisher

	Transfers transfer.Service
	Reports   *reporting.Aggregator
}

// Build connects the backing stores, loads reference data and assembles the
// orchestrator. The rate sweep is not started; call StartBackground.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Engine, error) {
	e := &Engine{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewPrometheusCollector(),
	}

	if err := e.openStore(cfg); err != nil {
		return nil, err
	}

	e.Currencies = currency.NewRegistry(e.Store.Currencies, logger)
	e.Corridors = corridor.NewCatalog(e.Store.Corridors, logger)
	e.Partners = partner.NewDirectory(e.Store.Partners, logger)
	if err := e.loadReferenceData(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}

	e.Redis = connectRedis(ctx, cfg, logger)
	e.Rates = rates.NewCache(e.rateProvider(), e.Currencies, rates.Config{Staleness: cfg.RateStaleness}, e.Metrics, logger)
	if e.Redis != nil {
		e.Rates.WithMirror(cache.NewRateStore(e.Redis))
	}
	e.Scheduler = rates.NewScheduler(e.Rates, cfg.RateRefreshSchedule, sweepTimeout, logger)

	verifier, refunder := e.paymentBackend()
	e.Events = events.Connect(cfg.RabbitMQURL, logger)
	e.Transfers = transfer.NewService(transfer.Dependencies{
		Transfers:  e.Store.Transfers,
		Corridors:  e.Corridors,
		Rates:      e.Rates,
		Rounder:    e.Currencies,
		Compliance: e.compliancePipeline(),
		Partners:   e.Partners,
		Dispatcher: partner.NewDispatcher(e.partnerGateway(), cfg.PartnerTimeout, e.Metrics, logger),
		Verifier:   verifier,
		Refunder:   refunder,
		Events:     e.Events,
		Metrics:    e.Metrics,
		Logger:     logger,
	})
	e.Reports = reporting.NewAggregator(e.Store.Transfers, cfg.ReportCacheTTL, e.Metrics, logger)
	return e, nil
}

func (e *Engine) openStore(cfg config.Config) error {
	store, db, err := OpenStore(cfg, e.Logger)
	if err != nil {
		return err
	}
	e.Store, e.DB = store, db
	return nil
}

// OpenStore returns the repositories selected by cfg.Storage. The *gorm.DB
// is nil for memory storage.
func OpenStore(cfg config.Config, logger *slog.Logger) (repositories.Store, *gorm.DB, error) {
	if cfg.Storage == "memory" {
		logger.Warn("using in-memory storage; data is lost on restart")
		return repositories.NewMemoryStore(), nil, nil
	}

	db, err := repositories.Open(cfg, logger)
	if err != nil {
		return repositories.Store{}, nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		_ = repositories.Close(db)
		return repositories.Store{}, nil, fmt.Errorf("migrate schema: %w", err)
	}
	return repositories.NewGormStore(db), db, nil
}

// loadReferenceData reads the catalog from the store, seeding it from the
// YAML catalog when the store holds no currencies yet.
func (e *Engine) loadReferenceData(ctx context.Context) error {
	if err := e.Currencies.Load(ctx); err != nil {
		return err
	}
	if len(e.Currencies.List()) == 0 {
		catalog, err := config.LoadCatalog(e.Config.CatalogPath)
		if err != nil {
			return err
		}
		e.Logger.Info("store is empty; seeding catalog", "path", e.Config.CatalogPath)
		return Seed(ctx, catalog, e.Currencies, e.Corridors, e.Partners)
	}
	if err := e.Corridors.Load(ctx); err != nil {
		return err
	}
	return e.Partners.Load(ctx)
}

// Seed upserts every catalog entry. Entries already stored but absent from
// the catalog are left alone.
func Seed(ctx context.Context, catalog *config.Catalog, currencies *currency.Registry, corridors *corridor.Catalog, partners *partner.Directory) error {
	if err := currencies.Reload(ctx, catalog.CurrencyModels()); err != nil {
		return fmt.Errorf("seed currencies: %w", err)
	}
	for _, c := range catalog.CorridorModels() {
		if err := corridors.Upsert(ctx, c); err != nil {
			return fmt.Errorf("seed corridor %s: %w", c.Key(), err)
		}
	}
	for _, p := range catalog.PartnerModels() {
		if err := partners.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed partner %s: %w", p.ID, err)
		}
	}
	return nil
}

func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) *cache.CacheService {
	if cfg.RedisHost == "" {
		return nil
	}
	client := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	svc := cache.NewCacheService(client, rateMirrorTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := svc.HealthCheck(pingCtx); err != nil {
		logger.Warn("redis unavailable; rates are cached in-process only", "error", err)
		_ = svc.Close()
		return nil
	}
	logger.Info("redis connected", "host", cfg.RedisHost)
	return svc
}

func (e *Engine) rateProvider() rates.Provider {
	if e.Config.RateProviderURL == "" {
		return rates.NewReferenceProvider(e.Currencies, referenceSpread)
	}
	return rates.NewHTTPProvider(
		e.Config.RateProviderURL,
		config.GetEnv("RATE_PROVIDER_API_KEY", ""),
		e.Config.RateProviderRPS,
		e.Config.PartnerTimeout,
	)
}

func (e *Engine) partnerGateway() partner.Gateway {
	if e.Config.PartnerGateway == "http" {
		return partner.NewHTTPGateway(config.GetEnv("PARTNER_API_KEY", ""), e.Config.PartnerTimeout)
	}
	return partner.NewSimulatedGateway(uint64(time.Now().UnixNano()), simulatedLatency)
}

func (e *Engine) paymentBackend() (payment.Verifier, payment.Refunder) {
	if e.Config.PaymentVerifier == "stripe" {
		v := payment.NewStripeVerifier(e.Config.StripeSecretKey, e.Currencies.Decimals, e.Logger)
		return v, v
	}
	e.Logger.Warn("using static payment verifier")
	return payment.StaticVerifier{}, payment.StaticVerifier{}
}

// compliancePipeline builds the screeners from the catalog's screening
// lists. A missing catalog file yields empty watchlists.
func (e *Engine) compliancePipeline() *compliance.Pipeline {
	var lists compliance.Watchlists
	if catalog, err := config.LoadCatalog(e.Config.CatalogPath); err == nil {
		lists = compliance.Watchlists{
			SanctionedNames:    catalog.Screening.SanctionedNames,
			EmbargoedCountries: catalog.Screening.EmbargoedCountries,
			PEPNames:           catalog.Screening.PEPNames,
		}
	} else {
		e.Logger.Warn("screening lists unavailable", "error", err)
	}

	cfg := compliance.Config{
		CheckTimeout:          e.Config.ComplianceCheckTimeout,
		TaxReportingThreshold: e.Config.TaxReportingThreshold,
	}
	return compliance.NewPipeline(cfg, e.Currencies, compliance.DefaultScreeners(e.Currencies, lists), e.Metrics, e.Logger)
}

// StartBackground primes the rate cache and starts the refresh sweep.
func (e *Engine) StartBackground(ctx context.Context) error {
	refreshed, failed := e.Rates.RefreshAll(ctx)
	e.Logger.Info("rate cache primed", "refreshed", refreshed, "failed", failed)
	return e.Scheduler.Start()
}

// HealthChecks returns a ping per external dependency in use.
func (e *Engine) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if e.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := e.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if e.Redis != nil {
		checks["redis"] = e.Redis.HealthCheck
	}
	return checks
}

// Close stops the sweep and releases connections. It is safe to call on a
// partially built engine.
func (e *Engine) Close() error {
	var errs []error
	if e.Scheduler != nil {
		select {
		case <-e.Scheduler.Stop().Done():
		case <-time.After(shutdownStepBudget):
			e.Logger.Warn("rate sweep did not stop in time")
		}
	}
	if e.Events != nil {
		e.Events.Close()
	}
	if e.Redis != nil {
		if err := e.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if e.DB != nil {
		if err := repositories.Close(e.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
