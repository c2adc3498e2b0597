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

	"github.com/dukerupert/vatcheck/internal"
	"github.com/dukerupert/vatcheck/internal/address"
	"github.com/dukerupert/vatcheck/internal/audit"
	"github.com/dukerupert/vatcheck/internal/billing"
	"github.com/dukerupert/vatcheck/internal/handler/api"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/postgres"
	"github.com/dukerupert/vatcheck/internal/router"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/dukerupert/vatcheck/internal/vies"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// ==========================================================================
	// Metrics
	// ==========================================================================

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	vatMetrics := telemetry.NewVATMetrics(cfg.Metrics.Namespace, reg)
	httpMetrics := middleware.NewMetrics(cfg.Metrics.Namespace, reg, reg)

	// ==========================================================================
	// Settings and storage
	// ==========================================================================

	var (
		src       settings.Source = settings.Static(cfg.VAT)
		addresses *postgres.AddressStore
		ping      func(context.Context) error
	)
	if cfg.DatabaseUrl != "" {
		logger.Info().Msg("Connecting to database...")
		pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()
		logger.Info().Msg("Database connection established")

		logger.Info().Msg("Running database migrations...")
		if err := internal.RunPoolMigrations(pool); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info().Msg("Database migrations completed successfully")

		src = postgres.NewSettingsStore(pool)
		addresses = postgres.NewAddressStore(pool)
		ping = pool.Ping
	} else {
		logger.Warn().Msg("DATABASE_URL not set: using static VAT settings, address API disabled")
	}

	// ==========================================================================
	// Audit sinks
	// ==========================================================================

	sinks := audit.Multi{audit.LogSink{Logger: logger}}
	if telemetry.IsEnabled() {
		sinks = append(sinks, audit.SentrySink{})
	}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("vatcheck"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn().Err(err).Msg("nats disconnected")
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Drain()
		sinks = append(sinks, audit.NewNATSSink(nc, cfg.NATS.Subject))
		logger.Info().Str("subject", cfg.NATS.Subject).Msg("Publishing VAT audit events to NATS")
	}

	// ==========================================================================
	// VAT validation
	// ==========================================================================

	pause := cfg.VIES.Pause
	if pause == 0 {
		pause = -1
	}
	registry := vies.New(vies.Config{
		Endpoint: cfg.VIES.Endpoint,
		Timeout:  cfg.VIES.Timeout,
		Attempts: cfg.VIES.Attempts,
		Pause:    pause,
		Logger:   logger,
		Metrics:  vatMetrics,
	})

	validator := vat.NewValidator(registry,
		vat.WithAuditor(audit.NewRecorder(sinks, logger, vatMetrics)),
		vat.WithLogger(logger),
		vat.WithMetrics(vatMetrics),
	)

	// ==========================================================================
	// Handlers and router
	// ==========================================================================

	calculator := tax.NewNoTaxCalculator()
	if cfg.TaxRate > 0 {
		calculator = tax.NewPercentageCalculator(cfg.TaxRate)
	}

	routes := router.Config{
		Logger:   logger,
		Metrics:  httpMetrics,
		VAT:      api.NewVATHandler(validator, src, logger),
		Settings: api.NewSettingsHandler(src, logger),
		Tax:      api.NewTaxHandler(tax.NewVATExemptCalculator(calculator, src)),
		Ping:     ping,
	}

	if addresses != nil {
		var sync api.ExemptionSyncer
		if cfg.Stripe.SecretKey != "" {
			s, err := billing.NewTaxExemptionSync(cfg.Stripe.SecretKey, logger, vatMetrics)
			if err != nil {
				return fmt.Errorf("stripe initialization failed: %w", err)
			}
			sync = s
			logger.Info().Msg("Stripe tax exemption sync enabled")
		}

		routes.Addresses = api.NewAddressHandler(address.NewBasicValidator(), validator, addresses, src, sync, logger)
	}

	e := router.New(routes)

	// ==========================================================================
	// Serve
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
