package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/goliatone/go-matchcard/internal/app"
	"github.com/goliatone/go-matchcard/internal/httpapi"
	"github.com/goliatone/go-matchcard/pkg/config"
	"github.com/goliatone/go-matchcard/pkg/logging"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla"
)

func main() {
	configPath := flag.String("config", "", "config file (defaults to matchcard.yaml in . or ./config)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "matchcard-server: %v\n", err)
		os.Exit(1)
	}
}

// run wires dependencies, serves until SIGINT/SIGTERM and shuts down within
// the configured grace period.
func run(configPath string) error {
	var options []config.Option
	if configPath != "" {
		options = append(options, config.WithConfigFile(configPath))
	}
	cfg, err := config.Load(options...)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx := context.Background()
	stack, err := app.Build(ctx, cfg, logger, registration.WithObserver(registration.NewMetrics(registry)))
	if err != nil {
		return err
	}

	pages, err := vanilla.New(vanilla.WithTemplatesDir(cfg.Form.TemplatesDir))
	if err != nil {
		return err
	}

	handler, err := httpapi.New(stack.Service, pages,
		httpapi.WithLogger(logger),
		httpapi.WithTheme(stack.Theme),
		httpapi.WithContact(vanilla.Contact{
			Name:      cfg.Contact.Name,
			WeChat:    cfg.Contact.WeChat,
			QRCodeURL: cfg.Contact.QRCodeURL,
			DeepLink:  cfg.Contact.DeepLink,
		}),
		httpapi.WithMetrics(httpapi.NewMetrics(registry)),
		httpapi.WithGatherer(registry),
		httpapi.WithRateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		httpapi.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		httpapi.WithSecureCookies(cfg.Server.SecureCookies),
		httpapi.WithLocales(localesFor(cfg.App.Locale, stack.Catalog.Locales())...),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting matchcard server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// localesFor puts the configured default first, followed by the other
// catalog locales.
func localesFor(defaultLocale string, available []string) []string {
	out := []string{defaultLocale}
	for _, locale := range available {
		if locale != defaultLocale {
			out = append(out, locale)
		}
	}
	return out
}
