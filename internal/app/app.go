// Package app assembles the registration stack from configuration. Both
// binaries share it so the server and the terminal flow stay identical.
package app

import (
	"context"
	"fmt"
	"os"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-matchcard"
	"github.com/goliatone/go-matchcard/pkg/card"
	"github.com/goliatone/go-matchcard/pkg/config"
	"github.com/goliatone/go-matchcard/pkg/i18n"
	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
	"github.com/goliatone/go-matchcard/pkg/orchestrator"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/render"
)

// App holds the wired components.
type App struct {
	Config       config.Config
	Catalog      *i18n.Catalog
	Orchestrator *orchestrator.Orchestrator
	Theme        *theme.RendererConfig
	Service      *registration.Service
}

// Build wires catalogs, the form pipeline, the theme, the card renderer and
// the registration service. Extra service options are appended last.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, options ...registration.Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := i18n.Load(matchcard.LocalesFS(), matchcard.LocalesDir, i18n.WithFallbackLocale(cfg.App.Locale))
	if err != nil {
		return nil, fmt.Errorf("app: load catalogs: %w", err)
	}

	selector, err := render.NewThemeSelector(render.DefaultThemeName, "", render.DefaultThemeManifest())
	if err != nil {
		return nil, fmt.Errorf("app: theme selector: %w", err)
	}
	orchOptions := []orchestrator.Option{orchestrator.WithThemeSelector(selector)}
	if cfg.Form.SchemaPath != "" {
		orchOptions = append(orchOptions, orchestrator.WithSource(pkgopenapi.SourceFromFile(cfg.Form.SchemaPath)))
	}
	if cfg.Form.PresetPath != "" {
		raw, err := os.ReadFile(cfg.Form.PresetPath)
		if err != nil {
			return nil, fmt.Errorf("app: read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(raw)
		if err != nil {
			return nil, fmt.Errorf("app: preset %s: %w", cfg.Form.PresetPath, err)
		}
		orchOptions = append(orchOptions, orchestrator.WithSchemaTransformer(preset))
	}
	orch := matchcard.NewOrchestrator(orchOptions...)

	themeCfg, err := orch.Theme(cfg.Theme.Name, cfg.Theme.Variant)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	fonts, err := card.LoadFonts(cfg.Card.FontPath, cfg.Card.BoldFontPath)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	cardOptions := []card.Option{
		card.WithFonts(fonts),
		card.WithScale(float64(cfg.Card.Scale)),
		card.WithLogger(logger),
	}
	if themeCfg != nil {
		cardOptions = append(cardOptions, card.WithTokens(themeCfg.Tokens))
	}
	cards, err := card.NewRenderer(cardOptions...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	serviceOptions := []registration.Option{
		registration.WithLogger(logger),
		registration.WithCardRenderer(cards),
		registration.WithBrand(cfg.App.Brand),
		registration.WithDefaultLocale(cfg.App.Locale),
		registration.WithPhotoOptions(
			photo.WithMaxBytes(cfg.Upload.MaxBytes),
			photo.WithMaxDimension(cfg.Upload.MaxDimension),
		),
	}
	svc, err := registration.New(ctx, orch, catalog, append(serviceOptions, options...)...)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Catalog:      catalog,
		Orchestrator: orch,
		Theme:        themeCfg,
		Service:      svc,
	}, nil
}
