package matchcard

import (
	"context"

	"github.com/goliatone/go-matchcard/pkg/orchestrator"
	"github.com/goliatone/go-matchcard/pkg/render"
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface validation errors.
type RenderOptions = render.RenderOptions

// NewOrchestrator returns an orchestrator preconfigured for the embedded
// registration schema. Options are applied after the defaults, so callers can
// point it at another source or operation.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	defaults := []orchestrator.Option{
		orchestrator.WithLoader(NewLoader()),
		orchestrator.WithParser(NewParser()),
		orchestrator.WithSource(SchemaSource()),
		orchestrator.WithOperationID(OperationID),
	}
	return orchestrator.New(append(defaults, options...)...)
}

// GenerateHTML renders the registration form with the default vanilla
// renderer.
func GenerateHTML(ctx context.Context, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return NewOrchestrator(options...).Generate(ctx, orchestrator.Request{RenderOptions: opts})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithDefaultTheme registers the built-in palette and selects it by default.
func WithDefaultTheme(variant string) (orchestrator.Option, error) {
	selector, err := render.NewThemeSelector(render.DefaultThemeName, variant, render.DefaultThemeManifest())
	if err != nil {
		return nil, err
	}
	return orchestrator.WithThemeSelector(selector), nil
}
