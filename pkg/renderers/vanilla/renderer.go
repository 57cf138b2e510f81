package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-matchcard/pkg/card"
	"github.com/goliatone/go-matchcard/pkg/model"
	"github.com/goliatone/go-matchcard/pkg/render"
	rendertemplate "github.com/goliatone/go-matchcard/pkg/render/template"
	gotemplate "github.com/goliatone/go-matchcard/pkg/render/template/gotemplate"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla/components"
)

const (
	formTemplate    = "templates/form.tpl"
	summaryTemplate = "templates/summary.tpl"

	defaultExportAction = "/register/export"
	defaultResetURL     = "/reset"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	now              func() time.Time
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the widget registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithClock overrides the clock used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Renderer produces the HTML form page and the summary page.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	registry  *components.Registry
	now       func() time.Time
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), now: time.Now}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, registry: cfg.registry, now: cfg.now}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the registration form page. The model is localised on a
// copy; values and errors come from opts.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form = form.Clone()
	render.LocalizeFormModel(&form, opts)

	globals := r.globals(opts)
	fields := newComponentRenderer(r.templates, r.registry, themePartials(opts), globals)

	views := make([]map[string]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		view, err := fields.render(field, opts)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
		views = append(views, view)
	}

	method := strings.ToLower(form.Method)
	if opts.Method != "" {
		method = strings.ToLower(opts.Method)
	}
	action := form.Endpoint
	if opts.Action != "" {
		action = opts.Action
	}

	title := form.UIHints["layout.title"]
	data := merge(globals, map[string]any{
		"page": r.pageContext(opts, title, fields.stylesheets()),
		"form": map[string]any{
			"method":      method,
			"action":      action,
			"title":       title,
			"submitLabel": form.UIHints["submitLabel"],
			"sections":    buildSections(views, form.Fields),
			"errors":      opts.FormErrors,
			"hidden":      hiddenFields(opts.HiddenFields),
		},
	})

	result, err := r.templates.RenderTemplate(formTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// Contact describes the operator panel on the summary page.
type Contact struct {
	Name      string
	WeChat    string
	QRCodeURL string
	DeepLink  string
}

// Summary is the content of the page shown after a valid submission.
type Summary struct {
	Card    card.View
	Contact Contact
	// ExportAction and ResetURL default to /register/export and /reset.
	ExportAction string
	ResetURL     string
}

// RenderSummary produces the summary page. opts.HiddenFields must carry the
// submitted values and photo so the export form can re-submit them.
func (r *Renderer) RenderSummary(ctx context.Context, summary Summary, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exportAction := summary.ExportAction
	if exportAction == "" {
		exportAction = defaultExportAction
	}
	resetURL := summary.ResetURL
	if resetURL == "" {
		resetURL = defaultResetURL
	}

	view := summary.Card
	details := make([]map[string]any, 0, len(view.Details))
	for _, d := range view.Details {
		details = append(details, detailView(d))
	}
	texts := make([]map[string]any, 0, len(view.Texts))
	for _, d := range view.Texts {
		texts = append(texts, detailView(d))
	}

	globals := r.globals(opts)
	data := merge(globals, map[string]any{
		"page": r.pageContext(opts, view.Title, nil),
		"card": map[string]any{
			"title":     view.Title,
			"subtitle":  view.Subtitle,
			"name":      view.Name,
			"headline":  view.Headline,
			"photo":     view.PhotoURL,
			"details":   details,
			"texts":     texts,
			"timestamp": detailView(view.Timestamp),
		},
		"summary": map[string]any{
			"exportAction": exportAction,
			"resetURL":     resetURL,
			"hidden":       hiddenFields(opts.HiddenFields),
		},
		"contact": map[string]any{
			"name":      summary.Contact.Name,
			"wechat":    summary.Contact.WeChat,
			"qrCodeURL": summary.Contact.QRCodeURL,
			"deepLink":  summary.Contact.DeepLink,
		},
	})

	result, err := r.templates.RenderTemplate(summaryTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render summary: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) globals(opts render.RenderOptions) map[string]any {
	funcs := render.TemplateI18nFuncs(opts.Translator, render.TemplateI18nConfig{OnMissing: opts.OnMissing})
	return map[string]any{
		"locale":    opts.Locale,
		"translate": funcs["translate"],
	}
}

func (r *Renderer) pageContext(opts render.RenderOptions, title string, extraStyles []string) map[string]any {
	stylesheet := "/assets/" + StylesheetName
	cssVars := ""
	if opts.Theme != nil {
		if opts.Theme.AssetURL != nil {
			if url := opts.Theme.AssetURL("stylesheet"); url != "" {
				stylesheet = url
			}
		}
		cssVars = render.CSSVarsStyle(opts.Theme.CSSVars)
	}

	return map[string]any{
		"title":       title,
		"brand":       render.Translate(opts, "app.brand", ""),
		"tagline":     render.Translate(opts, "app.tagline", ""),
		"copyright":   render.Translate(opts, "footer.copyright", "", r.now().Year()),
		"footerNote":  render.Translate(opts, "footer.note", ""),
		"notice":      opts.Notice,
		"stylesheets": append([]string{stylesheet}, extraStyles...),
		"cssVars":     cssVars,
		"classes":     chromeClasses(),
	}
}

func themePartials(opts render.RenderOptions) map[string]string {
	if opts.Theme == nil {
		return nil
	}
	return opts.Theme.Partials
}

func detailView(d card.Detail) map[string]any {
	return map[string]any{"key": d.Key, "label": d.Label, "value": d.Value}
}

func hiddenFields(fields map[string]string) []map[string]any {
	sorted := render.SortedHiddenFields(fields)
	out := make([]map[string]any, 0, len(sorted))
	for _, field := range sorted {
		out = append(out, map[string]any{"name": field.Name, "value": field.Value})
	}
	return out
}

func merge(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range extra {
		out[key] = value
	}
	return out
}
