package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	theme "github.com/goliatone/go-theme"

	internalLoader "github.com/goliatone/go-matchcard/internal/openapi/loader"
	internalParser "github.com/goliatone/go-matchcard/internal/openapi/parser"
	"github.com/goliatone/go-matchcard/pkg/model"
	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom OpenAPI loader.
func WithLoader(loader pkgopenapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom OpenAPI parser.
func WithParser(parser pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithModelBuilder injects a custom form model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSource sets where the schema document is loaded from.
func WithSource(source pkgopenapi.Source) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithDocument supplies an already loaded document, bypassing the loader.
func WithDocument(doc pkgopenapi.Document) Option {
	return func(o *Orchestrator) {
		o.document = &doc
	}
}

// WithOperationID selects the operation rendered into the form.
func WithOperationID(id string) Option {
	return func(o *Orchestrator) {
		o.operationID = id
	}
}

// WithSchemaTransformer registers a Transformer that can mutate the form model
// after building but before decorators run.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithUIDecorators registers decorators that should run against the generated
// form model before it is cached.
func WithUIDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithThemeSelector resolves request theme names into renderer configs.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themes = selector
	}
}

// Orchestrator coordinates the pipeline from OpenAPI document to rendered
// output.
type Orchestrator struct {
	loader          pkgopenapi.Loader
	parser          pkgopenapi.Parser
	builder         model.Builder
	registry        *render.Registry
	defaultRenderer string
	source          pkgopenapi.Source
	document        *pkgopenapi.Document
	operationID     string
	decorators      []model.Decorator
	transformer     Transformer
	themes          theme.ThemeSelector
	initialiseErr   error

	mu       sync.Mutex
	prepared *Prepared
}

// Prepared holds the pipeline artefacts shared by all requests.
type Prepared struct {
	Document  pkgopenapi.Document
	Operation pkgopenapi.Operation
	Form      model.FormModel
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// Theme and Variant select a theme when RenderOptions.Theme is unset and a
	// selector is configured. Empty names select the selector defaults.
	Theme   string
	Variant string

	// RenderOptions carries per-request values, errors and locale.
	RenderOptions render.RenderOptions
}

// Prepare loads, parses and builds the form model once. Later calls return
// the cached artefacts; a failed attempt is retried on the next call.
func (o *Orchestrator) Prepare(ctx context.Context) (*Prepared, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.prepared != nil {
		return o.prepared, nil
	}

	if o.operationID == "" {
		return nil, errors.New("orchestrator: operation id is required")
	}

	doc, err := o.resolveDocument(ctx)
	if err != nil {
		return nil, err
	}

	operations, err := o.parser.Operations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse operations: %w", err)
	}
	op, ok := operations[o.operationID]
	if !ok {
		return nil, fmt.Errorf("orchestrator: operation %q not found", o.operationID)
	}

	form, err := o.builder.Build(op)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form model: %w", err)
	}
	if err := o.applyTransformer(ctx, &form); err != nil {
		return nil, err
	}
	if err := o.applyDecorators(&form); err != nil {
		return nil, err
	}

	o.prepared = &Prepared{Document: doc, Operation: op, Form: form}
	return o.prepared, nil
}

// Form returns a copy of the prepared form model that callers may mutate.
func (o *Orchestrator) Form(ctx context.Context) (model.FormModel, error) {
	prepared, err := o.Prepare(ctx)
	if err != nil {
		return model.FormModel{}, err
	}
	return prepared.Form.Clone(), nil
}

// Theme resolves a theme selection into a renderer config. It returns nil
// without a selector.
func (o *Orchestrator) Theme(name, variant string) (*theme.RendererConfig, error) {
	if o.themes == nil {
		return nil, nil
	}
	selection, err := o.themes.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	return render.ThemeConfig(selection), nil
}

// Renderer returns the named renderer, falling back to the default.
func (o *Orchestrator) Renderer(name string) (render.Renderer, error) {
	return o.rendererFor(name)
}

// Generate renders the prepared form with the requested renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	prepared, err := o.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Theme == nil {
		cfg, err := o.Theme(req.Theme, req.Variant)
		if err != nil {
			return nil, err
		}
		opts.Theme = cfg
	}

	output, err := renderer.Render(ctx, prepared.Form.Clone(), opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context) (pkgopenapi.Document, error) {
	if o.document != nil {
		return *o.document, nil
	}
	if o.source == nil {
		return pkgopenapi.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, o.source)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDecorators(form *model.FormModel) error {
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *model.FormModel) error {
	if o.transformer == nil || form == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform form: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(pkgopenapi.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = internalParser.New(pkgopenapi.NewParserOptions())
	}
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
