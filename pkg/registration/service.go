package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-matchcard/pkg/card"
	"github.com/goliatone/go-matchcard/pkg/model"
	"github.com/goliatone/go-matchcard/pkg/orchestrator"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/validation"
)

// Hidden field names carried by the summary page so export can rebuild the
// submission.
const (
	HiddenPhotoData    = "photo_data"
	HiddenRegisteredAt = "registered_at"
)

// Observer receives submission and export outcomes, e.g. for metrics.
type Observer interface {
	Submitted(valid bool, issues []validation.Issue)
	Exported(elapsed time.Duration, err error)
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the registration timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

// WithBrand overrides the export filename prefix taken from the catalog.
func WithBrand(brand string) Option {
	return func(s *Service) {
		s.brand = strings.TrimSpace(brand)
	}
}

// WithPhotoOptions bounds accepted photos.
func WithPhotoOptions(options ...photo.Option) Option {
	return func(s *Service) {
		s.photoOptions = append(s.photoOptions, options...)
	}
}

// WithCardRenderer replaces the default card rasteriser.
func WithCardRenderer(renderer *card.Renderer) Option {
	return func(s *Service) {
		if renderer != nil {
			s.cards = renderer
		}
	}
}

// WithDefaultLocale sets the locale used when a request names none.
func WithDefaultLocale(locale string) Option {
	return func(s *Service) {
		if locale != "" {
			s.defaultLocale = locale
		}
	}
}

// Service implements the registration flow.
type Service struct {
	orch          *orchestrator.Orchestrator
	translator    render.Translator
	validator     *validation.Validator
	cards         *card.Renderer
	observer      Observer
	logger        *zap.Logger
	now           func() time.Time
	brand         string
	defaultLocale string
	photoOptions  []photo.Option
}

// New prepares the form pipeline and builds the validator from the same
// document.
func New(ctx context.Context, orch *orchestrator.Orchestrator, translator render.Translator, options ...Option) (*Service, error) {
	if orch == nil {
		return nil, errors.New("registration: orchestrator is required")
	}
	s := &Service{
		orch:          orch,
		translator:    translator,
		logger:        zap.NewNop(),
		now:           time.Now,
		defaultLocale: "zh-CN",
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	prepared, err := orch.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("registration: prepare form: %w", err)
	}
	s.validator, err = validation.FromDocument(ctx, prepared.Document, prepared.Operation.ID, prepared.Form,
		validation.WithTranslator(translator))
	if err != nil {
		return nil, fmt.Errorf("registration: validator: %w", err)
	}

	if s.cards == nil {
		s.cards, err = card.NewRenderer(card.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("registration: card renderer: %w", err)
		}
	}
	return s, nil
}

// Validator exposes the field validator, e.g. for prompt-by-prompt input.
func (s *Service) Validator() *validation.Validator {
	return s.validator
}

// PhotoOptions returns the configured photo bounds.
func (s *Service) PhotoOptions() []photo.Option {
	return append([]photo.Option(nil), s.photoOptions...)
}

// RenderOptions returns the base options for locale.
func (s *Service) RenderOptions(locale string) render.RenderOptions {
	return render.RenderOptions{
		Locale:     s.locale(locale),
		Translator: s.translator,
	}
}

// Page is a form ready to render.
type Page struct {
	Form    model.FormModel
	Options render.RenderOptions
}

// Form returns the localised form prefilled with the defaults.
func (s *Service) Form(ctx context.Context, locale string) (Page, error) {
	form, opts, err := s.localizedForm(ctx, locale)
	if err != nil {
		return Page{}, err
	}
	opts.Values = toAny(registrant.Defaults())
	return Page{Form: form, Options: opts}, nil
}

// Reset discards everything the registrant entered. With no server state
// this is a fresh form.
func (s *Service) Reset(ctx context.Context, locale string) (Page, error) {
	return s.Form(ctx, locale)
}

// Submission is one attempt to register.
type Submission struct {
	Locale string
	// Values are the raw form inputs keyed by field name.
	Values map[string]string
	// Photo is the normalised portrait; empty when none was attached.
	Photo photo.Photo
	// PhotoErr reports why an attached upload was rejected.
	PhotoErr error
	// RegisteredAt pins the card timestamp; zero uses the clock.
	RegisteredAt time.Time
}

// Outcome is the result of Submit. Registrant and Card are only set when
// Valid.
type Outcome struct {
	Valid        bool
	Values       map[string]string
	Errors       map[string][]string
	FormErrors   []string
	Issues       []validation.Issue
	Registrant   registrant.Registrant
	Photo        photo.Photo
	Card         card.View
	RegisteredAt time.Time
	Form         model.FormModel
	Options      render.RenderOptions
}

// HiddenFields returns what the summary page must post back for export.
func (o Outcome) HiddenFields() map[string]string {
	return render.MergeHiddenFields(nil, append(
		render.HiddenValues(o.Registrant.Values()),
		render.Hidden(HiddenPhotoData, o.Photo.DataURL()),
		render.Hidden(HiddenRegisteredAt, o.RegisteredAt.Format(time.RFC3339)),
	)...)
}

// Submit binds and validates a submission. An invalid outcome carries the
// localised messages and the values to re-render; it is not an error.
func (s *Service) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	form, opts, err := s.localizedForm(ctx, sub.Locale)
	if err != nil {
		return Outcome{}, err
	}

	raw := make(map[string]string, len(sub.Values)+1)
	for key, value := range sub.Values {
		raw[key] = value
	}
	delete(raw, registrant.FieldPhoto)
	if !sub.Photo.Empty() {
		raw[registrant.FieldPhoto] = sub.Photo.ContentType
	}

	result, err := s.validator.Validate(ctx, opts.Locale, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("registration: validate: %w", err)
	}

	payload := make(map[string][]string)
	for _, issue := range result.Issues {
		payload[issue.Field] = append(payload[issue.Field], issue.Message)
	}
	mapped := render.MapErrorPayload(form, payload)
	fieldErrors := mapped.Fields
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	if sub.PhotoErr != nil && !errors.Is(sub.PhotoErr, photo.ErrMissing) {
		fieldErrors[registrant.FieldPhoto] = []string{
			render.Translate(opts, photo.MessageKey(sub.PhotoErr), sub.PhotoErr.Error()),
		}
		result.Issues = append(result.Issues, validation.Issue{
			Field:   registrant.FieldPhoto,
			Rule:    "upload",
			Reason:  sub.PhotoErr.Error(),
			Message: fieldErrors[registrant.FieldPhoto][0],
		})
	}

	display := make(map[string]string, len(raw))
	for key, value := range raw {
		display[key] = value
	}
	if !sub.Photo.Empty() {
		display[registrant.FieldPhoto] = sub.Photo.DataURL()
	}
	opts.Values = toAny(display)

	out := Outcome{
		Values:  display,
		Issues:  result.Issues,
		Photo:   sub.Photo,
		Form:    form,
		Options: opts,
	}

	if len(fieldErrors) > 0 || len(mapped.Form) > 0 {
		out.Errors = fieldErrors
		out.FormErrors = render.MergeFormErrors(
			[]string{render.Translate(opts, "form.invalid", "Please correct the highlighted fields")},
			mapped.Form...,
		)
		opts.Errors = fieldErrors
		opts.FormErrors = out.FormErrors
		out.Options = opts
		s.observe(false, result.Issues)
		s.logger.Debug("registration rejected",
			zap.Int("issues", len(result.Issues)),
			zap.Strings("fields", issueFields(result.Issues)),
		)
		return out, nil
	}

	reg, err := registrant.FromValues(result.Values)
	if err != nil {
		return Outcome{}, fmt.Errorf("registration: bind: %w", err)
	}

	registeredAt := sub.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = s.now()
	}

	out.Valid = true
	out.Registrant = reg
	out.RegisteredAt = registeredAt
	out.Card = card.NewView(reg, form, card.ViewOptions{
		Render:   opts,
		PhotoURL: sub.Photo.DataURL(),
		Now:      registeredAt,
	})
	s.observe(true, nil)
	s.logger.Info("registration accepted", zap.String("location", reg.Location))
	return out, nil
}

// Restore rebuilds a submission from the values posted by the summary page.
// A photo that fails to decode is reported through PhotoErr.
func (s *Service) Restore(locale string, values map[string]string) Submission {
	sub := Submission{Locale: locale, Values: make(map[string]string, len(values))}
	for key, value := range values {
		switch key {
		case HiddenPhotoData, HiddenRegisteredAt:
			continue
		}
		sub.Values[key] = value
	}
	if data := values[HiddenPhotoData]; data != "" {
		sub.Photo, sub.PhotoErr = photo.FromDataURL(data, s.photoOptions...)
	}
	// Shown in the clock's zone so the card matches the summary page.
	if at, err := time.Parse(time.RFC3339, values[HiddenRegisteredAt]); err == nil {
		sub.RegisteredAt = at.In(s.now().Location())
	}
	return sub
}

// ExportRequest names the registrant and photo to rasterise.
type ExportRequest struct {
	Locale       string
	Registrant   registrant.Registrant
	Photo        photo.Photo
	RegisteredAt time.Time
}

// Export is a rendered card.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export rasterises the summary card once. Failures are returned to the
// caller, which decides whether the user retries.
func (s *Service) Export(ctx context.Context, req ExportRequest) (Export, error) {
	start := time.Now()
	exp, err := s.export(ctx, req)
	if s.observer != nil {
		s.observer.Exported(time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("card export failed", zap.Error(err))
		return Export{}, err
	}
	s.logger.Info("card exported",
		zap.String("filename", exp.Filename),
		zap.Int("bytes", len(exp.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return exp, nil
}

func (s *Service) export(ctx context.Context, req ExportRequest) (Export, error) {
	if req.Photo.Empty() {
		return Export{}, fmt.Errorf("registration: export: %w", photo.ErrMissing)
	}
	portrait, err := req.Photo.Image()
	if err != nil {
		return Export{}, fmt.Errorf("registration: export: %w", err)
	}

	form, opts, err := s.localizedForm(ctx, req.Locale)
	if err != nil {
		return Export{}, err
	}
	at := req.RegisteredAt
	if at.IsZero() {
		at = s.now()
	}
	view := card.NewView(req.Registrant, form, card.ViewOptions{Render: opts, Now: at})

	data, err := s.cards.Render(ctx, view, portrait)
	if err != nil {
		return Export{}, fmt.Errorf("registration: export: %w", err)
	}

	prefix := s.brand
	if prefix == "" {
		prefix = render.Translate(opts, "app.exportPrefix", "")
	}
	return Export{
		Filename:    card.Filename(prefix, req.Registrant.Name, at),
		ContentType: "image/png",
		Data:        data,
	}, nil
}

func (s *Service) localizedForm(ctx context.Context, locale string) (model.FormModel, render.RenderOptions, error) {
	form, err := s.orch.Form(ctx)
	if err != nil {
		return model.FormModel{}, render.RenderOptions{}, fmt.Errorf("registration: form: %w", err)
	}
	opts := s.RenderOptions(locale)
	render.LocalizeFormModel(&form, opts)
	return form, opts, nil
}

func (s *Service) locale(locale string) string {
	if locale = strings.TrimSpace(locale); locale != "" {
		return locale
	}
	return s.defaultLocale
}

func (s *Service) observe(valid bool, issues []validation.Issue) {
	if s.observer != nil {
		s.observer.Submitted(valid, issues)
	}
}

func issueFields(issues []validation.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Field)
	}
	return out
}

func toAny(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
