// Package httpapi serves the registration flow over HTTP: the form page,
// submission, the summary page and card export.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla"
)

const (
	// formOverhead is the body allowance on top of the photo limit for the
	// text fields and multipart framing.
	formOverhead   = 1 << 20
	multipartInMem = 32 << 10
)

// Option configures the handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTheme sets the resolved theme applied to every page.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(h *Handler) {
		h.theme = cfg
	}
}

// WithContact sets the operator panel shown on the summary page.
func WithContact(contact vanilla.Contact) Option {
	return func(h *Handler) {
		h.contact = contact
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(metrics *Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithGatherer exposes gatherer on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = gatherer
	}
}

// WithRateLimit enables per-client limits on the POST routes. A zero
// perMinute disables limiting.
func WithRateLimit(perMinute, burst int) Option {
	return func(h *Handler) {
		h.perMinute = perMinute
		h.burst = burst
	}
}

// WithMaxUploadBytes bounds the photo upload.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithSecureCookies marks the CSRF cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(h *Handler) {
		h.secureCookies = secure
	}
}

// WithLocales lists the supported locales; the first is the default.
func WithLocales(locales ...string) Option {
	return func(h *Handler) {
		var clean []string
		for _, locale := range locales {
			if locale = strings.TrimSpace(locale); locale != "" {
				clean = append(clean, locale)
			}
		}
		if len(clean) > 0 {
			h.locales = clean
		}
	}
}

// Handler wires the registration service to HTTP.
type Handler struct {
	service       *registration.Service
	pages         *vanilla.Renderer
	theme         *theme.RendererConfig
	contact       vanilla.Contact
	logger        *zap.Logger
	metrics       *Metrics
	gatherer      prometheus.Gatherer
	limiter       *rateLimiter
	perMinute     int
	burst         int
	maxUpload     int64
	secureCookies bool
	locales       []string
	matcher       language.Matcher
}

// New constructs the handler.
func New(service *registration.Service, pages *vanilla.Renderer, options ...Option) (*Handler, error) {
	if service == nil {
		return nil, errors.New("httpapi: registration service is required")
	}
	if pages == nil {
		return nil, errors.New("httpapi: page renderer is required")
	}
	h := &Handler{
		service:   service,
		pages:     pages,
		logger:    zap.NewNop(),
		maxUpload: photo.DefaultMaxBytes,
		locales:   []string{"zh-CN", "en"},
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}

	tags := make([]language.Tag, 0, len(h.locales))
	for _, locale := range h.locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("httpapi: locale %q: %w", locale, err)
		}
		tags = append(tags, tag)
	}
	h.matcher = language.NewMatcher(tags)

	if h.perMinute > 0 {
		h.limiter = newRateLimiter(h.perMinute, h.burst, h.logger, h.rejectRateLimited)
	}
	return h, nil
}

// NewRouter returns a chi router with the middleware stack and every route
// mounted.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	h.Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleForm)
	r.Get("/reset", h.HandleReset)
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/register", h.HandleRegister)
		r.Post("/register/export", h.HandleExport)
	})
	r.Get("/healthz", h.HandleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))
}

// HandleForm handles GET / with a fresh form.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.renderFreshForm(w, r, http.StatusOK, "")
}

// HandleReset handles GET /reset. Nothing is stored server side, so reset is
// a redirect to a fresh form.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if lang := r.URL.Query().Get("lang"); lang != "" {
		target += "?" + url.Values{"lang": {lang}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleRegister handles POST /register: invalid input re-renders the form
// with inline errors, valid input renders the summary page.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := h.locale(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)

	if err := parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderFreshForm(w, r, http.StatusRequestEntityTooLarge,
				h.message(locale, photo.MessageKey(photo.ErrTooLarge)))
			return
		}
		h.logger.Warn("parse registration form", zap.Error(err), zap.String("request_id", RequestIDFrom(ctx)))
		h.renderFreshForm(w, r, http.StatusBadRequest, h.message(locale, "form.invalid"))
		return
	}
	if !h.validCSRF(r) {
		h.renderFreshForm(w, r, http.StatusForbidden, h.message(locale, "notice.expired"))
		return
	}

	portrait, photoErr := h.readPhoto(r)
	outcome, err := h.service.Submit(ctx, registration.Submission{
		Locale:   locale,
		Values:   formValues(r),
		Photo:    portrait,
		PhotoErr: photoErr,
	})
	if err != nil {
		h.fail(w, r, "submit registration", err)
		return
	}

	token := h.csrfToken(w, r)
	if !outcome.Valid {
		opts := outcome.Options
		opts.Theme = h.theme
		hidden := []render.HiddenField{render.CSRFToken(csrfField, token)}
		if !outcome.Photo.Empty() {
			hidden = append(hidden, render.Hidden(registration.HiddenPhotoData, outcome.Photo.DataURL()))
		}
		opts.HiddenFields = render.MergeHiddenFields(nil, hidden...)
		h.writePage(w, r, http.StatusUnprocessableEntity, func() ([]byte, error) {
			return h.pages.Render(ctx, outcome.Form, opts)
		})
		return
	}
	h.renderSummary(w, r, http.StatusOK, outcome, token, "")
}

// HandleExport handles POST /register/export. The summary page posts back
// the registrant and photo; they are validated again before rasterising.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := h.locale(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*2+formOverhead)

	if err := parseForm(r); err != nil {
		h.logger.Warn("parse export form", zap.Error(err), zap.String("request_id", RequestIDFrom(ctx)))
		h.renderFreshForm(w, r, http.StatusBadRequest, h.message(locale, "notice.exportMissing"))
		return
	}
	if !h.validCSRF(r) {
		h.renderFreshForm(w, r, http.StatusForbidden, h.message(locale, "notice.expired"))
		return
	}

	sub := h.service.Restore(locale, formValues(r))
	outcome, err := h.service.Submit(ctx, sub)
	if err != nil {
		h.fail(w, r, "restore registration", err)
		return
	}
	if !outcome.Valid {
		h.renderFreshForm(w, r, http.StatusUnprocessableEntity, h.message(locale, "notice.exportMissing"))
		return
	}

	exp, err := h.service.Export(ctx, registration.ExportRequest{
		Locale:       locale,
		Registrant:   outcome.Registrant,
		Photo:        outcome.Photo,
		RegisteredAt: outcome.RegisteredAt,
	})
	if err != nil {
		h.logger.Warn("export card", zap.Error(err), zap.String("request_id", RequestIDFrom(ctx)))
		h.renderSummary(w, r, http.StatusInternalServerError, outcome, h.csrfToken(w, r),
			h.message(locale, "notice.exportFailed"))
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(exp.Filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

func (h *Handler) renderFreshForm(w http.ResponseWriter, r *http.Request, status int, notice string) {
	ctx := r.Context()
	page, err := h.service.Form(ctx, h.locale(r))
	if err != nil {
		h.fail(w, r, "load form", err)
		return
	}
	opts := page.Options
	opts.Theme = h.theme
	opts.Notice = notice
	opts.HiddenFields = render.MergeHiddenFields(nil, render.CSRFToken(csrfField, h.csrfToken(w, r)))
	h.writePage(w, r, status, func() ([]byte, error) {
		return h.pages.Render(ctx, page.Form, opts)
	})
}

func (h *Handler) renderSummary(w http.ResponseWriter, r *http.Request, status int, outcome registration.Outcome, token, notice string) {
	opts := outcome.Options
	opts.Theme = h.theme
	opts.Notice = notice
	opts.HiddenFields = render.MergeHiddenFields(outcome.HiddenFields(), render.CSRFToken(csrfField, token))
	h.writePage(w, r, status, func() ([]byte, error) {
		return h.pages.RenderSummary(r.Context(), vanilla.Summary{
			Card:    outcome.Card,
			Contact: h.contact,
		}, opts)
	})
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, status int, produce func() ([]byte, error)) {
	body, err := produce()
	if err != nil {
		h.fail(w, r, "render page", err)
		return
	}
	w.Header().Set("Content-Type", h.pages.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	h.renderFreshForm(w, r, http.StatusTooManyRequests, h.message(h.locale(r), "notice.rateLimited"))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.Error(action,
		zap.Error(err),
		zap.String("request_id", RequestIDFrom(r.Context())),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) message(locale, key string) string {
	return render.Translate(h.service.RenderOptions(locale), key, key)
}

// locale picks ?lang= when supported, then Accept-Language, then the
// default.
func (h *Handler) locale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		for _, locale := range h.locales {
			if strings.EqualFold(locale, lang) {
				return locale
			}
		}
	}
	accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(accepted) == 0 {
		return h.locales[0]
	}
	_, index, confidence := h.matcher.Match(accepted...)
	if confidence == language.No {
		return h.locales[0]
	}
	return h.locales[index]
}

// readPhoto takes the first non-empty "photo" file part, then the photo
// carried over from a previous attempt.
func (h *Handler) readPhoto(r *http.Request) (photo.Photo, error) {
	options := h.service.PhotoOptions()
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File[registrant.FieldPhoto] {
			if header.Size == 0 {
				continue
			}
			file, err := header.Open()
			if err != nil {
				return photo.Photo{}, fmt.Errorf("%w: %v", photo.ErrInvalid, err)
			}
			defer file.Close()
			return photo.Decode(r.Context(), file, options...)
		}
	}
	if data := r.PostForm.Get(registration.HiddenPhotoData); data != "" {
		return photo.FromDataURL(data, options...)
	}
	return photo.Photo{}, nil
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartInMem)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formValues flattens the posted form, keeping the first value per key.
func formValues(r *http.Request) map[string]string {
	values := make(map[string]string, len(r.PostForm))
	for key, list := range r.PostForm {
		if key == csrfField || len(list) == 0 {
			continue
		}
		values[key] = list[0]
	}
	return values
}

func contentDisposition(filename string) string {
	var fallback bytes.Buffer
	for _, r := range filename {
		switch {
		case r < 0x20 || r > 0x7e || r == '"' || r == '\\':
			fallback.WriteByte('_')
		default:
			fallback.WriteRune(r)
		}
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback.String(), url.PathEscape(filename))
}
