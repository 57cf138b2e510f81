package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the shared form model.
type RenderOptions struct {
	// Method overrides the HTTP method declared by the form model.
	Method string
	// Action overrides the form endpoint.
	Action string
	// Values pre-populates rendered controls keyed by field name.
	Values map[string]any
	// Errors surfaces server-side validation feedback keyed by field name.
	Errors map[string][]string
	// FormErrors carries messages that do not belong to a single field.
	FormErrors []string
	// HiddenFields are emitted as hidden inputs (CSRF token, photo payload).
	HiddenFields map[string]string
	// Notice is a transient banner, e.g. a failed export.
	Notice string
	// Locale selects the catalog used for labels and messages.
	Locale string
	// Translator resolves catalog keys; nil leaves builder labels in place.
	Translator Translator
	// OnMissing decides what is shown when a key has no translation.
	OnMissing MissingTranslationHandler
	// Theme carries resolved go-theme tokens for styling.
	Theme *theme.RendererConfig
}
