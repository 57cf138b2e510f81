package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator is reported to MissingTranslationHandler when a key
// needs translating but no Translator was configured.
var ErrMissingTranslator = errors.New("render: translator is not configured")

// Translator resolves a catalog key for a locale. Extra args are applied to
// the message with fmt semantics.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the text shown when a key cannot be
// translated. args may carry a map with a "default" entry holding the
// builder-provided fallback.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if m, ok := arg.(map[string]any); ok {
			if fallback := strings.TrimSpace(anyToString(m["default"])); fallback != "" {
				return fallback
			}
		}
	}
	return key
}

// Translate is a convenience wrapper that falls back to the missing handler
// semantics used by the renderers.
func Translate(opts RenderOptions, key, fallback string, args ...any) string {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if opts.Translator == nil {
		return onMissing(opts.Locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
	}
	msg, err := opts.Translator.Translate(opts.Locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" {
		return onMissing(opts.Locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	return msg
}

func anyToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
