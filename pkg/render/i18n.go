package render

import (
	"strings"

	"github.com/goliatone/go-matchcard/pkg/model"
)

const (
	formTitleKeyHint  = "layout.titleKey"
	formSubmitKeyHint = "submitLabelKey"

	fieldLabelKeyHint       = "labelKey"
	fieldPlaceholderKeyHint = "placeholderKey"
	fieldHelpTextKeyHint    = "helpTextKey"
	fieldOptionsKeyHint     = "optionsKey"
	fieldUnitKeyHint        = "unitKey"
	fieldSectionHint        = "section"

	sectionKeyPrefix = "sections."
)

// LocalizeFormModel mutates the supplied form model in place, translating any
// configured `*Key` hints into their localized string values. Enum options
// resolve through `<optionsKey>.<value>` and sections through
// `sections.<section>`.
//
// This is best-effort: translation failures are routed through opts.OnMissing
// and the builder-provided text is kept.
func LocalizeFormModel(form *model.FormModel, opts RenderOptions) {
	if form == nil {
		return
	}

	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	if len(form.UIHints) > 0 {
		if key := strings.TrimSpace(form.UIHints[formTitleKeyHint]); key != "" {
			form.UIHints["layout.title"] = translate(opts.Locale, key, strings.TrimSpace(form.Summary), opts.Translator, onMissing)
		}
		if key := strings.TrimSpace(form.UIHints[formSubmitKeyHint]); key != "" {
			form.UIHints["submitLabel"] = translate(opts.Locale, key, "Submit", opts.Translator, onMissing)
		}
	}

	for i := range form.Fields {
		localizeField(&form.Fields[i], opts.Locale, opts.Translator, onMissing)
	}
}

func localizeField(field *model.Field, locale string, t Translator, onMissing MissingTranslationHandler) {
	if field == nil {
		return
	}

	if key := strings.TrimSpace(mapString(field.UIHints, fieldLabelKeyHint)); key != "" {
		field.Label = translate(locale, key, strings.TrimSpace(field.Label), t, onMissing)
	}
	if key := strings.TrimSpace(mapString(field.UIHints, fieldPlaceholderKeyHint)); key != "" {
		field.Placeholder = translate(locale, key, strings.TrimSpace(field.Placeholder), t, onMissing)
	}
	if key := strings.TrimSpace(mapString(field.UIHints, fieldHelpTextKeyHint)); key != "" {
		field.UIHints["helpText"] = translate(locale, key, strings.TrimSpace(field.UIHints["helpText"]), t, onMissing)
	}
	if key := strings.TrimSpace(mapString(field.UIHints, fieldUnitKeyHint)); key != "" {
		field.UIHints["unit"] = translate(locale, key, strings.TrimSpace(field.UIHints["unit"]), t, onMissing)
	}
	if section := strings.TrimSpace(mapString(field.UIHints, fieldSectionHint)); section != "" {
		field.UIHints["sectionLabel"] = translate(locale, sectionKeyPrefix+section, section, t, onMissing)
	}
	if prefix := strings.TrimSpace(mapString(field.UIHints, fieldOptionsKeyHint)); prefix != "" {
		for i := range field.Options {
			opt := &field.Options[i]
			opt.Label = translate(locale, prefix+"."+opt.Value, opt.Label, t, onMissing)
		}
	}
}

// OptionLabel returns the display label for an enum value, or the value when
// the field has no such option.
func OptionLabel(field model.Field, value string) string {
	for _, opt := range field.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		if strings.TrimSpace(fallback) != "" {
			return fallback
		}
		return key
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

func mapString(values map[string]string, key string) string {
	if values == nil || key == "" {
		return ""
	}
	return values[key]
}
