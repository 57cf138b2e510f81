package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-matchcard/pkg/model"
)

// Transformer mutates a FormModel before decorators run.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormModel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.FormModel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormModel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies operator overrides loaded from a YAML (or JSON)
// document:
//
//	uiHints:
//	  layout.title: 春季登记
//	fields:
//	  occupation:
//	    placeholderKey: fields.occupation.placeholder
//	    uiHints:
//	      cssClass: wide
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Metadata map[string]string      `yaml:"metadata"`
	UIHints  map[string]string      `yaml:"uiHints"`
	Fields   map[string]fieldPreset `yaml:"fields"`
}

type fieldPreset struct {
	Label          string            `yaml:"label"`
	LabelKey       string            `yaml:"labelKey"`
	Description    string            `yaml:"description"`
	Placeholder    string            `yaml:"placeholder"`
	PlaceholderKey string            `yaml:"placeholderKey"`
	Metadata       map[string]string `yaml:"metadata"`
	UIHints        map[string]string `yaml:"uiHints"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the presets. Unknown field names are an error so typos
// surface at startup.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.FormModel) error {
	if form == nil {
		return errors.New("preset transformer: form model is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(t.document.Metadata) > 0 {
		form.Metadata = mergeStringMap(form.Metadata, t.document.Metadata)
	}
	if len(t.document.UIHints) > 0 {
		form.UIHints = mergeStringMap(form.UIHints, t.document.UIHints)
	}

	for name, preset := range t.document.Fields {
		field := findField(form.Fields, name)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", name)
		}
		applyFieldPreset(field, preset)
	}
	return nil
}

func applyFieldPreset(field *model.Field, preset fieldPreset) {
	if preset.Label != "" {
		field.Label = preset.Label
	}
	if preset.Description != "" {
		field.Description = preset.Description
	}
	if preset.Placeholder != "" {
		field.Placeholder = preset.Placeholder
	}
	if len(preset.Metadata) > 0 {
		field.Metadata = mergeStringMap(field.Metadata, preset.Metadata)
	}
	hints := preset.UIHints
	if preset.LabelKey != "" || preset.PlaceholderKey != "" {
		hints = mergeStringMap(map[string]string{}, hints)
		if preset.LabelKey != "" {
			hints["labelKey"] = preset.LabelKey
		}
		if preset.PlaceholderKey != "" {
			hints["placeholderKey"] = preset.PlaceholderKey
		}
	}
	if len(hints) > 0 {
		field.UIHints = mergeStringMap(field.UIHints, hints)
	}
}

func findField(fields []model.Field, name string) *model.Field {
	name = strings.TrimSpace(name)
	for idx := range fields {
		if fields[idx].Name == name {
			return &fields[idx]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
