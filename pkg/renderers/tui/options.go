package tui

import (
	"context"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits "label: value" lines in field order.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// FieldValidator checks one raw answer and returns localised messages; an
// empty result accepts the answer. *validation.Validator satisfies it.
type FieldValidator interface {
	ValidateField(ctx context.Context, locale, name, raw string) ([]string, error)
}

// PhotoCheck verifies a photo path once the validator accepted it.
type PhotoCheck func(ctx context.Context, path string) error

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithFieldValidator sets the validator consulted after every answer.
func WithFieldValidator(v FieldValidator) Option {
	return func(r *Renderer) {
		r.validator = v
	}
}

// WithPhotoCheck sets the check run on the photo path, typically a full
// decode so unreadable files are rejected at the prompt.
func WithPhotoCheck(fn PhotoCheck) Option {
	return func(r *Renderer) {
		r.photoCheck = fn
	}
}

// WithConfirmation asks for a final confirmation before returning.
func WithConfirmation(enabled bool) Option {
	return func(r *Renderer) {
		r.confirm = enabled
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
