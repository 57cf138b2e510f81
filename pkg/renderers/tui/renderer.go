package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-matchcard/pkg/model"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/render"
)

// Renderer implements render.Renderer for terminal sessions. It prompts each
// field in form order, re-asking until the validator accepts the answer, and
// returns the raw answers serialized in the configured format.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	validator    FieldValidator
	photoCheck   PhotoCheck
	confirm      bool
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{outputFormat: OutputFormatJSON}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render runs the prompt session. opts.Values seeds the defaults and
// opts.Errors is shown before the matching prompt.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.validator == nil {
		return nil, ErrNoValidator
	}

	form = form.Clone()
	render.LocalizeFormModel(&form, opts)

	values, err := r.Collect(ctx, form, opts)
	if err != nil {
		return nil, err
	}

	if r.confirm {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: render.Translate(opts, "tui.confirm", "Continue?"),
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	return r.serialize(form, values)
}

// Collect prompts every field of an already localised form and returns the
// accepted answers.
func (r *Renderer) Collect(ctx context.Context, form model.FormModel, opts render.RenderOptions) (map[string]string, error) {
	if r.validator == nil {
		return nil, ErrNoValidator
	}
	state := NewState(opts.Values, opts.Errors)
	for _, field := range form.Fields {
		if err := r.promptField(ctx, field, state, opts); err != nil {
			return nil, err
		}
	}
	return state.Values(), nil
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, state *State, opts render.RenderOptions) error {
	for _, msg := range state.ErrorsFor(field.Name) {
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
	}

	for {
		answer, err := r.ask(ctx, field, state, opts)
		if err != nil {
			return err
		}

		messages, err := r.validator.ValidateField(ctx, opts.Locale, field.Name, answer)
		if err != nil {
			return fmt.Errorf("tui: validate %s: %w", field.Name, err)
		}
		if len(messages) == 0 && field.Widget() == "photo" && r.photoCheck != nil {
			if err := r.photoCheck(ctx, answer); err != nil {
				messages = []string{render.Translate(opts, photo.MessageKey(err), err.Error())}
			}
		}
		if len(messages) > 0 {
			for _, msg := range messages {
				_ = r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
			}
			continue
		}

		state.SetValue(field.Name, answer)
		return nil
	}
}

func (r *Renderer) ask(ctx context.Context, field model.Field, state *State, opts render.RenderOptions) (string, error) {
	current, _ := state.Value(field.Name)
	label := displayLabel(field)
	help := field.UIHints["helpText"]

	switch field.Widget() {
	case "radio", "select":
		labels := make([]string, len(field.Options))
		defaultIdx := -1
		for i, opt := range field.Options {
			labels[i] = opt.Label
			if labels[i] == "" {
				labels[i] = opt.Value
			}
			if opt.Value == current {
				defaultIdx = i
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         help,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			// an empty answer reports the required message
			return "", nil
		}
		return field.Options[idx].Value, nil
	case "textarea":
		answer, err := r.driver.TextArea(ctx, TextAreaConfig{
			Message: label,
			Default: current,
			Help:    firstNonEmpty(field.Placeholder, help),
		})
		return strings.TrimSpace(answer), err
	case "photo":
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: render.Translate(opts, "tui.photoPath", label),
			Default: current,
			Help:    help,
		})
		return strings.TrimSpace(answer), err
	default:
		if unit := field.UIHints["unit"]; unit != "" && !strings.Contains(label, unit) {
			label = fmt.Sprintf("%s (%s)", label, strings.TrimSpace(unit))
		}
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: label,
			Default: current,
			Help:    firstNonEmpty(help, field.Placeholder),
		})
		return strings.TrimSpace(answer), err
	}
}

func (r *Renderer) serialize(form model.FormModel, values map[string]string) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for key, value := range values {
			encoded.Set(key, value)
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(form, values)), nil
	default:
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return data, nil
	}
}

func prettyPrint(form model.FormModel, values map[string]string) string {
	var b strings.Builder
	for _, field := range form.Fields {
		value, ok := values[field.Name]
		if !ok {
			continue
		}
		b.WriteString(displayLabel(field))
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(render.OptionLabel(field, value), "\n", " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
