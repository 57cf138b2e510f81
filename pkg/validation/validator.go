// Package validation checks registration submissions against the request
// schema of the form operation. Raw form strings are coerced by field type,
// validated with kin-openapi and every issue is resolved to a catalog message.
package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	internalParser "github.com/goliatone/go-matchcard/internal/openapi/parser"
	"github.com/goliatone/go-matchcard/pkg/model"
	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
	"github.com/goliatone/go-matchcard/pkg/render"
)

const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleEnum      = "enum"
	RuleMinimum   = "minimum"
	RuleMaximum   = "maximum"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
)

// Issue is a single failed rule.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// Result aggregates the outcome of validating one submission.
type Result struct {
	// Values holds the coerced values (strings and float64 numbers) for
	// every field that was present.
	Values map[string]any
	Issues []Issue
}

// Valid reports whether no issue was recorded.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Payload groups messages by JSON pointer ("/name"), the shape accepted by
// render.MapErrorPayload.
func (r Result) Payload() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range r.Issues {
		key := ""
		if issue.Field != "" {
			key = "/" + issue.Field
		}
		out[key] = append(out[key], issue.Message)
	}
	return out
}

// Validator validates submissions for one form.
type Validator struct {
	schema     *openapi3.Schema
	fields     []model.Field
	translator render.Translator
}

// Option configures a Validator.
type Option func(*Validator)

// WithTranslator resolves issue messages through the given catalog.
func WithTranslator(t render.Translator) Option {
	return func(v *Validator) {
		v.translator = t
	}
}

// New creates a Validator from a kin-openapi schema and the form fields built
// from the same operation.
func New(schema *openapi3.Schema, form model.FormModel, options ...Option) (*Validator, error) {
	if schema == nil {
		return nil, errors.New("validation: schema is required")
	}
	v := &Validator{schema: schema, fields: form.Fields}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// FromDocument loads the operation's request schema from a document.
func FromDocument(ctx context.Context, doc pkgopenapi.Document, operationID string, form model.FormModel, options ...Option) (*Validator, error) {
	spec, err := internalParser.Load(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	schema, err := internalParser.RequestSchema(spec, operationID)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return New(schema, form, options...)
}

// Validate coerces raw values and checks them against the schema. Keys not
// declared by the form are ignored.
func (v *Validator) Validate(ctx context.Context, locale string, raw map[string]string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := Result{Values: make(map[string]any, len(v.fields))}
	for _, field := range v.fields {
		value, present := raw[field.Name]
		coerced, issue := coerce(field, value, present)
		if issue != nil {
			issue.Message = v.message(locale, issue.Field, issue.Rule, issue.Reason)
			result.Issues = append(result.Issues, *issue)
			continue
		}
		if coerced != nil {
			result.Values[field.Name] = coerced
		}
	}

	failed := make(map[string]struct{}, len(result.Issues))
	for _, issue := range result.Issues {
		failed[issue.Field] = struct{}{}
	}

	err := v.schema.VisitJSON(result.Values, openapi3.MultiErrors())
	for _, schemaErr := range flatten(err) {
		issue := v.issueFromSchemaError(locale, schemaErr)
		if _, skip := failed[issue.Field]; skip && issue.Rule == RuleRequired {
			// the coercion issue already explains why the value is absent
			continue
		}
		result.Issues = append(result.Issues, issue)
	}
	result.Issues = orderIssues(result.Issues, v.fields)
	return result, nil
}

// ValidateField checks a single raw value, for prompt-by-prompt front-ends.
func (v *Validator) ValidateField(ctx context.Context, locale, name, raw string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var field *model.Field
	for i := range v.fields {
		if v.fields[i].Name == name {
			field = &v.fields[i]
			break
		}
	}
	if field == nil {
		return nil, fmt.Errorf("validation: unknown field %q", name)
	}

	coerced, issue := coerce(*field, raw, true)
	if issue != nil {
		return []string{v.message(locale, issue.Field, issue.Rule, issue.Reason)}, nil
	}
	if coerced == nil {
		if v.isRequired(name) {
			return []string{v.message(locale, name, RuleRequired, "")}, nil
		}
		return nil, nil
	}

	prop := v.schema.Properties[name]
	if prop == nil || prop.Value == nil {
		return nil, nil
	}
	var messages []string
	for _, schemaErr := range flatten(prop.Value.VisitJSON(coerced, openapi3.MultiErrors())) {
		issue := v.issueFromSchemaError(locale, schemaErr)
		messages = append(messages, v.message(locale, name, issue.Rule, issue.Reason))
	}
	return messages, nil
}

func (v *Validator) isRequired(name string) bool {
	for _, item := range v.schema.Required {
		if item == name {
			return true
		}
	}
	return false
}

// coerce converts a raw form string into the JSON value the schema expects.
// Empty enum and number inputs count as absent; empty text stays a string so
// minLength reports it. Free text is checked exactly as submitted.
func coerce(field model.Field, raw string, present bool) (any, *Issue) {
	if !present {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	switch {
	case field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeNumber:
		if value == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, &Issue{Field: field.Name, Rule: RuleType, Reason: "value must be a number"}
		}
		return n, nil
	case field.Type == model.FieldTypeBoolean:
		if value == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, &Issue{Field: field.Name, Rule: RuleType, Reason: "value must be a boolean"}
		}
		return b, nil
	case len(field.Options) > 0:
		if value == "" {
			return nil, nil
		}
		return value, nil
	default:
		return raw, nil
	}
}

func (v *Validator) issueFromSchemaError(locale string, err error) Issue {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return Issue{Rule: "schema", Reason: err.Error(), Message: err.Error()}
	}
	field := ""
	if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
		field = pointer[0]
	}
	rule := normaliseRule(schemaErr.SchemaField)
	return Issue{
		Field:   field,
		Rule:    rule,
		Reason:  schemaErr.Reason,
		Message: v.message(locale, field, rule, schemaErr.Reason),
	}
}

// message resolves validation.<field>.<rule>, then validation.<rule>, then the
// validator's own reason.
func (v *Validator) message(locale, field, rule, reason string) string {
	if v.translator != nil {
		if field != "" {
			if msg, err := v.translator.Translate(locale, "validation."+field+"."+rule); err == nil && msg != "" {
				return msg
			}
		}
		if msg, err := v.translator.Translate(locale, "validation."+rule); err == nil && msg != "" {
			return msg
		}
	}
	if reason != "" {
		return reason
	}
	return rule
}

func normaliseRule(schemaField string) string {
	switch schemaField {
	case "exclusiveMinimum":
		return RuleMinimum
	case "exclusiveMaximum":
		return RuleMaximum
	default:
		return schemaField
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	multi, ok := err.(openapi3.MultiError)
	if !ok {
		return []error{err}
	}
	var out []error
	for _, inner := range multi {
		out = append(out, flatten(inner)...)
	}
	return out
}

func orderIssues(issues []Issue, fields []model.Field) []Issue {
	if len(issues) < 2 {
		return issues
	}
	rank := make(map[string]int, len(fields))
	for i, field := range fields {
		rank[field.Name] = i
	}
	ordered := make([]Issue, 0, len(issues))
	for _, field := range fields {
		for _, issue := range issues {
			if issue.Field == field.Name {
				ordered = append(ordered, issue)
			}
		}
	}
	for _, issue := range issues {
		if _, known := rank[issue.Field]; !known {
			ordered = append(ordered, issue)
		}
	}
	return ordered
}
