package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestBuilder_OrdersFieldsByExtension(t *testing.T) {
	op := pkgopenapi.MustNewOperation("registerProfile", "post", "/register", pkgopenapi.Schema{
		Type:     "object",
		Required: []string{"name", "age"},
		Properties: map[string]pkgopenapi.Schema{
			"name": {Type: "string", Extensions: map[string]any{"x-matchcard": map[string]any{"order": float64(1)}}},
			"age":  {Type: "integer", Extensions: map[string]any{"x-matchcard": map[string]any{"order": float64(2)}}},
			"zeta": {Type: "string"},
			"beta": {Type: "string", Extensions: map[string]any{"x-matchcard-order": float64(3)}},
		},
	})

	form, err := New(Options{}).Build(op)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var names []string
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	if diff := cmp.Diff([]string{"name", "age", "beta", "zeta"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	if form.Method != "POST" {
		t.Fatalf("expected upper-cased method, got %q", form.Method)
	}
	if !form.Fields[0].Required || form.Fields[2].Required {
		t.Fatalf("unexpected required flags: %+v", form.Fields)
	}
}

func TestBuilder_ValidationsAndOptions(t *testing.T) {
	op := pkgopenapi.MustNewOperation("registerProfile", "POST", "/register", pkgopenapi.Schema{
		Type: "object",
		Properties: map[string]pkgopenapi.Schema{
			"age": {
				Type:    "integer",
				Minimum: floatPtr(18),
				Maximum: floatPtr(60),
				Default: float64(25),
			},
			"name": {
				Type:      "string",
				MinLength: intPtr(2),
				MaxLength: intPtr(10),
				Pattern:   `^\S+$`,
				Extensions: map[string]any{"x-matchcard": map[string]any{
					"labelKey":    "fields.name.label",
					"placeholder": "Your name",
					"unknownHint": "kept in metadata",
				}},
			},
			"gender": {
				Type: "string",
				Enum: []any{"male", "female", "other"},
				Extensions: map[string]any{"x-matchcard": map[string]any{
					"widget": "radio",
				}},
			},
		},
	})

	form, err := New(Options{Labeler: func(name string) string { return "L:" + name }}).Build(op)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	age, _ := form.Field("age")
	wantAge := []ValidationRule{
		{Kind: ValidationRuleMin, Params: map[string]string{"value": "18"}},
		{Kind: ValidationRuleMax, Params: map[string]string{"value": "60"}},
	}
	if diff := cmp.Diff(wantAge, age.Validations); diff != "" {
		t.Fatalf("age validations mismatch (-want +got):\n%s", diff)
	}
	if age.UIHints["inputType"] != "number" || age.Widget() != "number" {
		t.Fatalf("expected number input for age, got %v", age.UIHints)
	}

	name, _ := form.Field("name")
	if name.Label != "L:name" {
		t.Fatalf("expected labeler output, got %q", name.Label)
	}
	if name.Placeholder != "Your name" {
		t.Fatalf("expected placeholder hint, got %q", name.Placeholder)
	}
	if _, ok := name.UIHints["unknownHint"]; ok {
		t.Fatalf("unexpected hint leaked into UIHints")
	}
	if name.Metadata["unknownHint"] != "kept in metadata" {
		t.Fatalf("expected metadata to retain extension, got %v", name.Metadata)
	}
	if rule, ok := name.Rule(ValidationRulePattern); !ok || rule.Params["pattern"] != `^\S+$` {
		t.Fatalf("expected pattern rule, got %+v", name.Validations)
	}

	gender, _ := form.Field("gender")
	wantOptions := []Option{{Value: "male", Label: "male"}, {Value: "female", Label: "female"}, {Value: "other", Label: "other"}}
	if diff := cmp.Diff(wantOptions, gender.Options); diff != "" {
		t.Fatalf("gender options mismatch (-want +got):\n%s", diff)
	}
	if gender.Widget() != "radio" {
		t.Fatalf("expected radio widget, got %q", gender.Widget())
	}
}

func TestBuilder_RejectsNestedObjects(t *testing.T) {
	op := pkgopenapi.MustNewOperation("x", "POST", "/x", pkgopenapi.Schema{
		Type: "object",
		Properties: map[string]pkgopenapi.Schema{
			"address": {Type: "object"},
		},
	})
	if _, err := New(Options{}).Build(op); err == nil {
		t.Fatalf("expected nested object to be rejected")
	}
}

func TestFormModel_CloneIsDeep(t *testing.T) {
	form := FormModel{Fields: []Field{{Name: "a", UIHints: map[string]string{"widget": "text"}, Options: []Option{{Value: "x", Label: "x"}}}}}
	clone := form.Clone()
	clone.Fields[0].UIHints["widget"] = "textarea"
	clone.Fields[0].Options[0].Label = "changed"

	if form.Fields[0].UIHints["widget"] != "text" || form.Fields[0].Options[0].Label != "x" {
		t.Fatalf("clone mutated source: %+v", form.Fields[0])
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"partnerRequirements": "Partner Requirements",
		"marriage_status":     "Marriage Status",
		"height2":             "Height 2",
		"":                    "",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
