package model_test

import (
	"testing"

	"github.com/goliatone/go-matchcard/pkg/model"
)

func TestParseUIExtensions(t *testing.T) {
	extensions := map[string]any{
		"x-matchcard": map[string]any{
			"labelKey": "fields.name.label",
			"order":    float64(1),
			"widget":   "text",
		},
		"x-matchcard-section": "basic",
		"x-other":             "ignored",
	}

	metadata, hints := model.ParseUIExtensions(extensions)

	if got := metadata["order"]; got != "1" {
		t.Fatalf("expected order metadata, got %q", got)
	}
	if got := metadata["section"]; got != "basic" {
		t.Fatalf("expected prefixed section metadata, got %q", got)
	}
	if _, ok := metadata["x-other"]; ok {
		t.Fatalf("expected foreign extension to be ignored")
	}
	if _, ok := hints["order"]; ok {
		t.Fatalf("order is metadata only, not a UI hint")
	}
	if got := hints["labelKey"]; got != "fields.name.label" {
		t.Fatalf("expected labelKey hint, got %q", got)
	}
	if got := hints["widget"]; got != "text" {
		t.Fatalf("expected widget hint, got %q", got)
	}
}
