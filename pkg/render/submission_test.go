package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-matchcard/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	fields := append(render.HiddenValues(map[string]string{"name": "张三", "age": "25"}),
		render.CSRFToken("_csrf", "token123"),
		render.Hidden("  ", "skip"),
	)
	merged := render.MergeHiddenFields(base, fields...)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"name":     "张三",
		"age":      "25",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "age", Value: "25"},
		{Name: "existing", Value: "keep"},
		{Name: "name", Value: "张三"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeHiddenFields_Empty(t *testing.T) {
	if got := render.MergeHiddenFields(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
