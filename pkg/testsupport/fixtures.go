// Package testsupport holds fixtures shared by package tests: the embedded
// registration form, its catalogs and golden-file helpers.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-matchcard"
	"github.com/goliatone/go-matchcard/pkg/i18n"
	pkgmodel "github.com/goliatone/go-matchcard/pkg/model"
	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
	"github.com/goliatone/go-matchcard/pkg/registrant"
)

// Fixture bundles the embedded registration schema artefacts.
type Fixture struct {
	Document pkgopenapi.Document
	Form     pkgmodel.FormModel
	Catalog  *i18n.Catalog
}

// Registration loads the embedded schema, builds the form model and the
// catalogs. The form is not localised.
func Registration(t *testing.T) Fixture {
	t.Helper()
	ctx := context.Background()

	doc, err := matchcard.LoadDocument(ctx, "")
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	ops, err := matchcard.NewParser().Operations(ctx, doc)
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	op, ok := ops[matchcard.OperationID]
	if !ok {
		t.Fatalf("operation %q missing", matchcard.OperationID)
	}
	form, err := pkgmodel.NewBuilder().Build(op)
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	catalog, err := i18n.Load(matchcard.LocalesFS(), matchcard.LocalesDir, i18n.WithFallbackLocale("zh-CN"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return Fixture{Document: doc, Form: form, Catalog: catalog}
}

// ValidValues returns raw form input that passes every rule. The photo key
// carries the marker value set once an upload is attached.
func ValidValues() map[string]string {
	return map[string]string{
		registrant.FieldName:                "李小明",
		registrant.FieldGender:              "male",
		registrant.FieldAge:                 "30",
		registrant.FieldHeight:              "175",
		registrant.FieldWeight:              "68.5",
		registrant.FieldPhone:               "13812345678",
		registrant.FieldEducation:           "master",
		registrant.FieldOccupation:          "工程师",
		registrant.FieldIncome:              "20k-30k",
		registrant.FieldMarriageStatus:      "single",
		registrant.FieldAcceptLongDistance:  "no",
		registrant.FieldHouse:               "yes",
		registrant.FieldCar:                 "no",
		registrant.FieldLocation:            "上海",
		registrant.FieldDescription:         "热爱生活，喜欢旅行和摄影。",
		registrant.FieldPartnerRequirements: "善良真诚，有共同的兴趣爱好。",
		registrant.FieldPhoto:               "image/jpeg",
	}
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
