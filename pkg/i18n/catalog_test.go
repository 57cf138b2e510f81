package i18n_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-matchcard/pkg/i18n"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"locales/zh-CN.yaml": &fstest.MapFile{Data: []byte(`
validation:
  name:
    minLength: 姓名至少2个字符
options:
  house:
    "yes": 有
footer:
  copyright: "和美缘婚恋网 © %d 版权所有"
`)},
		"locales/en.yaml": &fstest.MapFile{Data: []byte(`
validation:
  required: This field is required
  name:
    minLength: Name must be at least 2 characters
`)},
	}
}

func TestCatalog_Translate(t *testing.T) {
	catalog, err := i18n.Load(testFS(), "locales", i18n.WithFallbackLocale("en"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff([]string{"en", "zh-CN"}, catalog.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		locale string
		key    string
		args   []any
		want   string
	}{
		{locale: "zh-CN", key: "validation.name.minLength", want: "姓名至少2个字符"},
		{locale: "zh-CN", key: "options.house.yes", want: "有"},
		{locale: "zh-CN", key: "validation.required", want: "This field is required"},
		{locale: "en-GB", key: "validation.name.minLength", want: "Name must be at least 2 characters"},
		{locale: "zh-CN", key: "footer.copyright", args: []any{2026}, want: "和美缘婚恋网 © 2026 版权所有"},
	}
	for _, tc := range cases {
		got, err := catalog.Translate(tc.locale, tc.key, tc.args...)
		if err != nil {
			t.Fatalf("translate %s/%s: %v", tc.locale, tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("translate %s/%s = %q, want %q", tc.locale, tc.key, got, tc.want)
		}
	}

	if _, err := catalog.Translate("zh-CN", "nope"); !errors.Is(err, i18n.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if got := catalog.Message("zh-CN", "nope"); got != "nope" {
		t.Fatalf("Message fallback = %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := i18n.Load(fstest.MapFS{}, "locales"); err == nil {
		t.Fatalf("expected error for empty directory")
	}
	if _, err := i18n.Load(testFS(), "locales", i18n.WithFallbackLocale("fr")); err == nil {
		t.Fatalf("expected error for unknown fallback locale")
	}
	bad := fstest.MapFS{"locales/en.yaml": &fstest.MapFile{Data: []byte("a: [")}}
	if _, err := i18n.Load(bad, "locales"); err == nil {
		t.Fatalf("expected parse error")
	}
}
