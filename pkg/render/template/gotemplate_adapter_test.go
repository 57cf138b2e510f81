package template_test

import (
	"embed"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-matchcard/pkg/render/template/gotemplate"
	"github.com/goliatone/go-matchcard/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, w)
	})
	assertGolden(t, "hello.golden", result, written)
}

func TestGoTemplateEngine_NL2BR(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-nl2br", map[string]any{"text": "a & b <b>x</b>\r\nsecond"}, w)
	})
	assertGolden(t, "use-nl2br.golden", result, written)
}

func TestGoTemplateEngine_NL2BRKeepsMarkupAsText(t *testing.T) {
	engine := newEngine(t)

	out, err := engine.RenderTemplate("use-nl2br", map[string]any{"text": "I love <cats>\n需要 <strong>真诚</strong> 的人"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<p>I love &lt;cats&gt;<br>需要 &lt;strong&gt;真诚&lt;/strong&gt; 的人</p>\n"
	if out != want {
		t.Fatalf("nl2br = %q, want %q", out, want)
	}
}

func TestGoTemplateEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("nope", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestGoTemplateEngine_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without templates fs")
	}
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	if testsupport.WriteMaybeGolden(t, path, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, path)
	if result != want {
		t.Fatalf("render mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
