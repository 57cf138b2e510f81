package render_test

import (
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-matchcard/pkg/render"
)

func TestThemeSelector_DefaultsAndVariants(t *testing.T) {
	selector, err := render.NewThemeSelector(render.DefaultThemeName, "", render.DefaultThemeManifest())
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	selection, err := selector.Select("", "")
	if err != nil {
		t.Fatalf("select default: %v", err)
	}
	cfg := render.ThemeConfig(selection)
	if cfg.Theme != render.DefaultThemeName {
		t.Fatalf("unexpected theme %q", cfg.Theme)
	}
	if cfg.CSSVars["--primary"] != cfg.Tokens["primary"] {
		t.Fatalf("css vars not derived from tokens: %v", cfg.CSSVars)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/matchcard.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %q", got)
	}

	classic, err := selector.Select(render.DefaultThemeName, "classic")
	if err != nil {
		t.Fatalf("select classic: %v", err)
	}
	classicCfg := render.ThemeConfig(classic)
	if classicCfg.Tokens["primary"] != "#be123c" {
		t.Fatalf("variant tokens not applied, got %q", classicCfg.Tokens["primary"])
	}
	if classicCfg.Tokens["surface"] != "#ffffff" {
		t.Fatalf("base tokens lost when applying variant")
	}

	if _, err := selector.Select(render.DefaultThemeName, "neon"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
	if _, err := selector.Select("unknown", ""); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
}

func TestThemeSelector_RequiresDefault(t *testing.T) {
	if _, err := render.NewThemeSelector("missing", ""); err == nil {
		t.Fatalf("expected error when default theme is not registered")
	}
}

func TestCSSVarsStyle(t *testing.T) {
	got := render.CSSVarsStyle(map[string]string{"--b": "2", "--a": "1"})
	if got != "--a: 1; --b: 2;" {
		t.Fatalf("unexpected style %q", got)
	}
	if render.ThemeConfig(&theme.Selection{}) != nil {
		t.Fatalf("expected nil config for selection without manifest")
	}
}
