package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName is the built-in palette used for pages and the exported
// card.
const DefaultThemeName = "hemei"

// DefaultThemeManifest returns the built-in palette. Tokens are plain CSS
// colour values so both the stylesheet and the card rasteriser can use them.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"primary":       "#e11d48",
			"primary-soft":  "#fff1f2",
			"accent":        "#f59e0b",
			"surface":       "#ffffff",
			"background":    "#fdf2f8",
			"text":          "#1f2937",
			"text-muted":    "#6b7280",
			"border":        "#fecdd3",
			"error":         "#dc2626",
			"header-start":  "#f43f5e",
			"header-end":    "#ec4899",
			"header-text":   "#ffffff",
			"card-label":    "#9ca3af",
			"card-divider":  "#f3f4f6",
			"notice":        "#b91c1c",
			"notice-soft":   "#fee2e2",
			"contact-badge": "#16a34a",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files: map[string]string{
				"stylesheet": "matchcard.css",
			},
		},
		Variants: map[string]theme.Variant{
			"classic": {
				Tokens: map[string]string{
					"primary":      "#be123c",
					"header-start": "#be123c",
					"header-end":   "#9f1239",
				},
			},
		},
	}
}

// ThemeSelector resolves manifests registered with go-theme into selections.
// It satisfies theme.ThemeSelector.
type ThemeSelector struct {
	provider       manifestRegistrar
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ThemeSelector)(nil)

type manifestRegistrar interface {
	Register(*theme.Manifest) error
}

// NewThemeSelector registers the manifests with a go-theme registry and
// returns a selector defaulting to defaultTheme/defaultVariant.
func NewThemeSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*ThemeSelector, error) {
	s := &ThemeSelector{
		provider:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := s.provider.Register(manifest); err != nil {
			return nil, fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
		}
		s.manifests[manifest.Name] = manifest
	}
	if _, ok := s.manifests[defaultTheme]; !ok {
		return nil, fmt.Errorf("render: default theme %q is not registered", defaultTheme)
	}
	return s, nil
}

// Select returns the named theme and variant, falling back to the defaults
// for empty names.
func (s *ThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = s.defaultTheme
	}
	if variant == "" && name == s.defaultTheme {
		variant = s.defaultVariant
	}

	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ThemeConfig flattens a selection into the renderer config: manifest tokens
// overlaid by variant tokens, CSS custom properties derived from the tokens,
// merged template partials and an asset resolver.
func ThemeConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	tokens := mergeStrings(manifest.Tokens, nil)
	partials := mergeStrings(manifest.Templates, nil)
	files := mergeStrings(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if hasVariant {
		tokens = mergeStrings(tokens, variant.Tokens)
		partials = mergeStrings(partials, variant.Templates)
		files = mergeStrings(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || prefix == "" {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}
}

// CSSVarsStyle renders CSS custom properties as a deterministic inline
// declaration list.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

func mergeStrings(dst, src map[string]string) map[string]string {
	out := make(map[string]string, len(dst)+len(src))
	for key, value := range dst {
		out[key] = value
	}
	for key, value := range src {
		out[key] = value
	}
	return out
}
