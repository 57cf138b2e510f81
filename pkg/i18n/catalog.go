// Package i18n loads YAML message catalogs and implements render.Translator.
// Catalog files are named after their locale (zh-CN.yaml, en.yaml); nested
// maps flatten into dotted keys such as "validation.name.minLength".
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-matchcard/pkg/render"
)

// ErrMissingKey is returned when no catalog in the fallback chain has the key.
var ErrMissingKey = errors.New("i18n: missing translation")

// Catalog holds flattened messages per locale.
type Catalog struct {
	messages map[string]map[string]string
	fallback string
}

var _ render.Translator = (*Catalog)(nil)

// Option configures a Catalog.
type Option func(*Catalog)

// WithFallbackLocale sets the locale consulted when a key is missing from the
// requested one.
func WithFallbackLocale(locale string) Option {
	return func(c *Catalog) {
		c.fallback = locale
	}
}

// Load reads every *.yaml file in dir of fsys.
func Load(fsys fs.FS, dir string, options ...Option) (*Catalog, error) {
	if fsys == nil {
		return nil, errors.New("i18n: filesystem is required")
	}
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("i18n: glob %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("i18n: no catalogs found in %q", dir)
	}

	c := &Catalog{messages: make(map[string]map[string]string, len(matches))}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	for _, name := range matches {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		locale := strings.TrimSuffix(path.Base(name), path.Ext(name))
		if err := c.Add(locale, raw); err != nil {
			return nil, err
		}
	}

	if c.fallback != "" {
		if _, ok := c.messages[c.fallback]; !ok {
			return nil, fmt.Errorf("i18n: fallback locale %q has no catalog", c.fallback)
		}
	}
	return c, nil
}

// Add parses a YAML catalog and merges it into the given locale.
func (c *Catalog) Add(locale string, raw []byte) error {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("i18n: parse %s catalog: %w", locale, err)
	}
	if c.messages == nil {
		c.messages = make(map[string]map[string]string)
	}
	target := c.messages[locale]
	if target == nil {
		target = make(map[string]string)
		c.messages[locale] = target
	}
	flatten("", tree, target)
	return nil
}

// Translate implements render.Translator. Lookup walks the requested locale,
// its base language ("zh" for "zh-CN") and finally the fallback locale.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	for _, candidate := range c.chain(locale) {
		if msg, ok := c.messages[candidate][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingKey, key, locale)
}

// Message translates key or returns it unchanged; handy for plain strings in
// CLI output and handlers.
func (c *Catalog) Message(locale, key string, args ...any) string {
	msg, err := c.Translate(locale, key, args...)
	if err != nil {
		return key
	}
	return msg
}

// Has reports whether a catalog exists for the locale.
func (c *Catalog) Has(locale string) bool {
	_, ok := c.messages[locale]
	return ok
}

// Locales lists the loaded locales in sorted order.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) chain(locale string) []string {
	chain := make([]string, 0, 3)
	if locale != "" {
		chain = append(chain, locale)
		if idx := strings.IndexAny(locale, "-_"); idx > 0 {
			chain = append(chain, locale[:idx])
		}
	}
	if c.fallback != "" && c.fallback != locale {
		chain = append(chain, c.fallback)
	}
	return chain
}

func flatten(prefix string, node any, out map[string]string) {
	switch value := node.(type) {
	case map[string]any:
		for key, child := range value {
			flatten(joinKey(prefix, key), child, out)
		}
	case nil:
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(value)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
