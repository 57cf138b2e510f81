package vanilla

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goliatone/go-matchcard/pkg/model"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/render/template"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla/components"
)

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	data      components.ComponentData

	used []string
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, partials map[string]string, globals map[string]any) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates: templates,
		registry:  registry,
		data: components.ComponentData{
			Template:      templates,
			ThemePartials: partials,
			Globals:       globals,
		},
	}
}

// render returns the template view of field with its control markup under
// "control".
func (r *componentRenderer) render(field model.Field, opts render.RenderOptions) (map[string]any, error) {
	widget := field.Widget()
	descriptor, ok := r.registry.Descriptor(widget)
	if !ok {
		return nil, fmt.Errorf("component %q not registered for field %q", widget, field.Name)
	}

	view := fieldView(field, opts)

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, view, r.data); err != nil {
		return nil, fmt.Errorf("render component %q for field %q: %w", widget, field.Name, err)
	}
	view["control"] = control.String()

	r.markUsed(descriptor.Name)
	return view, nil
}

func (r *componentRenderer) markUsed(name string) {
	for _, existing := range r.used {
		if existing == name {
			return
		}
	}
	r.used = append(r.used, name)
}

func (r *componentRenderer) stylesheets() []string {
	return r.registry.Stylesheets(r.used)
}

func fieldView(field model.Field, opts render.RenderOptions) map[string]any {
	value := ""
	if raw, ok := opts.Values[field.Name]; ok {
		value = stringValue(raw)
	} else if field.Default != nil {
		value = stringValue(field.Default)
	}

	options := make([]map[string]any, 0, len(field.Options))
	for _, opt := range field.Options {
		options = append(options, map[string]any{
			"value":    opt.Value,
			"label":    opt.Label,
			"selected": opt.Value == value,
			"id":       controlID(field.Name) + "-" + opt.Value,
		})
	}

	inputType := strings.TrimSpace(field.UIHints["inputType"])
	if inputType == "" {
		switch field.Widget() {
		case "number", "tel":
			inputType = field.Widget()
		default:
			inputType = "text"
		}
	}

	errors := opts.Errors[field.Name]
	view := map[string]any{
		"name":        field.Name,
		"id":          controlID(field.Name),
		"label":       field.Label,
		"required":    field.Required,
		"widget":      field.Widget(),
		"inputType":   inputType,
		"placeholder": field.Placeholder,
		"value":       value,
		"options":     options,
		"unit":        field.UIHints["unit"],
		"rows":        field.UIHints["rows"],
		"capture":     field.UIHints["capture"],
		"helpText":    field.UIHints["helpText"],
		"cssClass":    sanitizeClassList(field.UIHints["cssClass"]),
		"errors":      errors,
		"invalid":     len(errors) > 0,
	}
	if rule, ok := field.Rule(model.ValidationRuleMin); ok {
		view["min"] = rule.Params["value"]
	}
	if rule, ok := field.Rule(model.ValidationRuleMax); ok {
		view["max"] = rule.Params["value"]
	}
	if rule, ok := field.Rule(model.ValidationRuleMaxLength); ok {
		view["maxLength"] = rule.Params["value"]
	}
	if field.Widget() == "photo" && strings.HasPrefix(value, "data:image/") {
		view["preview"] = value
		view["value"] = ""
	}
	return view
}

// buildSections groups consecutive fields sharing a section hint.
func buildSections(fields []map[string]any, source []model.Field) []map[string]any {
	var (
		sections []map[string]any
		current  map[string]any
	)
	for i, view := range fields {
		key := source[i].UIHints["section"]
		if current == nil || current["key"] != key {
			label := source[i].UIHints["sectionLabel"]
			current = map[string]any{
				"key":    key,
				"label":  label,
				"fields": []map[string]any{},
			}
			sections = append(sections, current)
		}
		current["fields"] = append(current["fields"].([]map[string]any), view)
	}
	return sections
}
