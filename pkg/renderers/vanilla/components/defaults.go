package components

import (
	"bytes"
	"fmt"
	"strings"
)

const templatePrefix = "templates/components/"

// NewDefaultRegistry constructs a registry with the registration widgets.
// text, number and tel share the input template.
func NewDefaultRegistry() *Registry {
	registry := New()

	input := TemplateComponent("forms.input", templatePrefix+"input.tpl")
	registry.MustRegister("text", Descriptor{Renderer: input})
	registry.MustRegister("number", Descriptor{Renderer: input})
	registry.MustRegister("tel", Descriptor{Renderer: input})
	registry.MustRegister("textarea", Descriptor{
		Renderer: TemplateComponent("forms.textarea", templatePrefix+"textarea.tpl"),
	})
	registry.MustRegister("select", Descriptor{
		Renderer: TemplateComponent("forms.select", templatePrefix+"select.tpl"),
	})
	registry.MustRegister("radio", Descriptor{
		Renderer: TemplateComponent("forms.radio", templatePrefix+"radio.tpl"),
	})
	registry.MustRegister("photo", Descriptor{
		Renderer: TemplateComponent("forms.photo", templatePrefix+"photo.tpl"),
	})

	return registry
}

// TemplateComponent renders templateName with {"field": ...} plus the
// component globals. A theme partial registered under partialKey replaces the
// template.
func TemplateComponent(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field map[string]any, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolved := templateName
		if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
			resolved = candidate
		}

		payload := make(map[string]any, len(data.Globals)+1)
		for key, value := range data.Globals {
			payload[key] = value
		}
		payload["field"] = field

		rendered, err := data.Template.RenderTemplate(resolved, payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolved, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}
