package template

import (
	"io"
)

// TemplateRenderer is the engine contract renderers depend on. Output is
// returned and also copied to every writer in out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
