package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
)

const extensionNamespace = "x-matchcard"

// Builder converts OpenAPI operations into form models.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	return &Builder{opts: opts}
}

// Build transforms an OpenAPI operation into a FormModel. Fields follow the
// `order` extension of each property; properties without one sort after the
// ordered ones by name.
func (b *Builder) Build(op pkgopenapi.Operation) (FormModel, error) {
	if err := validateOperation(op); err != nil {
		return FormModel{}, err
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
		Metadata:    make(map[string]string),
	}

	formExt := metadataFromExtensions(op.Extensions)
	bodyExt := metadataFromExtensions(op.RequestBody.Extensions)
	mergeMetadata(form.Metadata, formExt)
	mergeMetadata(form.Metadata, bodyExt)
	form.UIHints = mergeUIHints(form.UIHints, filterUIHints(formExt))
	form.UIHints = mergeUIHints(form.UIHints, filterUIHints(bodyExt))

	fields, err := b.fieldsFromObject(op.RequestBody)
	if err != nil {
		return FormModel{}, err
	}
	form.Fields = fields

	if len(form.Metadata) == 0 {
		form.Metadata = nil
	}
	return form, nil
}

func (b *Builder) fieldsFromObject(schema pkgopenapi.Schema) ([]Field, error) {
	fields := make([]Field, 0, len(schema.Properties))
	for name, prop := range schema.Properties {
		field, err := b.fieldFromPrimitive(name, prop, schema.IsRequired(name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	sort.SliceStable(fields, func(i, j int) bool {
		oi, oj := fields[i].Order, fields[j].Order
		switch {
		case oi == oj:
			return fields[i].Name < fields[j].Name
		case oi == 0:
			return false
		case oj == 0:
			return true
		default:
			return oi < oj
		}
	})
	return fields, nil
}

func (b *Builder) fieldFromPrimitive(name string, schema pkgopenapi.Schema, required bool) (Field, error) {
	field := Field{
		Name:        name,
		Type:        mapType(schema.Type),
		Format:      schema.Format,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
		field.Options = make([]Option, 0, len(schema.Enum))
		for _, value := range schema.Enum {
			str, ok := CanonicalizeExtensionValue(value)
			if !ok {
				return Field{}, fmt.Errorf("model builder: field %q has a non-scalar enum value %v", name, value)
			}
			field.Options = append(field.Options, Option{Value: str, Label: str})
		}
	}
	applyValidations(&field, schema)

	ext := metadataFromExtensions(schema.Extensions)
	if len(ext) > 0 {
		field.Metadata = make(map[string]string, len(ext))
		mergeMetadata(field.Metadata, ext)
	}
	field.UIHints = mergeUIHints(field.UIHints, filterUIHints(ext))
	if raw, ok := ext["order"]; ok {
		order, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Field{}, fmt.Errorf("model builder: field %q has invalid order %q", name, raw)
		}
		field.Order = int(math.Round(order))
	}
	if placeholder := field.UIHints["placeholder"]; placeholder != "" {
		field.Placeholder = placeholder
	}
	applyFormatHints(&field)
	return field, nil
}

func applyFormatHints(field *Field) {
	if field.UIHints["inputType"] != "" {
		return
	}
	var inputType string
	switch {
	case field.UIHints["widget"] == "tel" || field.Format == "tel":
		inputType = "tel"
	case field.Type == FieldTypeInteger || field.Type == FieldTypeNumber:
		inputType = "number"
	}
	if inputType != "" {
		field.UIHints = mergeUIHints(field.UIHints, map[string]string{"inputType": inputType})
	}
}

func mapType(schemaType string) FieldType {
	switch schemaType {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "object":
		return FieldTypeObject
	default:
		return FieldTypeString
	}
}

func applyValidations(field *Field, schema pkgopenapi.Schema) {
	if schema.Minimum != nil {
		params := map[string]string{"value": formatFloat(*schema.Minimum)}
		if schema.ExclusiveMinimum {
			params["exclusive"] = "true"
		}
		field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleMin, Params: params})
	}
	if schema.Maximum != nil {
		params := map[string]string{"value": formatFloat(*schema.Maximum)}
		if schema.ExclusiveMaximum {
			params["exclusive"] = "true"
		}
		field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleMax, Params: params})
	}
	if schema.MinLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MinLength)},
		})
	}
	if schema.MaxLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MaxLength)},
		})
	}
	if schema.Pattern != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// ParseUIExtensions extracts metadata and UI hints from x-matchcard extensions.
// It returns nil maps when no supported metadata is found.
func ParseUIExtensions(ext map[string]any) (map[string]string, map[string]string) {
	metadata := metadataFromExtensions(ext)
	return metadata, filterUIHints(metadata)
}

func metadataFromExtensions(ext map[string]any) map[string]string {
	if len(ext) == 0 {
		return nil
	}

	result := make(map[string]string)
	for key, value := range ext {
		if key == extensionNamespace {
			nested, ok := value.(map[string]any)
			if !ok {
				continue
			}
			for nestedKey, nestedValue := range nested {
				if str, ok := CanonicalizeExtensionValue(nestedValue); ok {
					result[nestedKey] = str
				}
			}
			continue
		}
		if strings.HasPrefix(key, extensionNamespace+"-") {
			trimmed := strings.TrimPrefix(key, extensionNamespace+"-")
			if str, ok := CanonicalizeExtensionValue(value); ok {
				result[trimmed] = str
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

func mergeMetadata(target map[string]string, updates map[string]string) {
	if target == nil {
		return
	}
	for key, value := range updates {
		target[key] = value
	}
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
