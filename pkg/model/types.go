package model

import internalmodel "github.com/goliatone/go-matchcard/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

// ValidationRule re-exports the validation rule type.
type ValidationRule = internalmodel.ValidationRule

// Option re-exports enum option metadata.
type Option = internalmodel.Option

// Field re-exports the form field model.
type Field = internalmodel.Field

// FormModel re-exports the top-level form model.
type FormModel = internalmodel.FormModel

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeObject  = internalmodel.FieldTypeObject

	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)
