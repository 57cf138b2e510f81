// Package model defines the typed form model consumed by renderers. Builders
// reside in internal/model but return the types defined here. Validation rules
// expose canonical identifiers (min/max, minLength/maxLength, pattern) with
// string parameters so renderers can map them onto HTML attributes or prompt
// validators. Schema extensions under the `x-matchcard` namespace flow into
// Field metadata while the curated UIHints map surfaces renderer-facing
// directives such as `widget`, `section`, `labelKey` and `unit`.
package model
