// Package openapi exposes the public contracts for the schema loader and
// parser stages. The registration form is declared as an OpenAPI 3 document;
// implementations live under internal/openapi so kin-openapi types stay out of
// the public surface of this package.
package openapi
