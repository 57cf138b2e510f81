// Package matchcard bundles the registration schema and message catalogs and
// exposes constructors for the OpenAPI loading pipeline.
package matchcard

import (
	"context"
	"embed"
	"io/fs"

	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
)

const (
	// SchemaPath is the location of the registration schema inside SchemaFS.
	SchemaPath = "registration.yaml"
	// OperationID identifies the registration operation in the schema.
	OperationID = "registerProfile"
	// LocalesDir is the catalog directory inside LocalesFS.
	LocalesDir = "."
)

//go:embed schema/*.yaml
var schemaFiles embed.FS

//go:embed locales/*.yaml
var localeFiles embed.FS

// SchemaFS exposes the embedded schema directory.
func SchemaFS() fs.FS {
	sub, err := fs.Sub(schemaFiles, "schema")
	if err != nil {
		panic(err)
	}
	return sub
}

// LocalesFS exposes the embedded locale catalogs.
func LocalesFS() fs.FS {
	sub, err := fs.Sub(localeFiles, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// SchemaSource returns the source of the embedded registration schema.
func SchemaSource() pkgopenapi.Source {
	return pkgopenapi.SourceFromFS(SchemaPath)
}

// LoadDocument loads the registration schema. An empty path selects the
// embedded copy; anything else is read from disk.
func LoadDocument(ctx context.Context, path string) (pkgopenapi.Document, error) {
	src := SchemaSource()
	if path != "" {
		src = pkgopenapi.SourceFromFile(path)
	}
	return NewLoader().Load(ctx, src)
}
