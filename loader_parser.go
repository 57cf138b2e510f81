package matchcard

import (
	internalLoader "github.com/goliatone/go-matchcard/internal/openapi/loader"
	internalParser "github.com/goliatone/go-matchcard/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-matchcard/pkg/openapi"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers. Without WithFileSystem the loader
// resolves SourceKindFS sources against the embedded schema bundle.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	cfg := pkgopenapi.NewLoaderOptions(options...)
	if cfg.FileSystem == nil {
		cfg.FileSystem = SchemaFS()
	}
	return internalLoader.New(cfg)
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	cfg := pkgopenapi.NewParserOptions(options...)
	return internalParser.New(cfg)
}
