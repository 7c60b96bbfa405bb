package graph

import "context"

// ParseResult holds everything a single-file parse contributed to the
// graph: the file node itself, the symbol/structural nodes it defines, and
// the edges an extractor could determine without cross-file resolution
// (import specifiers are emitted here still unresolved; see
// ImportResolver for the imports_file/imports_library classification).
type ParseResult struct {
	File  Node   `json:"file"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Parser extracts structural information from source files.
type Parser interface {
	Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error)
	SupportedLanguages() []Language
	Close() error
}
