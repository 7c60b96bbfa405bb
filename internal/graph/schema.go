// Package graph implements the code graph engine: the node/edge data model,
// the edge type registry, a pluggable store, and the inference and
// resolution engines layered on top of it.
package graph

import "time"

// NodeType classifies a node in the code graph. Unlike EdgeType, the node
// type set is fixed by this package — only the edge type registry is
// open-ended.
type NodeType string

const (
	NodeTypeFile          NodeType = "file"
	NodeTypeClass         NodeType = "class"
	NodeTypeFunction      NodeType = "function"
	NodeTypeMethod        NodeType = "method"
	NodeTypeProperty      NodeType = "property"
	NodeTypeVariable      NodeType = "variable"
	NodeTypeType          NodeType = "type"
	NodeTypeInterface     NodeType = "interface"
	NodeTypeEnum          NodeType = "enum"
	NodeTypeImportSource  NodeType = "import-source"
	NodeTypeHeadingSymbol NodeType = "heading-symbol"
	NodeTypeUnknownSymbol NodeType = "unknown-symbol"
	NodeTypeAliasSymbol   NodeType = "alias-symbol"
	NodeTypeCluster       NodeType = "cluster"
)

// Language identifies a source language an extractor understands.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangJSX        Language = "jsx"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangMarkdown   Language = "markdown"
)

// SupportedLanguages is the full set of languages this engine extracts.
var SupportedLanguages = []Language{
	LangGo, LangTypeScript, LangTSX, LangJavaScript, LangJSX,
	LangJava, LangPython, LangMarkdown,
}

// Node is a single vertex in the code graph: a file, a symbol defined
// within one, or a placeholder created by the unknown-symbol resolver.
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Name       string         `json:"name"`
	FilePath   string         `json:"filePath"`
	Language   Language       `json:"language,omitempty"`
	StartLine  int            `json:"startLine,omitempty"`
	EndLine    int            `json:"endLine,omitempty"`
	Exported   bool           `json:"exported,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Edge is a directed, typed relationship between two nodes, scoped to the
// file (or synthetic source) that produced it.
type Edge struct {
	SourceID   string         `json:"sourceId"`
	TargetID   string         `json:"targetId"`
	Type       string         `json:"type"`
	SourceFile string         `json:"sourceFile"`
	Confidence float64        `json:"confidence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// UserSourcePrefix marks an edge's SourceFile as a user-authored annotation
// rather than analyzer output. Edges carrying it are excluded from
// ownership-scoped bulk deletes regardless of their Type.
const UserSourcePrefix = "user:"

// IsUserSourced reports whether an edge was created outside of the
// ownership protocol and must survive re-analysis cleanup.
func (e Edge) IsUserSourced() bool {
	return len(e.SourceFile) >= len(UserSourcePrefix) && e.SourceFile[:len(UserSourcePrefix)] == UserSourcePrefix
}

// GraphStats summarizes the contents of a graph store.
type GraphStats struct {
	NodeCount      int            `json:"nodeCount"`
	EdgeCount      int            `json:"edgeCount"`
	NodesByType    map[string]int `json:"nodesByType"`
	EdgesByType    map[string]int `json:"edgesByType"`
}

// DependencyChain is an ordered sequence of node IDs forming a traversal
// path. Nothing in this package produces one.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}
