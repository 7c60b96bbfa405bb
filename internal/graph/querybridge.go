package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// QuerySpec is a single registered query: a predicate over one AST node
// plus a function that turns a matching node into named captures. The
// Bridge walks a parsed tree once and evaluates every QuerySpec registered
// for the file's language at every node, rather than compiling a native
// tree-sitter S-expression query — this reuses the same cursor-walk shape
// every language extractor already needs for node classification.
type QuerySpec struct {
	Key     string
	Match   func(node *tree_sitter.Node) bool
	Capture func(node *tree_sitter.Node, source []byte) map[string]string
}

// Match is one QuerySpec firing against one AST node.
type Match struct {
	Key      string
	Node     *tree_sitter.Node
	Captures map[string]string
}

// Bridge holds the registered QuerySpecs for every language and executes
// them against a parsed tree.
type Bridge struct {
	specs map[Language]map[string]QuerySpec
}

// NewBridge returns an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{specs: make(map[Language]map[string]QuerySpec)}
}

// Register adds spec under lang. Re-registering the same (lang, Key) pair
// replaces the previous definition.
func (b *Bridge) Register(lang Language, spec QuerySpec) {
	if b.specs[lang] == nil {
		b.specs[lang] = make(map[string]QuerySpec)
	}
	b.specs[lang][spec.Key] = spec
}

// Keys returns every query key registered for lang.
func (b *Bridge) Keys(lang Language) []string {
	out := make([]string, 0, len(b.specs[lang]))
	for k := range b.specs[lang] {
		out = append(out, k)
	}
	return out
}

// Execute walks root and returns one Match per (node, QuerySpec) pair where
// Match returned true, in document order, restricted to the query keys in
// keys (nil/empty means "every registered key for lang").
func (b *Bridge) Execute(lang Language, root *tree_sitter.Node, source []byte, keys []string) []Match {
	langSpecs := b.specs[lang]
	if len(langSpecs) == 0 {
		return nil
	}

	var active []QuerySpec
	if len(keys) == 0 {
		for _, spec := range langSpecs {
			active = append(active, spec)
		}
	} else {
		for _, k := range keys {
			if spec, ok := langSpecs[k]; ok {
				active = append(active, spec)
			}
		}
	}

	var matches []Match
	cursor := root.Walk()
	defer cursor.Close()
	b.walk(cursor, source, active, &matches)
	return matches
}

func (b *Bridge) walk(cursor *tree_sitter.TreeCursor, source []byte, specs []QuerySpec, out *[]Match) {
	node := cursor.Node()
	for _, spec := range specs {
		if spec.Match(node) {
			var captures map[string]string
			if spec.Capture != nil {
				captures = spec.Capture(node, source)
			}
			*out = append(*out, Match{Key: spec.Key, Node: node, Captures: captures})
		}
	}

	if cursor.GotoFirstChild() {
		b.walk(cursor, source, specs, out)
		for cursor.GotoNextSibling() {
			b.walk(cursor, source, specs, out)
		}
		cursor.GotoParent()
	}
}

// MappingResult is the outcome of running a caller-supplied CustomKeyMapping
// (exposed query name -> registered query key) through RunMapping.
type MappingResult struct {
	Matches     []Match
	ValidKeys   []string
	InvalidKeys []string
}

// RunMapping executes the registered keys named by mapping's values and
// reports which caller-facing names resolved to a registered key.
func (b *Bridge) RunMapping(lang Language, root *tree_sitter.Node, source []byte, mapping map[string]string) MappingResult {
	langSpecs := b.specs[lang]
	var result MappingResult
	var keys []string

	for exposedName, queryKey := range mapping {
		if _, ok := langSpecs[queryKey]; ok {
			result.ValidKeys = append(result.ValidKeys, exposedName)
			keys = append(keys, queryKey)
		} else {
			result.InvalidKeys = append(result.InvalidKeys, exposedName)
		}
	}

	result.Matches = b.Execute(lang, root, source, keys)
	return result
}

// NodeText returns the UTF-8 text a node spans.
func NodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

// NodeLines returns a node's 1-based inclusive start/end line range.
func NodeLines(node *tree_sitter.Node) (start, end int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}
