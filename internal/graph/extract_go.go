package graph

import (
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// RegisterGoQueries registers the Go-language QuerySpecs on bridge.
func RegisterGoQueries(bridge *Bridge) {
	kinds := map[string]bool{
		"function_declaration": true,
		"method_declaration":   true,
		"type_declaration":     true,
		"import_spec":          true,
		"call_expression":      true,
	}
	for kind := range kinds {
		k := kind
		bridge.Register(LangGo, QuerySpec{
			Key: k,
			Match: func(n *tree_sitter.Node) bool {
				return n.Kind() == k
			},
		})
	}
}

// goExtractor extracts symbols and edges from Go source via the query
// Bridge, generalizing the per-kind switch a cursor-walk extractor would
// use into Bridge.Execute matches.
type goExtractor struct{}

func (e *goExtractor) Extract(bridge *Bridge, lang Language, root *tree_sitter.Node, source []byte, projectName, filePath string) ([]Node, []Edge) {
	matches := bridge.Execute(lang, root, source, nil)

	var nodes []Node
	var edges []Edge

	for _, m := range matches {
		switch m.Key {
		case "function_declaration":
			if n := e.extractFunc(m.Node, source, projectName, filePath, NodeTypeFunction); n != nil {
				nodes = append(nodes, *n)
			}
		case "method_declaration":
			if n := e.extractFunc(m.Node, source, projectName, filePath, NodeTypeMethod); n != nil {
				nodes = append(nodes, *n)
			}
		case "type_declaration":
			nodes = append(nodes, e.extractTypeDecl(m.Node, source, projectName, filePath)...)
		case "import_spec":
			if ed := e.extractImport(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		case "call_expression":
			if ed := e.extractCall(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		}
	}

	return nodes, edges
}

func (e *goExtractor) extractFunc(node *tree_sitter.Node, source []byte, projectName, filePath string, nodeType NodeType) *Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := NodeText(nameNode, source)
	start, end := NodeLines(node)
	return &Node{
		ID:        BuildIdentifier(projectName, filePath, nodeType, name),
		Type:      nodeType,
		Name:      name,
		FilePath:  filePath,
		Language:  LangGo,
		StartLine: start,
		EndLine:   end,
		Exported:  isGoExported(name),
	}
}

func (e *goExtractor) extractTypeDecl(node *tree_sitter.Node, source []byte, projectName, filePath string) []Node {
	var out []Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := NodeText(nameNode, source)
		nodeType := NodeTypeType
		if typeNode := child.ChildByFieldName("type"); typeNode != nil && typeNode.Kind() == "interface_type" {
			nodeType = NodeTypeInterface
		}
		start, end := NodeLines(child)
		out = append(out, Node{
			ID:        BuildIdentifier(projectName, filePath, nodeType, name),
			Type:      nodeType,
			Name:      name,
			FilePath:  filePath,
			Language:  LangGo,
			StartLine: start,
			EndLine:   end,
			Exported:  isGoExported(name),
		})
	}
	return out
}

func (e *goExtractor) extractImport(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	importPath := trimQuotes(NodeText(pathNode, source))
	if importPath == "" {
		return nil
	}
	return &Edge{
		SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
		TargetID:   importPath,
		Type:       "imports_library", // reclassified to imports_file by ImportResolver when the target resolves within the project
		SourceFile: filePath,
	}
}

func (e *goExtractor) extractCall(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return nil
	}
	var callee string
	switch fnNode.Kind() {
	case "identifier", "selector_expression":
		callee = NodeText(fnNode, source)
	default:
		return nil
	}
	if callee == "" {
		return nil
	}
	return &Edge{
		SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
		TargetID:   callee,
		Type:       "calls",
		SourceFile: filePath,
	}
}

func isGoExported(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
