package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// RegisterJSFamilyQueries registers QuerySpecs shared by TypeScript, TSX,
// JavaScript, and JSX. JavaScript's grammar never produces
// interface_declaration/type_alias_declaration/enum_declaration nodes, so
// those keys simply never fire for js/jsx files — one extractor safely
// serves all four languages.
func RegisterJSFamilyQueries(bridge *Bridge) {
	kinds := []string{
		"function_declaration",
		"class_declaration",
		"interface_declaration",
		"type_alias_declaration",
		"enum_declaration",
		"lexical_declaration",
		"import_statement",
		"call_expression",
	}
	for _, lang := range []Language{LangTypeScript, LangTSX, LangJavaScript, LangJSX} {
		for _, kind := range kinds {
			k := kind
			bridge.Register(lang, QuerySpec{
				Key: k,
				Match: func(n *tree_sitter.Node) bool {
					return n.Kind() == k
				},
			})
		}
	}
}

type jsFamilyExtractor struct{}

func (e *jsFamilyExtractor) Extract(bridge *Bridge, lang Language, root *tree_sitter.Node, source []byte, projectName, filePath string) ([]Node, []Edge) {
	matches := bridge.Execute(lang, root, source, nil)

	var nodes []Node
	var edges []Edge

	for _, m := range matches {
		switch m.Key {
		case "function_declaration":
			if n := e.extractNamed(m.Node, source, lang, projectName, filePath, NodeTypeFunction); n != nil {
				nodes = append(nodes, *n)
			}
		case "class_declaration":
			if n := e.extractNamed(m.Node, source, lang, projectName, filePath, NodeTypeClass); n != nil {
				nodes = append(nodes, *n)
				edges = append(edges, e.extractHeritage(m.Node, source, projectName, filePath, n.Name)...)
			}
		case "interface_declaration":
			if n := e.extractNamed(m.Node, source, lang, projectName, filePath, NodeTypeInterface); n != nil {
				nodes = append(nodes, *n)
			}
		case "type_alias_declaration":
			if n := e.extractNamed(m.Node, source, lang, projectName, filePath, NodeTypeType); n != nil {
				nodes = append(nodes, *n)
			}
		case "enum_declaration":
			if n := e.extractNamed(m.Node, source, lang, projectName, filePath, NodeTypeEnum); n != nil {
				nodes = append(nodes, *n)
			}
		case "lexical_declaration":
			nodes = append(nodes, e.extractArrowFunctions(m.Node, source, lang, projectName, filePath)...)
		case "import_statement":
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

func (e *jsFamilyExtractor) extractNamed(node *tree_sitter.Node, source []byte, lang Language, projectName, filePath string, nodeType NodeType) *Node {
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
		Language:  lang,
		StartLine: start,
		EndLine:   end,
		Exported:  isTSExported(node),
	}
}

// extractHeritage reads a class_declaration's class_heritage clause for
// "extends Base" and "implements Iface, ..." relationships.
func (e *jsFamilyExtractor) extractHeritage(node *tree_sitter.Node, source []byte, projectName, filePath, className string) []Edge {
	var edges []Edge
	classID := BuildIdentifier(projectName, filePath, NodeTypeClass, className)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			clause := child.Child(j)
			if clause == nil {
				continue
			}
			switch clause.Kind() {
			case "extends_clause":
				if valueNode := clause.ChildByFieldName("value"); valueNode != nil {
					edges = append(edges, Edge{
						SourceID:   classID,
						TargetID:   NodeText(valueNode, source),
						Type:       "extends",
						SourceFile: filePath,
					})
				}
			case "implements_clause":
				for k := uint(0); k < clause.ChildCount(); k++ {
					iface := clause.Child(k)
					if iface == nil || iface.Kind() == "implements" || iface.Kind() == "," {
						continue
					}
					edges = append(edges, Edge{
						SourceID:   classID,
						TargetID:   NodeText(iface, source),
						Type:       "implements",
						SourceFile: filePath,
					})
				}
			}
		}
	}
	return edges
}

func (e *jsFamilyExtractor) extractArrowFunctions(node *tree_sitter.Node, source []byte, lang Language, projectName, filePath string) []Node {
	var out []Node
	exported := isTSExported(node)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		valueNode := child.ChildByFieldName("value")
		if valueNode == nil || valueNode.Kind() != "arrow_function" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := NodeText(nameNode, source)
		start, end := NodeLines(child)
		out = append(out, Node{
			ID:        BuildIdentifier(projectName, filePath, NodeTypeFunction, name),
			Type:      NodeTypeFunction,
			Name:      name,
			FilePath:  filePath,
			Language:  lang,
			StartLine: start,
			EndLine:   end,
			Exported:  exported,
		})
	}
	return out
}

func (e *jsFamilyExtractor) extractImport(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "string" {
				sourceNode = child
				break
			}
		}
	}
	if sourceNode == nil {
		return nil
	}
	importPath := strings.Trim(NodeText(sourceNode, source), "\"'`")
	if importPath == "" {
		return nil
	}
	return &Edge{
		SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
		TargetID:   importPath,
		Type:       "imports_library",
		SourceFile: filePath,
	}
}

func (e *jsFamilyExtractor) extractCall(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return nil
	}
	var callee string
	switch fnNode.Kind() {
	case "identifier", "member_expression":
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

// isTSExported reports whether node's parent is an export_statement.
func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	return parent.Kind() == "export_statement"
}
