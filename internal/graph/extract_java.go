package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// RegisterJavaQueries registers the Java-language QuerySpecs on bridge.
func RegisterJavaQueries(bridge *Bridge) {
	kinds := []string{
		"class_declaration",
		"interface_declaration",
		"enum_declaration",
		"method_declaration",
		"import_declaration",
		"method_invocation",
	}
	for _, kind := range kinds {
		k := kind
		bridge.Register(LangJava, QuerySpec{
			Key: k,
			Match: func(n *tree_sitter.Node) bool {
				return n.Kind() == k
			},
		})
	}
}

type javaExtractor struct{}

func (e *javaExtractor) Extract(bridge *Bridge, lang Language, root *tree_sitter.Node, source []byte, projectName, filePath string) ([]Node, []Edge) {
	matches := bridge.Execute(lang, root, source, nil)

	var nodes []Node
	var edges []Edge

	for _, m := range matches {
		switch m.Key {
		case "class_declaration":
			if n := e.extractNamed(m.Node, source, projectName, filePath, NodeTypeClass); n != nil {
				nodes = append(nodes, *n)
				edges = append(edges, e.extractHeritage(m.Node, source, projectName, filePath, n.Name)...)
			}
		case "interface_declaration":
			if n := e.extractNamed(m.Node, source, projectName, filePath, NodeTypeInterface); n != nil {
				nodes = append(nodes, *n)
			}
		case "enum_declaration":
			if n := e.extractNamed(m.Node, source, projectName, filePath, NodeTypeEnum); n != nil {
				nodes = append(nodes, *n)
			}
		case "method_declaration":
			if n := e.extractNamed(m.Node, source, projectName, filePath, NodeTypeMethod); n != nil {
				nodes = append(nodes, *n)
			}
		case "import_declaration":
			if ed := e.extractImport(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		case "method_invocation":
			if ed := e.extractCall(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		}
	}

	return nodes, edges
}

func (e *javaExtractor) extractNamed(node *tree_sitter.Node, source []byte, projectName, filePath string, nodeType NodeType) *Node {
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
		Language:  LangJava,
		StartLine: start,
		EndLine:   end,
		Exported:  isJavaPublic(node, source),
	}
}

func (e *javaExtractor) extractHeritage(node *tree_sitter.Node, source []byte, projectName, filePath, className string) []Edge {
	var edges []Edge
	classID := BuildIdentifier(projectName, filePath, NodeTypeClass, className)

	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		// superclass is a "superclass" node wrapping a type_identifier.
		for i := uint(0); i < superclass.ChildCount(); i++ {
			child := superclass.Child(i)
			if child != nil && child.Kind() == "type_identifier" {
				edges = append(edges, Edge{
					SourceID:   classID,
					TargetID:   NodeText(child, source),
					Type:       "extends",
					SourceFile: filePath,
				})
			}
		}
	}
	if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
		for i := uint(0); i < interfaces.ChildCount(); i++ {
			typeList := interfaces.Child(i)
			if typeList == nil || typeList.Kind() != "type_list" {
				continue
			}
			for j := uint(0); j < typeList.ChildCount(); j++ {
				iface := typeList.Child(j)
				if iface != nil && iface.Kind() == "type_identifier" {
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

func (e *javaExtractor) extractImport(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	var path string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && (child.Kind() == "scoped_identifier" || child.Kind() == "identifier") {
			path = NodeText(child, source)
		}
	}
	if path == "" {
		return nil
	}
	return &Edge{
		SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
		TargetID:   path,
		Type:       "imports_library",
		SourceFile: filePath,
	}
}

func (e *javaExtractor) extractCall(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	callee := NodeText(nameNode, source)
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

// isJavaPublic reports whether node carries a "public" modifier.
func isJavaPublic(node *tree_sitter.Node, source []byte) bool {
	mods := node.ChildByFieldName("modifiers")
	if mods == nil {
		return false
	}
	return strings.Contains(NodeText(mods, source), "public")
}
