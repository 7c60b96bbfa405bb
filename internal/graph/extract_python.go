package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// RegisterPythonQueries registers the Python-language QuerySpecs on bridge.
func RegisterPythonQueries(bridge *Bridge) {
	kinds := []string{
		"function_definition",
		"class_definition",
		"import_statement",
		"import_from_statement",
		"call",
		"decorated_definition",
	}
	for _, kind := range kinds {
		k := kind
		bridge.Register(LangPython, QuerySpec{
			Key: k,
			Match: func(n *tree_sitter.Node) bool {
				return n.Kind() == k
			},
		})
	}
}

type pyExtractor struct{}

func (e *pyExtractor) Extract(bridge *Bridge, lang Language, root *tree_sitter.Node, source []byte, projectName, filePath string) ([]Node, []Edge) {
	matches := bridge.Execute(lang, root, source, nil)

	var nodes []Node
	var edges []Edge

	for _, m := range matches {
		switch m.Key {
		case "function_definition":
			if isPyTopLevel(m.Node) {
				if n := e.extractFunction(m.Node, source, projectName, filePath); n != nil {
					nodes = append(nodes, *n)
				}
			}
		case "class_definition":
			if isPyTopLevel(m.Node) {
				if n := e.extractClass(m.Node, source, projectName, filePath); n != nil {
					nodes = append(nodes, *n)
					edges = append(edges, e.extractBases(m.Node, source, projectName, filePath, n.Name)...)
				}
			}
		case "import_statement":
			edges = append(edges, e.extractImport(m.Node, source, projectName, filePath)...)
		case "import_from_statement":
			if ed := e.extractFromImport(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		case "call":
			if ed := e.extractCall(m.Node, source, projectName, filePath); ed != nil {
				edges = append(edges, *ed)
			}
		}
	}

	return nodes, edges
}

func (e *pyExtractor) extractFunction(node *tree_sitter.Node, source []byte, projectName, filePath string) *Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := NodeText(nameNode, source)
	start, end := NodeLines(node)
	return &Node{
		ID:        BuildIdentifier(projectName, filePath, NodeTypeFunction, name),
		Type:      NodeTypeFunction,
		Name:      name,
		FilePath:  filePath,
		Language:  LangPython,
		StartLine: start,
		EndLine:   end,
		Exported:  isPyExported(name),
	}
}

func (e *pyExtractor) extractClass(node *tree_sitter.Node, source []byte, projectName, filePath string) *Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := NodeText(nameNode, source)
	start, end := NodeLines(node)
	return &Node{
		ID:        BuildIdentifier(projectName, filePath, NodeTypeClass, name),
		Type:      NodeTypeClass,
		Name:      name,
		FilePath:  filePath,
		Language:  LangPython,
		StartLine: start,
		EndLine:   end,
		Exported:  isPyExported(name),
	}
}

// extractBases emits an extends edge per entry in a class's base-class
// argument list (Python has no separate interface concept, so base classes
// are always modeled as extends).
func (e *pyExtractor) extractBases(node *tree_sitter.Node, source []byte, projectName, filePath, className string) []Edge {
	superclasses := node.ChildByFieldName("superclasses")
	if superclasses == nil {
		return nil
	}
	classID := BuildIdentifier(projectName, filePath, NodeTypeClass, className)
	var edges []Edge
	for i := uint(0); i < superclasses.ChildCount(); i++ {
		child := superclasses.Child(i)
		if child == nil || child.Kind() != "identifier" && child.Kind() != "attribute" {
			continue
		}
		edges = append(edges, Edge{
			SourceID:   classID,
			TargetID:   NodeText(child, source),
			Type:       "extends",
			SourceFile: filePath,
		})
	}
	return edges
}

func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte, projectName, filePath string) []Edge {
	var edges []Edge
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "dotted_name" {
			moduleName := NodeText(child, source)
			if moduleName != "" {
				edges = append(edges, Edge{
					SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
					TargetID:   moduleName,
					Type:       "imports_library",
					SourceFile: filePath,
				})
			}
		}
	}
	return edges
}

func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				moduleNode = child
				break
			}
		}
	}
	if moduleNode == nil {
		return nil
	}
	moduleName := NodeText(moduleNode, source)
	if moduleName == "" {
		return nil
	}
	return &Edge{
		SourceID:   BuildIdentifier(projectName, filePath, NodeTypeFile),
		TargetID:   moduleName,
		Type:       "imports_library",
		SourceFile: filePath,
	}
}

func (e *pyExtractor) extractCall(node *tree_sitter.Node, source []byte, projectName, filePath string) *Edge {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return nil
	}
	var callee string
	switch fnNode.Kind() {
	case "identifier", "attribute":
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

func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "module"
	}
	return false
}

func isPyExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}
