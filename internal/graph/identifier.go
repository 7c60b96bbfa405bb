package graph

import "strings"

// BuildIdentifier constructs the RDF-style globally unique identifier for a
// node: <projectName>/<relativeFilePath>#<NodeType>:<SymbolName>, with each
// element of a nested symbol path (e.g. a method on a class) appended after
// a "/" separator.
//
// A bare file node's identifier has no fragment: <projectName>/<relativeFilePath>.
func BuildIdentifier(projectName, relativeFilePath string, nodeType NodeType, symbolPath ...string) string {
	base := projectName + "/" + strings.TrimPrefix(relativeFilePath, "/")
	if nodeType == NodeTypeFile || (nodeType == "" && len(symbolPath) == 0) {
		return base
	}
	frag := string(nodeType) + ":" + strings.Join(symbolPath, "/")
	return base + "#" + frag
}

// DocumentKey returns the filesystem-safe variant of an identifier, suitable
// for use as a cache file name or map key that must avoid path separators
// in the symbol portion: every "/" after the "#" becomes "__".
func DocumentKey(id string) string {
	idx := strings.IndexByte(id, '#')
	if idx < 0 {
		return id
	}
	head, frag := id[:idx], id[idx+1:]
	return head + "#" + strings.ReplaceAll(frag, "/", "__")
}

// ParsedIdentifier is the decomposed form of a node identifier.
type ParsedIdentifier struct {
	ProjectName string
	FilePath    string
	NodeType    NodeType
	SymbolPath  []string
}

// ParseIdentifier splits an identifier produced by BuildIdentifier back into
// its components. It returns false if id is not well-formed.
func ParseIdentifier(id string) (ParsedIdentifier, bool) {
	var out ParsedIdentifier

	hashIdx := strings.IndexByte(id, '#')
	head := id
	if hashIdx >= 0 {
		head = id[:hashIdx]
	}

	slashIdx := strings.IndexByte(head, '/')
	if slashIdx < 0 {
		return out, false
	}
	out.ProjectName = head[:slashIdx]
	out.FilePath = head[slashIdx+1:]

	if hashIdx < 0 {
		out.NodeType = NodeTypeFile
		return out, true
	}

	frag := id[hashIdx+1:]
	colonIdx := strings.IndexByte(frag, ':')
	if colonIdx < 0 {
		return out, false
	}
	out.NodeType = NodeType(frag[:colonIdx])
	out.SymbolPath = strings.Split(frag[colonIdx+1:], "/")
	return out, true
}
