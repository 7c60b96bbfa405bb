package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIdentifierFileNode(t *testing.T) {
	id := BuildIdentifier("myproj", "/src/app.go", NodeTypeFile)
	assert.Equal(t, "myproj/src/app.go", id)
}

func TestBuildIdentifierSymbolNode(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeFunction, "Handler")
	assert.Equal(t, "myproj/src/app.go#function:Handler", id)
}

func TestBuildIdentifierNestedSymbolPath(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeMethod, "Server", "Handle")
	assert.Equal(t, "myproj/src/app.go#method:Server/Handle", id)
}

func TestParseIdentifierRoundTripsFile(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeFile)
	parsed, ok := ParseIdentifier(id)
	require.True(t, ok)
	assert.Equal(t, "myproj", parsed.ProjectName)
	assert.Equal(t, "src/app.go", parsed.FilePath)
	assert.Equal(t, NodeTypeFile, parsed.NodeType)
	assert.Empty(t, parsed.SymbolPath)
}

func TestParseIdentifierRoundTripsSymbol(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeMethod, "Server", "Handle")
	parsed, ok := ParseIdentifier(id)
	require.True(t, ok)
	assert.Equal(t, NodeTypeMethod, parsed.NodeType)
	assert.Equal(t, []string{"Server", "Handle"}, parsed.SymbolPath)
}

func TestParseIdentifierRejectsMalformed(t *testing.T) {
	_, ok := ParseIdentifier("no-slash-here")
	assert.False(t, ok)

	_, ok = ParseIdentifier("myproj/src/app.go#nocolon")
	assert.False(t, ok)
}

func TestDocumentKeyEscapesSlashesInFragment(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeMethod, "Server", "Handle")
	key := DocumentKey(id)
	assert.Equal(t, "myproj/src/app.go#method:Server__Handle", key)
}

func TestDocumentKeyPassesThroughBareFileIdentifier(t *testing.T) {
	id := BuildIdentifier("myproj", "src/app.go", NodeTypeFile)
	assert.Equal(t, id, DocumentKey(id))
}
