package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/engine/internal/graph"
)

func TestGenerateMermaidEmitsSubgraphPerCluster(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	a := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFile)
	b := graph.BuildIdentifier("proj", "pkg/b.go", graph.NodeTypeFile)
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: a, Type: graph.NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"}))
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: b, Type: graph.NodeTypeFile, Name: "b.go", FilePath: "pkg/b.go"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: a, TargetID: b, Type: "imports_file", SourceFile: "pkg/a.go"}))

	_, err := graph.ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)

	out, err := GenerateMermaid(ctx, store)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "subgraph")
	assert.Contains(t, out, "-->")
}

func TestGenerateMermaidEmptyStoreStillProducesHeader(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	out, err := GenerateMermaid(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", out)
}

func TestShortPathReturnsLastTwoSegments(t *testing.T) {
	id := graph.BuildIdentifier("proj", "pkg/sub/a.go", graph.NodeTypeFile)
	assert.Equal(t, "sub/a.go", shortPath(id))
}

func TestShortPathFallsBackToRawIDWhenUnparsable(t *testing.T) {
	assert.Equal(t, "not-an-identifier", shortPath("not-an-identifier"))
}
