package export

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/engine/internal/graph"
)

func TestBuildGraphExportCollectsNodesEdgesClustersAndStats(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	a := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFile)
	b := graph.BuildIdentifier("proj", "pkg/b.go", graph.NodeTypeFile)
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: a, Type: graph.NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"}))
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: b, Type: graph.NodeTypeFile, Name: "b.go", FilePath: "pkg/b.go"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: a, TargetID: b, Type: "imports_file", SourceFile: "pkg/a.go"}))

	_, err := graph.ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)

	export, err := BuildGraphExport(ctx, store)
	require.NoError(t, err)
	assert.Len(t, export.Nodes, 3)
	assert.Len(t, export.Edges, 3)
	assert.Len(t, export.Clusters, 1)
	require.NotNil(t, export.Stats)
}

func TestGenerateJSONProducesValidIndentedJSON(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	id := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFile)
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: id, Type: graph.NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"}))

	data, err := GenerateJSON(ctx, store)
	require.NoError(t, err)

	var decoded GraphExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Nodes, 1)
	assert.Contains(t, string(data), "\n  ", "should be indented")
}

func TestGenerateJSONEmptyStoreStillProducesValidExport(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	data, err := GenerateJSON(ctx, store)
	require.NoError(t, err)

	var decoded GraphExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Empty(t, decoded.Nodes)
	assert.Empty(t, decoded.Edges)
}
