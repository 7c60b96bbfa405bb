package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTwoFileCluster(t *testing.T, store Store) (string, string) {
	t.Helper()
	ctx := context.Background()

	a := BuildIdentifier("proj", "pkg/a.go", NodeTypeFile)
	b := BuildIdentifier("proj", "pkg/b.go", NodeTypeFile)

	require.NoError(t, store.UpsertNode(ctx, Node{ID: a, Type: NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"}))
	require.NoError(t, store.UpsertNode(ctx, Node{ID: b, Type: NodeTypeFile, Name: "b.go", FilePath: "pkg/b.go"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: a, TargetID: b, Type: "imports_file", SourceFile: "pkg/a.go"}))

	return a, b
}

func TestComputeClustersFindsConnectedComponent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	a, b := seedTwoFileCluster(t, store)

	clusters, err := ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	assert.ElementsMatch(t, []string{a, b}, clusters[0].Members)
	assert.Equal(t, float64(1), clusters[0].CohesionScore)
}

func TestComputeClustersSkipsSingletonFiles(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	id := BuildIdentifier("proj", "pkg/lonely.go", NodeTypeFile)
	require.NoError(t, store.UpsertNode(ctx, Node{ID: id, Type: NodeTypeFile, Name: "lonely.go", FilePath: "pkg/lonely.go"}))

	clusters, err := ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestLoadClustersReconstructsFromPersistedNodes(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	a, b := seedTwoFileCluster(t, store)

	_, err := ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)

	loaded, err := LoadClusters(ctx, store)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.ElementsMatch(t, []string{a, b}, loaded[0].Members)
	assert.Equal(t, float64(1), loaded[0].CohesionScore)
}

func TestLoadClustersEmptyStoreReturnsNoClusters(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	loaded, err := LoadClusters(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
