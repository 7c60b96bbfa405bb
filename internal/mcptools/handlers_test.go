package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/engine/internal/graph"
	"github.com/codeatlas/engine/internal/namespace"
)

// stubParser turns any source file into a file node containing one child
// function node connected by a "contains" edge, so build_graph exercises the
// basic-structure scenario's ownership scope end to end.
type stubParser struct{}

func (stubParser) Parse(ctx context.Context, path string, source []byte, lang graph.Language) (*graph.ParseResult, error) {
	fileID := graph.BuildIdentifier("proj", path, graph.NodeTypeFile)
	fnID := graph.BuildIdentifier("proj", path, graph.NodeTypeFunction, "Handle")
	return &graph.ParseResult{
		File: graph.Node{ID: fileID, Type: graph.NodeTypeFile, Name: filepath.Base(path), FilePath: path},
		Nodes: []graph.Node{
			{ID: fnID, Type: graph.NodeTypeFunction, Name: "Handle", FilePath: path},
		},
		Edges: []graph.Edge{
			{SourceID: fileID, TargetID: fnID, Type: "contains", SourceFile: path},
		},
	}, nil
}

func newTestService(t *testing.T) (*CodeIntelService, graph.Store) {
	t.Helper()
	store := graph.NewMemStore()
	return NewCodeIntelService(store, stubParser{}), store
}

func writeRepoFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestBuildGraphRequiresRepoPath(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{})
	assert.Error(t, err)
}

func TestBuildGraphIndexesFilesAndComputesStats(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "a.go", "package a")

	svc, _ := newTestService(t)
	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{
		RepoPath:    dir,
		ProjectName: "proj",
	})
	require.NoError(t, err)
	assert.Len(t, out.Report.Successful, 1)
	assert.Empty(t, out.Report.Failed)
	assert.Greater(t, out.Stats.NodeCount, 0)
	assert.Greater(t, out.Stats.EdgeCount, 0)
}

func TestBuildGraphDefaultsToWholeRepoNamespaceWhenUnspecified(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "a.go", "package a")
	writeRepoFile(t, dir, "b.go", "package b")

	svc, _ := newTestService(t)
	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{RepoPath: dir})
	require.NoError(t, err)
	assert.Len(t, out.Report.Successful, 2)
}

func TestBuildGraphHonorsExplicitNamespaceFilePatterns(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "a.go", "package a")
	writeRepoFile(t, dir, "readme.md", "# hi")

	svc, _ := newTestService(t)
	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{
		RepoPath: dir,
		Namespaces: map[string]namespace.Config{
			"go-only": {FilePatterns: []string{"*.go"}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, out.Report.Successful, 1)
}

func TestFindNodesFiltersByTypeAndNamePart(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	id := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFunction, "HandleRequest")
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: id, Type: graph.NodeTypeFunction, Name: "HandleRequest", FilePath: "pkg/a.go"}))

	_, out, err := svc.FindNodes(ctx, nil, FindNodesInput{Type: "function", NamePart: "handle"})
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "HandleRequest", out.Nodes[0].Name)
}

func TestFindEdgesFiltersByType(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "a", TargetID: "b", Type: "calls"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "a", TargetID: "c", Type: "contains"}))

	_, out, err := svc.FindEdges(ctx, nil, FindEdgesInput{Type: "calls"})
	require.NoError(t, err)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "b", out.Edges[0].TargetID)
}

func TestQueryHierarchicalRollsUpChildEdgeTypes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "a", TargetID: "b", Type: "imports_file"}))

	_, out, err := svc.QueryHierarchical(ctx, nil, QueryHierarchicalInput{Type: "depends_on", IncludeChildren: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

func TestQueryTransitiveComputesClosureFromStart(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "b", TargetID: "c", Type: "depends_on"}))

	_, out, err := svc.QueryTransitive(ctx, nil, QueryTransitiveInput{Start: "a", Type: "depends_on"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
}

func TestQueryInheritableRequiresStart(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.QueryInheritable(context.Background(), nil, QueryInheritableInput{ParentType: "contains", ChildType: "extends"})
	assert.Error(t, err)
}

func TestQueryInheritablePropagatesThroughContainment(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "pkg", TargetID: "Base", Type: "contains"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "Base", TargetID: "Super", Type: "extends"}))

	_, out, err := svc.QueryInheritable(ctx, nil, QueryInheritableInput{Start: "pkg", ParentType: "contains", ChildType: "extends"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "Super", out.Relationships[0].ToNodeID)
}

func TestGetClustersReturnsComputedClusters(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	a := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFile)
	b := graph.BuildIdentifier("proj", "pkg/b.go", graph.NodeTypeFile)
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: a, Type: graph.NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"}))
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: b, Type: graph.NodeTypeFile, Name: "b.go", FilePath: "pkg/b.go"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: a, TargetID: b, Type: "imports_file", SourceFile: "pkg/a.go"}))
	_, err := graph.ComputeClusters(ctx, store, "proj")
	require.NoError(t, err)

	_, out, err := svc.GetClusters(ctx, nil, GetClustersInput{})
	require.NoError(t, err)
	assert.Len(t, out.Clusters, 1)
}

func TestResolveUnknownsRequiresProjectName(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.ResolveUnknowns(context.Background(), nil, ResolveUnknownsInput{})
	assert.Error(t, err)
}

func TestResolveUnknownsResolvesExactNameMatch(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	candidateID := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFunction, "HandleFunc")
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: candidateID, Type: graph.NodeTypeFunction, Name: "HandleFunc", FilePath: "pkg/a.go"}))
	require.NoError(t, store.UpsertEdge(ctx, graph.Edge{SourceID: "caller", TargetID: "HandleFunc", Type: "calls", SourceFile: "pkg/a.go"}))

	_, out, err := svc.ResolveUnknowns(ctx, nil, ResolveUnknownsInput{ProjectName: "proj"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.True(t, out.Results[0].Resolved)
}

func TestStatsReturnsStoreSummary(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	require.NoError(t, store.UpsertNode(ctx, graph.Node{ID: "a", Type: graph.NodeTypeFile}))

	_, out, err := svc.Stats(ctx, nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Stats.NodeCount)
}
