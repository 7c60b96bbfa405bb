package namespace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/engine/internal/graph"
)

func TestGlobMatchDoubleStarSpansSegments(t *testing.T) {
	assert.True(t, globMatch("src/**/*.go", "src/a/b/c.go"))
	assert.True(t, globMatch("src/**/*.go", "src/c.go"))
	assert.False(t, globMatch("src/**/*.go", "other/c.go"))
}

func TestGlobMatchSingleSegmentWildcard(t *testing.T) {
	assert.True(t, globMatch("*.go", "main.go"))
	assert.False(t, globMatch("*.go", "pkg/main.go"))
}

func TestMatchesAnyRequiresAtLeastOnePattern(t *testing.T) {
	assert.True(t, matchesAny("pkg/a.ts", []string{"*.go", "pkg/**"}))
	assert.False(t, matchesAny("pkg/a.ts", []string{"*.go"}))
}

func TestExpandFilesFiltersByPatternAndLanguage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.rs"), []byte("fn main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))

	cfg := Config{FilePatterns: []string{"**/*.go", "*.md"}}
	files, err := ExpandFiles(dir, cfg)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"pkg/a.go", "README.md"}, paths)
}

func TestExpandFilesHonorsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "v.go"), []byte("package vendor"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	cfg := Config{FilePatterns: []string{"**/*.go"}, ExcludePatterns: []string{"vendor/**"}}
	files, err := ExpandFiles(dir, cfg)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Path)
}

func TestExpandFilesSkipsGitDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	cfg := Config{FilePatterns: []string{"**/*"}}
	files, err := ExpandFiles(dir, cfg)
	require.NoError(t, err)

	for _, f := range files {
		assert.NotContains(t, f.Path, ".git/")
	}
}

func TestFilterEdgesByTypeKeepsOnlyAllowed(t *testing.T) {
	edges := []graph.Edge{
		{SourceID: "a", TargetID: "b", Type: "calls"},
		{SourceID: "a", TargetID: "c", Type: "contains"},
	}
	out := filterEdgesByType(edges, []string{"calls"})
	require.Len(t, out, 1)
	assert.Equal(t, "calls", out[0].Type)
}

func TestTagNodesAddsSemanticTagsToEachNode(t *testing.T) {
	nodes := []graph.Node{{ID: "a"}, {ID: "b"}}
	out := tagNodes(nodes, []string{"frontend"})
	require.Len(t, out, 2)
	for _, n := range out {
		assert.Equal(t, []string{"frontend"}, n.Metadata["semanticTags"])
	}
}

func TestTagNodesNoOpWithoutTags(t *testing.T) {
	nodes := []graph.Node{{ID: "a"}}
	out := tagNodes(nodes, nil)
	assert.Equal(t, nodes, out)
}

func TestMergeTagsPreservesExistingMetadata(t *testing.T) {
	meta := map[string]any{"owner": "team-a"}
	out := mergeTags(meta, []string{"backend"})
	assert.Equal(t, "team-a", out["owner"])
	assert.Equal(t, []string{"backend"}, out["semanticTags"])
	_, stillBare := meta["semanticTags"]
	assert.False(t, stillBare, "mergeTags must not mutate the input map")
}

func TestRunNamespacePersistsFileNodeWithTags(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	orch := NewOrchestrator(store, nil)

	fileID := graph.BuildIdentifier("proj", "pkg/a.go", graph.NodeTypeFile)
	parsed := &graph.ParseResult{
		File: graph.Node{ID: fileID, Type: graph.NodeTypeFile, Name: "a.go", FilePath: "pkg/a.go"},
	}

	cfg := Config{Scenarios: []string{"basic-structure"}, SemanticTags: []string{"core"}}
	err := orch.RunNamespace(ctx, "proj", "core-ns", cfg, FileMatch{Path: "pkg/a.go"}, parsed)
	require.NoError(t, err)

	got, err := store.GetNode(ctx, fileID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"core"}, got.Metadata["semanticTags"])
}
