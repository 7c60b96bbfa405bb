package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*MemStore, *Engine) {
	store := NewMemStore()
	registry := NewRegistry()
	engine := NewEngine(store, registry, DefaultInferenceConfig())
	return store, engine
}

func TestEngineHierarchicalRollsUpChildTypes(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "imports_file"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "c", TargetID: "d", Type: "calls"}))

	rels, err := engine.Hierarchical(ctx, "depends_on", HierarchicalOptions{IncludeChildren: true})
	require.NoError(t, err)
	require.Len(t, rels, 2)
	for _, r := range rels {
		assert.Equal(t, "hierarchical", r.InferenceType)
	}
}

func TestEngineHierarchicalUnknownTypeReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngine()

	rels, err := engine.Hierarchical(ctx, "not_a_type", HierarchicalOptions{})
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestEngineTransitiveComputesClosure(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "b", TargetID: "c", Type: "depends_on"}))

	rels, err := engine.Transitive(ctx, "a", "depends_on", TransitiveOptions{})
	require.NoError(t, err)

	require.Len(t, rels, 2)
	targets := []string{rels[0].ToNodeID, rels[1].ToNodeID}
	assert.ElementsMatch(t, []string{"b", "c"}, targets)
}

func TestEngineTransitiveRejectsNonTransitiveType(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngine()

	_, err := engine.Transitive(ctx, "a", "calls", TransitiveOptions{})
	require.Error(t, err)
	assert.Equal(t, KindValidationFailed, err.(*Error).Kind)
}

func TestEngineTransitiveRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngine()

	_, err := engine.Transitive(ctx, "a", "not_registered", TransitiveOptions{})
	require.Error(t, err)
	assert.Equal(t, KindUnknownEdgeType, err.(*Error).Kind)
}

func TestEngineTransitiveStrictCycleDetection(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "b", TargetID: "a", Type: "depends_on"}))

	_, err := engine.Transitive(ctx, "a", "depends_on", TransitiveOptions{Strict: true, DetectCycles: true})
	require.Error(t, err)
	assert.Equal(t, KindCycleDetected, err.(*Error).Kind)
}

func TestEngineTransitiveNonStrictCycleStopsSilently(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "b", TargetID: "a", Type: "depends_on"}))

	rels, err := engine.Transitive(ctx, "a", "depends_on", TransitiveOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, rels)
}

func TestEngineInheritablePropagatesThroughContainment(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "pkg", TargetID: "Base", Type: "contains"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "Base", TargetID: "Super", Type: "extends"}))

	rels, err := engine.Inheritable(ctx, "pkg", "contains", "extends", InheritableOptions{})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Super", rels[0].ToNodeID)
	assert.Equal(t, 2, rels[0].Depth)
}

func TestEngineInheritableRejectsNonInheritableChildType(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngine()

	_, err := engine.Inheritable(ctx, "pkg", "contains", "calls", InheritableOptions{})
	require.Error(t, err)
	assert.Equal(t, KindValidationFailed, err.(*Error).Kind)
}

func TestEngineValidateDetectsCycleInTransitiveType(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "belongs_to"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "b", TargetID: "a", Type: "belongs_to"}))

	report, err := engine.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.CyclesFound)
}

func TestEngineValidateCleanGraphIsValid(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngine()
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))

	report, err := engine.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.CyclesFound)
}
