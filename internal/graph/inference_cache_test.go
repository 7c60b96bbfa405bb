package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngineWithStrategy(strategy CacheSyncStrategy) (*MemStore, *Engine) {
	store := NewMemStore()
	registry := NewRegistry()
	cfg := DefaultInferenceConfig()
	cfg.CacheSyncStrategy = strategy
	engine := NewEngine(store, registry, cfg)
	return store, engine
}

func TestSyncCachePopulatesTransitiveAndInheritable(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngineWithStrategy(SyncManual)

	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "pkg", TargetID: "Base", Type: "contains"}))
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "Base", TargetID: "Super", Type: "extends"}))

	require.NoError(t, engine.SyncCache(ctx, true))

	rels, ok := engine.cache.CachedTransitive("depends_on")
	require.True(t, ok)
	assert.NotEmpty(t, rels)

	inherited, ok := engine.cache.CachedInheritable("contains", "extends")
	require.True(t, ok)
	assert.NotEmpty(t, inherited)
}

func TestSyncCacheNoOpWhenClean(t *testing.T) {
	_, engine := newTestEngineWithStrategy(SyncManual)
	require.NoError(t, engine.SyncCache(context.Background(), true))

	engine.cache.putTransitive("depends_on", []InferredRelationship{{FromNodeID: "sentinel"}})
	require.NoError(t, engine.SyncCache(context.Background(), false))

	rels, ok := engine.cache.CachedTransitive("depends_on")
	require.True(t, ok)
	require.Len(t, rels, 1)
	assert.Equal(t, "sentinel", rels[0].FromNodeID)
}

func TestNotifyMutationEagerResyncsImmediately(t *testing.T) {
	ctx := context.Background()
	store, engine := newTestEngineWithStrategy(SyncEager)
	require.NoError(t, store.UpsertEdge(ctx, Edge{SourceID: "a", TargetID: "b", Type: "depends_on"}))

	require.NoError(t, engine.NotifyMutation(ctx))

	rels, ok := engine.cache.CachedTransitive("depends_on")
	require.True(t, ok)
	assert.NotEmpty(t, rels)
	assert.False(t, engine.cache.Dirty())
}

func TestNotifyMutationLazyOnlyMarksDirty(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngineWithStrategy(SyncLazy)

	require.NoError(t, engine.NotifyMutation(ctx))
	assert.True(t, engine.cache.Dirty())
	_, ok := engine.cache.CachedTransitive("depends_on")
	assert.False(t, ok)
}

func TestNotifyMutationManualIsNoOp(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngineWithStrategy(SyncManual)

	require.NoError(t, engine.NotifyMutation(ctx))
	assert.False(t, engine.cache.Dirty())
}

func TestInvalidateDropsTransitiveAndInheritableEntries(t *testing.T) {
	ctx := context.Background()
	_, engine := newTestEngineWithStrategy(SyncManual)

	engine.cache.putTransitive("depends_on", []InferredRelationship{{}})
	engine.cache.putInheritable("contains", "extends", []InferredRelationship{{}})

	require.NoError(t, engine.Invalidate(ctx, "extends"))

	_, ok := engine.cache.CachedInheritable("contains", "extends")
	assert.False(t, ok)
	_, ok = engine.cache.CachedTransitive("depends_on")
	assert.True(t, ok, "unrelated type should survive invalidation")
}

func TestClearCacheEmptiesBothMaps(t *testing.T) {
	_, engine := newTestEngineWithStrategy(SyncManual)
	engine.cache.putTransitive("depends_on", []InferredRelationship{{}})

	engine.ClearCache()

	_, ok := engine.cache.CachedTransitive("depends_on")
	assert.False(t, ok)
}
