package graph

import (
	"context"
	"sync"
)

// inferenceCache holds precomputed closures keyed by the inferred relationship
// type, so repeated Transitive/Inheritable queries over a stable graph don't
// re-walk the whole edge set every time. It is a pure function of the current
// edge set: sync_cache recomputes it from scratch, invalidate drops one
// type's rows, and clear_cache empties it entirely.
type inferenceCache struct {
	mu          sync.RWMutex
	transitive  map[string][]InferredRelationship // keyed by edge type
	inheritable map[string][]InferredRelationship // keyed by parentType+"|"+childType
	dirty       bool
}

func newInferenceCache() *inferenceCache {
	return &inferenceCache{
		transitive:  make(map[string][]InferredRelationship),
		inheritable: make(map[string][]InferredRelationship),
	}
}

func inheritableCacheKey(parentType, childType string) string {
	return parentType + "|" + childType
}

// CachedTransitive returns a cached whole-graph transitive closure for typ,
// if present.
func (c *inferenceCache) CachedTransitive(typ string) ([]InferredRelationship, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rels, ok := c.transitive[typ]
	return rels, ok
}

// CachedInheritable returns a cached inheritable propagation for a
// (parentType, childType) pair, if present.
func (c *inferenceCache) CachedInheritable(parentType, childType string) ([]InferredRelationship, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rels, ok := c.inheritable[inheritableCacheKey(parentType, childType)]
	return rels, ok
}

func (c *inferenceCache) putTransitive(typ string, rels []InferredRelationship) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitive[typ] = rels
}

func (c *inferenceCache) putInheritable(parentType, childType string, rels []InferredRelationship) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inheritable[inheritableCacheKey(parentType, childType)] = rels
}

// MarkDirty flags the cache as stale without clearing it — used by the lazy
// sync strategy, which defers the actual recompute to the next query.
func (c *inferenceCache) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
}

// Dirty reports whether the cache has been flagged stale since its last sync.
func (c *inferenceCache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Clear empties both closure maps.
func (c *inferenceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitive = make(map[string][]InferredRelationship)
	c.inheritable = make(map[string][]InferredRelationship)
	c.dirty = false
}

// Invalidate drops every cached row produced for inferredType, whether it
// came from the transitive or inheritable map.
func (c *inferenceCache) Invalidate(inferredType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.transitive, inferredType)
	for k := range c.inheritable {
		if len(k) > len(inferredType) && k[len(k)-len(inferredType):] == inferredType {
			delete(c.inheritable, k)
		}
	}
}

// SyncCache recomputes the cache's closures from the current edge set. It
// precomputes the whole-graph transitive closure of every registered
// transitive edge type, and the inheritable propagation of every inheritable
// edge type through "contains" — the canonical containment parent used
// throughout this engine's worked examples and default namespace scenarios.
// If force is false and the cache isn't dirty, SyncCache is a no-op.
func (eng *Engine) SyncCache(ctx context.Context, force bool) error {
	if !eng.cfg.EnableCache {
		return nil
	}
	if !force && !eng.cache.Dirty() && eng.cache.hasAny() {
		return nil
	}

	for _, def := range eng.registry.All() {
		if !def.IsTransitive {
			continue
		}
		rels, err := eng.Transitive(ctx, "", def.Name, TransitiveOptions{
			MaxPathLength: eng.cfg.DefaultMaxPathLength,
			DetectCycles:  eng.cfg.EnableCycleDetection,
		})
		if err != nil {
			return err
		}
		eng.cache.putTransitive(def.Name, rels)
	}

	containsEdges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: "contains"})
	if err != nil {
		return NewError(KindIO, "Engine.SyncCache", err)
	}
	starts := make(map[string]bool)
	for _, e := range containsEdges {
		starts[e.SourceID] = true
	}

	for _, def := range eng.registry.All() {
		if !def.IsInheritable || def.Name == "contains" {
			continue
		}
		var rels []InferredRelationship
		for start := range starts {
			found, err := eng.Inheritable(ctx, start, "contains", def.Name, InheritableOptions{
				MaxInheritanceDepth: eng.cfg.DefaultMaxPathLength,
				DetectCycles:        eng.cfg.EnableCycleDetection,
			})
			if err != nil {
				return err
			}
			rels = append(rels, found...)
		}
		sortRelationships(rels)
		eng.cache.putInheritable("contains", def.Name, rels)
	}

	eng.cache.mu.Lock()
	eng.cache.dirty = false
	eng.cache.mu.Unlock()
	return nil
}

func (c *inferenceCache) hasAny() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.transitive) > 0 || len(c.inheritable) > 0
}

// ClearCache empties the Inference Cache entirely.
func (eng *Engine) ClearCache() {
	eng.cache.Clear()
}

// Invalidate drops cached rows for a single inferred edge type and, under the
// eager strategy, immediately resyncs; under lazy, marks the cache dirty for
// the next query; under manual, leaves resync to an explicit SyncCache call.
func (eng *Engine) Invalidate(ctx context.Context, inferredType string) error {
	eng.cache.Invalidate(inferredType)
	switch eng.cfg.CacheSyncStrategy {
	case SyncEager:
		return eng.SyncCache(ctx, true)
	case SyncLazy:
		eng.cache.MarkDirty()
		return nil
	default: // manual
		return nil
	}
}

// NotifyMutation tells the engine that the underlying edge set changed —
// called by build_graph once its batch of file analyses has been written. Its effect depends on
// the configured CacheSyncStrategy.
func (eng *Engine) NotifyMutation(ctx context.Context) error {
	if !eng.cfg.EnableCache {
		return nil
	}
	switch eng.cfg.CacheSyncStrategy {
	case SyncEager:
		return eng.SyncCache(ctx, true)
	case SyncLazy:
		eng.cache.MarkDirty()
		return nil
	default: // manual
		return nil
	}
}
