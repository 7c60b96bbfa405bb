package graph

import (
	"context"
	"strings"
	"sync"
)

// MemStore is an in-process, mutex-guarded Store implementation used for
// tests and small one-shot analyses where standing up KuzuStore is
// unnecessary.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges []Edge
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{nodes: make(map[string]Node)}
}

func (m *MemStore) InitSchema(ctx context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }

func (m *MemStore) UpsertNode(ctx context.Context, n Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID] = n
	return nil
}

func (m *MemStore) UpsertEdge(ctx context.Context, e Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.edges {
		if existing.SourceID == e.SourceID && existing.TargetID == e.TargetID && existing.Type == e.Type {
			m.edges[i] = e
			return nil
		}
	}
	m.edges = append(m.edges, e)
	return nil
}

func (m *MemStore) GetNode(ctx context.Context, id string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *MemStore) FindNodes(ctx context.Context, filter NodeFilter) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Node
	for _, n := range m.nodes {
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.FilePath != "" && n.FilePath != filter.FilePath {
			continue
		}
		if filter.NamePart != "" && !strings.Contains(strings.ToLower(n.Name), strings.ToLower(filter.NamePart)) {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) FindEdges(ctx context.Context, filter EdgeFilter) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Edge
	for _, e := range m.edges {
		if filter.SourceID != "" && e.SourceID != filter.SourceID {
			continue
		}
		if filter.TargetID != "" && e.TargetID != filter.TargetID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) DeleteEdgesBySourceAndTypes(ctx context.Context, sourceFile string, types []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	kept := m.edges[:0]
	removed := 0
	for _, e := range m.edges {
		if e.SourceFile == sourceFile && typeSet[e.Type] && !e.IsUserSourced() {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.edges = kept
	return removed, nil
}

func (m *MemStore) DeleteNodesByFile(ctx context.Context, filePath string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, n := range m.nodes {
		if n.FilePath == filePath {
			delete(m.nodes, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemStore) Stats(ctx context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &GraphStats{
		NodesByType: make(map[string]int),
		EdgesByType: make(map[string]int),
	}
	for _, n := range m.nodes {
		stats.NodeCount++
		stats.NodesByType[string(n.Type)]++
	}
	for _, e := range m.edges {
		stats.EdgeCount++
		stats.EdgesByType[e.Type]++
	}
	return stats, nil
}
