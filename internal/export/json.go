package export

import (
	"context"
	"encoding/json"

	"github.com/codeatlas/engine/internal/graph"
)

// GraphExport is the full JSON-serializable snapshot of a graph store:
// every node, every edge, its computed clusters, and summary stats.
type GraphExport struct {
	Nodes    []graph.Node       `json:"nodes"`
	Edges    []graph.Edge       `json:"edges"`
	Clusters []graph.Cluster    `json:"clusters"`
	Stats    *graph.GraphStats  `json:"stats"`
}

// BuildGraphExport reads the full contents of store into a GraphExport.
func BuildGraphExport(ctx context.Context, store graph.Store) (*GraphExport, error) {
	nodes, err := store.FindNodes(ctx, graph.NodeFilter{})
	if err != nil {
		return nil, err
	}
	edges, err := store.FindEdges(ctx, graph.EdgeFilter{})
	if err != nil {
		return nil, err
	}
	clusters, err := graph.LoadClusters(ctx, store)
	if err != nil {
		return nil, err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &GraphExport{Nodes: nodes, Edges: edges, Clusters: clusters, Stats: stats}, nil
}

// GenerateJSON marshals a full graph export as indented JSON.
func GenerateJSON(ctx context.Context, store graph.Store) ([]byte, error) {
	export, err := BuildGraphExport(ctx, store)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(export, "", "  ")
}
