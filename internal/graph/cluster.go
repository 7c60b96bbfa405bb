package graph

import (
	"context"
	"strings"
)

// Cluster is a connected group of files linked by resolved file-to-file
// imports, persisted as a cluster node with belongs_to edges from each
// member file.
type Cluster struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"`
}

// ComputeClusters finds connected components in the file-to-file graph
// (imports_file edges only) among the project's file nodes and persists
// each component with two or more members as a cluster node.
//
// Algorithm:
//  1. Build an undirected adjacency list from imports_file edges among the
//     project's known file nodes.
//  2. Find connected components via BFS.
//  3. For each component with >= 2 files, compute a cohesion score and
//     upsert the cluster node plus one belongs_to edge per member.
func ComputeClusters(ctx context.Context, store Store, projectName string) ([]Cluster, error) {
	files, err := store.FindNodes(ctx, NodeFilter{Type: NodeTypeFile})
	if err != nil {
		return nil, NewError(KindIO, "ComputeClusters", err)
	}

	edges, err := store.FindEdges(ctx, EdgeFilter{Type: "imports_file"})
	if err != nil {
		return nil, NewError(KindIO, "ComputeClusters", err)
	}

	fileIDs := make(map[string]bool, len(files))
	pathByID := make(map[string]string, len(files))
	for _, f := range files {
		fileIDs[f.ID] = true
		pathByID[f.ID] = f.FilePath
	}

	adj := buildAdjacency(files, edges, fileIDs)

	visited := make(map[string]bool, len(files))
	var clusters []Cluster

	for _, f := range files {
		if visited[f.ID] {
			continue
		}
		component := bfsComponent(f.ID, adj, visited)
		if len(component) < 2 {
			continue
		}

		paths := make([]string, len(component))
		for i, id := range component {
			paths[i] = pathByID[id]
		}

		cohesion := computeCohesion(component, adj)
		name := longestCommonPrefix(paths)
		if name == "" {
			name = "cluster"
		}

		clusterID := BuildIdentifier(projectName, name, NodeTypeCluster, name)
		cluster := Cluster{
			ID:            clusterID,
			Name:          name,
			CohesionScore: cohesion,
			Members:       component,
		}

		if err := store.UpsertNode(ctx, Node{
			ID:       clusterID,
			Type:     NodeTypeCluster,
			Name:     name,
			FilePath: name,
			Metadata: map[string]any{
				"cohesionScore": cohesion,
				"memberCount":   len(component),
			},
		}); err != nil {
			return nil, NewError(KindIO, "ComputeClusters", err)
		}

		for _, member := range component {
			if err := store.UpsertEdge(ctx, Edge{
				SourceID:   member,
				TargetID:   clusterID,
				Type:       "belongs_to",
				SourceFile: pathByID[member],
			}); err != nil {
				return nil, NewError(KindIO, "ComputeClusters", err)
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

// LoadClusters reconstructs the persisted cluster set from cluster nodes and
// their belongs_to edges, for consumers (exporters, MCP tools) that want the
// last computed clustering without recomputing it.
func LoadClusters(ctx context.Context, store Store) ([]Cluster, error) {
	clusterNodes, err := store.FindNodes(ctx, NodeFilter{Type: NodeTypeCluster})
	if err != nil {
		return nil, NewError(KindIO, "LoadClusters", err)
	}

	belongsTo, err := store.FindEdges(ctx, EdgeFilter{Type: "belongs_to"})
	if err != nil {
		return nil, NewError(KindIO, "LoadClusters", err)
	}
	membersByCluster := make(map[string][]string, len(clusterNodes))
	for _, e := range belongsTo {
		membersByCluster[e.TargetID] = append(membersByCluster[e.TargetID], e.SourceID)
	}

	out := make([]Cluster, 0, len(clusterNodes))
	for _, n := range clusterNodes {
		cohesion, _ := n.Metadata["cohesionScore"].(float64)
		out = append(out, Cluster{
			ID:            n.ID,
			Name:          n.Name,
			CohesionScore: cohesion,
			Members:       membersByCluster[n.ID],
		})
	}
	return out, nil
}

// buildAdjacency constructs a bidirectional adjacency list from
// imports_file edges in a single pass, restricted to the given file nodes.
func buildAdjacency(files []Node, edges []Edge, fileIDs map[string]bool) map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(files))
	for _, f := range files {
		adj[f.ID] = make(map[string]bool)
	}

	for _, e := range edges {
		if !fileIDs[e.SourceID] || !fileIDs[e.TargetID] {
			continue
		}
		adj[e.SourceID][e.TargetID] = true
		adj[e.TargetID][e.SourceID] = true
	}

	return adj
}

// bfsComponent performs BFS from start on the adjacency list and returns
// all reachable nodes. It marks visited nodes as it goes.
func bfsComponent(start string, adj map[string]map[string]bool, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return component
}

// computeCohesion calculates internal_edges / (internal_edges + external_edges)
// for a connected component. Internal edges connect two members; external
// edges connect a member to a file outside the component.
func computeCohesion(component []string, adj map[string]map[string]bool) float64 {
	memberSet := make(map[string]bool, len(component))
	for _, m := range component {
		memberSet[m] = true
	}

	internalEdges := 0
	externalEdges := 0

	for _, m := range component {
		for neighbor := range adj[m] {
			if memberSet[neighbor] {
				if m < neighbor {
					internalEdges++
				}
			} else {
				externalEdges++
			}
		}
	}

	total := internalEdges + externalEdges
	if total == 0 {
		return 0
	}
	return float64(internalEdges) / float64(total)
}

// longestCommonPrefix finds the longest common directory prefix among a set
// of file paths. Returns an empty string if no common prefix is found.
func longestCommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	if len(paths) == 1 {
		return paths[0]
	}

	prefix := paths[0]
	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			trimmed := strings.TrimRight(prefix, "/")
			idx := strings.LastIndex(trimmed, "/")
			if idx < 0 {
				return ""
			}
			prefix = trimmed[:idx+1]
			if prefix == "/" || prefix == "" {
				return prefix
			}
		}
	}

	if !strings.HasSuffix(prefix, "/") {
		idx := strings.LastIndex(prefix, "/")
		if idx >= 0 {
			prefix = prefix[:idx+1]
		}
	}

	return prefix
}
