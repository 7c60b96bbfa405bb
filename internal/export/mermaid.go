package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeatlas/engine/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store:
// files are grouped into subgraphs by their cohesion cluster, and
// imports_file edges become arrows between them.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	clusters, err := graph.LoadClusters(ctx, store)
	if err != nil {
		return "", fmt.Errorf("load clusters: %w", err)
	}

	edges, err := store.FindEdges(ctx, graph.EdgeFilter{Type: "imports_file"})
	if err != nil {
		return "", fmt.Errorf("find edges: %w", err)
	}

	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	clustered := make(map[string]bool)
	for _, c := range clusters {
		for _, member := range c.Members {
			clustered[member] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Name < clusters[j].Name })
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		sorted := make([]string, len(c.Members))
		copy(sorted, c.Members)
		sort.Strings(sorted)

		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s (cohesion %.2f)\"]\n", getID(c.ID+"_cluster"), c.Name, c.CohesionScore))
		for _, member := range sorted {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(member), shortPath(member)))
		}
		sb.WriteString("  end\n")
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		return edges[i].TargetID < edges[j].TargetID
	})
	for _, e := range edges {
		srcID := getID(e.SourceID)
		tgtID := getID(e.TargetID)
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", srcID, tgtID))
	}

	return sb.String(), nil
}

// shortPath returns the last 2 path segments of a node identifier's file
// path for readability.
func shortPath(id string) string {
	parsed, ok := graph.ParseIdentifier(id)
	path := id
	if ok {
		path = parsed.FilePath
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
