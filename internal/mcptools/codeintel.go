package mcptools

import (
	"github.com/codeatlas/engine/internal/batch"
	"github.com/codeatlas/engine/internal/graph"
	"github.com/codeatlas/engine/internal/namespace"
)

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool. The MCP Go SDK
// auto-generates JSON schemas from struct tags.

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	RepoPath    string                      `json:"repoPath" jsonschema:"the absolute path to the repository to index"`
	ProjectName string                      `json:"projectName,omitempty" jsonschema:"project name used to build node identifiers (default: repoPath's base name)"`
	Namespaces  map[string]namespace.Config `json:"namespaces,omitempty" jsonschema:"namespace definitions; default is a single namespace covering every file"`
	Concurrency int                         `json:"concurrency,omitempty" jsonschema:"number of files analyzed concurrently (default: 4)"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Stats  graph.GraphStats `json:"stats"`
	Report batch.Report     `json:"report"`
}

// FindNodesInput is the input for the find_nodes MCP tool.
type FindNodesInput struct {
	Type     string `json:"type,omitempty" jsonschema:"node type filter, e.g. file, class, function"`
	FilePath string `json:"filePath,omitempty" jsonschema:"exact file path filter"`
	NamePart string `json:"namePart,omitempty" jsonschema:"case-insensitive substring match against node name"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// FindNodesOutput is the result of the find_nodes MCP tool.
type FindNodesOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

// FindEdgesInput is the input for the find_edges MCP tool.
type FindEdgesInput struct {
	SourceID string `json:"sourceId,omitempty" jsonschema:"exact source node id filter"`
	TargetID string `json:"targetId,omitempty" jsonschema:"exact target node id filter"`
	Type     string `json:"type,omitempty" jsonschema:"edge type filter, e.g. calls, imports_file, extends"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// FindEdgesOutput is the result of the find_edges MCP tool.
type FindEdgesOutput struct {
	Edges []graph.Edge `json:"edges"`
	Total int          `json:"total"`
}

// QueryHierarchicalInput is the input for the query_hierarchical MCP tool.
type QueryHierarchicalInput struct {
	Type            string `json:"type" jsonschema:"edge type whose hierarchy closure to roll up"`
	IncludeChildren bool   `json:"includeChildren,omitempty" jsonschema:"include edges of types registered under type"`
	IncludeParents  bool   `json:"includeParents,omitempty" jsonschema:"include edges of types type is registered under"`
	MaxDepth        int    `json:"maxDepth,omitempty" jsonschema:"maximum hierarchy distance from type (0: unbounded)"`
}

// QueryTransitiveInput is the input for the query_transitive MCP tool.
type QueryTransitiveInput struct {
	Start             string   `json:"start,omitempty" jsonschema:"start node id; omit to compute the whole-graph closure"`
	Type              string   `json:"type" jsonschema:"transitive edge type to close over"`
	MaxPathLength     int      `json:"maxPathLength,omitempty" jsonschema:"maximum path length (default: 10)"`
	DetectCycles      bool     `json:"detectCycles,omitempty" jsonschema:"guard against revisiting a node already on the current path"`
	Strict            bool     `json:"strict,omitempty" jsonschema:"return an error instead of silently stopping when a cycle is hit"`
	RelationshipTypes []string `json:"relationshipTypes,omitempty" jsonschema:"additional edge types allowed in the traversal"`
}

// QueryInheritableInput is the input for the query_inheritable MCP tool.
type QueryInheritableInput struct {
	Start               string `json:"start" jsonschema:"start node id"`
	ParentType          string `json:"parentType" jsonschema:"containment relation type, typically contains"`
	ChildType           string `json:"childType" jsonschema:"inheritable relation type to propagate, e.g. extends"`
	MaxInheritanceDepth int    `json:"maxInheritanceDepth,omitempty" jsonschema:"maximum propagation depth (default: 10)"`
	DetectCycles        bool   `json:"detectCycles,omitempty"`
	Strict              bool   `json:"strict,omitempty"`
}

// QueryOutput is the shared result shape for the three inference query
// tools.
type QueryOutput struct {
	Relationships []graph.InferredRelationship `json:"relationships"`
	Total         int                          `json:"total"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.Cluster `json:"clusters"`
}

// ResolveUnknownsInput is the input for the resolve_unknowns MCP tool.
type ResolveUnknownsInput struct {
	ProjectName string `json:"projectName" jsonschema:"project name the unresolved edges were built under"`
}

// ResolveUnknownsOutput is the result of the resolve_unknowns MCP tool.
type ResolveUnknownsOutput struct {
	Results []graph.ResolutionResult `json:"results"`
}

// StatsInput is the input for the stats MCP tool.
type StatsInput struct{}

// StatsOutput is the result of the stats MCP tool.
type StatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}
