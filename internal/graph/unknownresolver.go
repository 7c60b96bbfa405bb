package graph

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/codeatlas/engine/internal/metrics"
)

// MatchKind classifies how a candidate symbol was matched against an
// unresolved reference, in descending priority order.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchType     MatchKind = "type"
	MatchContext  MatchKind = "context"
	MatchSemantic MatchKind = "semantic"
	MatchPartial  MatchKind = "partial"
)

// matchPriority orders candidates with equal confidence: an exact name+type
// hit always outranks a context-only or partial one.
var matchPriority = map[MatchKind]int{
	MatchExact:    10,
	MatchType:     8,
	MatchContext:  6,
	MatchSemantic: 4,
	MatchPartial:  2,
}

// resolvableEdgeTypes are the edge types whose TargetID is a flat symbol
// name emitted by an extractor (see extract_go.go's extractCall), rather
// than an import path handled by ImportResolver.
var resolvableEdgeTypes = map[string]bool{
	"calls":        true,
	"extends":      true,
	"implements":   true,
	"uses":         true,
	"instantiates": true,
	"accesses":     true,
	"returns":      true,
	"has_type":     true,
	"throws":       true,
	"overrides":    true,
}

// expectedNodeTypes maps an edge type to the node types a resolved target
// plausibly has, used for the type component of the confidence score.
var expectedNodeTypes = map[string][]NodeType{
	"calls":        {NodeTypeFunction, NodeTypeMethod},
	"extends":      {NodeTypeClass},
	"implements":   {NodeTypeInterface},
	"uses":         {NodeTypeVariable, NodeTypeProperty, NodeTypeType},
	"instantiates": {NodeTypeClass},
	"accesses":     {NodeTypeProperty, NodeTypeVariable},
	"returns":      {NodeTypeType, NodeTypeClass, NodeTypeInterface},
	"has_type":     {NodeTypeType, NodeTypeClass, NodeTypeInterface, NodeTypeEnum},
	"throws":       {NodeTypeClass, NodeTypeType},
	"overrides":    {NodeTypeMethod, NodeTypeFunction},
}

// confidenceThreshold is the minimum weighted score for an UnknownResolver
// candidate to be promoted to a confirmed aliasOf resolution.
const confidenceThreshold = 0.5

// Candidate is one candidate real node a resolver considered for an
// unresolved reference.
type Candidate struct {
	Node       Node      `json:"node"`
	Kind       MatchKind `json:"kind"`
	Confidence float64   `json:"confidence"`
}

// ResolutionResult records what the UnknownResolver did for a single
// unresolved reference: the placeholder it created, the candidates it
// considered, and (if confidence cleared the threshold) the real node it
// resolved to.
type ResolutionResult struct {
	UnknownNodeID  string      `json:"unknownNodeId"`
	TargetName     string      `json:"targetName"`
	SourceEdgeType string      `json:"sourceEdgeType"`
	Candidates     []Candidate `json:"candidates"`
	Resolved       bool        `json:"resolved"`
	ResolvedNodeID string      `json:"resolvedNodeId,omitempty"`
	AliasNodeID    string      `json:"aliasNodeId,omitempty"`
}

// UnknownResolver resolves edges whose target is a flat symbol name (emitted
// by an extractor that could not look the symbol up at parse time) into
// nodes already present in the graph. It follows the dual-node pattern:
// every unresolved target gets a persistent UnknownSymbol placeholder node,
// and the best-scoring candidate found for it gets an AliasSymbol node
// linked to both the placeholder and the candidate real node via aliasOf
// edges, so the resolution trail survives even when confidence never
// clears the threshold.
type UnknownResolver struct {
	store Store
}

// NewUnknownResolver creates an UnknownResolver over store.
func NewUnknownResolver(store Store) *UnknownResolver {
	return &UnknownResolver{store: store}
}

// ResolveProject scans every edge in the store whose type is in
// resolvableEdgeTypes and whose TargetID does not correspond to an existing
// node, creating unknown/alias nodes and aliasOf edges for each one found.
func (r *UnknownResolver) ResolveProject(ctx context.Context, projectName string) ([]ResolutionResult, error) {
	var results []ResolutionResult

	for edgeType := range resolvableEdgeTypes {
		edges, err := r.store.FindEdges(ctx, EdgeFilter{Type: edgeType})
		if err != nil {
			return results, NewError(KindIO, "UnknownResolver.ResolveProject", err)
		}
		for _, e := range edges {
			existing, err := r.store.GetNode(ctx, e.TargetID)
			if err != nil {
				return results, NewError(KindIO, "UnknownResolver.ResolveProject", err)
			}
			if existing != nil {
				continue // already resolves to a real node, nothing to do
			}
			res, err := r.resolveOne(ctx, projectName, e)
			if err != nil {
				return results, err
			}
			results = append(results, res)
		}
	}

	return results, nil
}

func (r *UnknownResolver) resolveOne(ctx context.Context, projectName string, e Edge) (ResolutionResult, error) {
	name := lastSymbolSegment(e.TargetID)
	unknownID := BuildIdentifier(projectName, e.SourceFile, NodeTypeUnknownSymbol, e.TargetID)

	if err := r.store.UpsertNode(ctx, Node{
		ID:        unknownID,
		Type:      NodeTypeUnknownSymbol,
		Name:      name,
		FilePath:  e.SourceFile,
		Metadata:  map[string]any{"originalTarget": e.TargetID, "edgeType": e.Type},
		UpdatedAt: time.Now(),
	}); err != nil {
		return ResolutionResult{}, NewError(KindIO, "UnknownResolver.resolveOne", err)
	}

	if err := r.store.UpsertEdge(ctx, Edge{
		SourceID:   e.SourceID,
		TargetID:   unknownID,
		Type:       e.Type,
		SourceFile: e.SourceFile,
		CreatedAt:  time.Now(),
	}); err != nil {
		return ResolutionResult{}, NewError(KindIO, "UnknownResolver.resolveOne", err)
	}

	result := ResolutionResult{
		UnknownNodeID:  unknownID,
		TargetName:     name,
		SourceEdgeType: e.Type,
	}

	candidates, err := r.searchCandidates(ctx, name, e)
	if err != nil {
		return result, err
	}
	result.Candidates = candidates
	if len(candidates) == 0 {
		return result, nil
	}

	best := candidates[0]
	aliasID := BuildIdentifier(projectName, e.SourceFile, NodeTypeAliasSymbol, e.TargetID, best.Node.Name)
	if err := r.store.UpsertNode(ctx, Node{
		ID:       aliasID,
		Type:     NodeTypeAliasSymbol,
		Name:     name,
		FilePath: e.SourceFile,
		Metadata: map[string]any{
			"candidateNodeId": best.Node.ID,
			"confidence":      best.Confidence,
			"matchKind":       string(best.Kind),
		},
		UpdatedAt: time.Now(),
	}); err != nil {
		return result, NewError(KindIO, "UnknownResolver.resolveOne", err)
	}
	result.AliasNodeID = aliasID

	if err := r.store.UpsertEdge(ctx, Edge{
		SourceID:   aliasID,
		TargetID:   unknownID,
		Type:       "aliasOf",
		SourceFile: e.SourceFile,
		Confidence: best.Confidence,
		CreatedAt:  time.Now(),
	}); err != nil {
		return result, NewError(KindIO, "UnknownResolver.resolveOne", err)
	}
	if err := r.store.UpsertEdge(ctx, Edge{
		SourceID:   aliasID,
		TargetID:   best.Node.ID,
		Type:       "aliasOf",
		SourceFile: e.SourceFile,
		Confidence: best.Confidence,
		CreatedAt:  time.Now(),
	}); err != nil {
		return result, NewError(KindIO, "UnknownResolver.resolveOne", err)
	}

	if best.Confidence >= confidenceThreshold {
		result.Resolved = true
		result.ResolvedNodeID = best.Node.ID
		if err := r.store.UpsertEdge(ctx, Edge{
			SourceID:   unknownID,
			TargetID:   best.Node.ID,
			Type:       "aliasOf",
			SourceFile: e.SourceFile,
			Confidence: best.Confidence,
			CreatedAt:  time.Now(),
		}); err != nil {
			return result, NewError(KindIO, "UnknownResolver.resolveOne", err)
		}
		metrics.UnknownSymbolsResolved.Inc()
	}

	return result, nil
}

// searchCandidates finds every node whose name plausibly matches target's
// symbol name and scores each one, most confident first.
func (r *UnknownResolver) searchCandidates(ctx context.Context, name string, e Edge) ([]Candidate, error) {
	nodes, err := r.store.FindNodes(ctx, NodeFilter{NamePart: name})
	if err != nil {
		return nil, NewError(KindIO, "UnknownResolver.searchCandidates", err)
	}

	expected := expectedNodeTypes[e.Type]

	var out []Candidate
	for _, n := range nodes {
		if n.Type == NodeTypeUnknownSymbol || n.Type == NodeTypeAliasSymbol {
			continue // resolver placeholders are not candidate real nodes
		}
		nameScore := nameMatchScore(name, n.Name)
		if nameScore == 0 {
			continue
		}
		typeScore := 0.0
		for _, t := range expected {
			if n.Type == t {
				typeScore = 1.0
				break
			}
		}
		contextScore := contextMatchScore(e.SourceFile, n.FilePath)

		confidence := 0.4*nameScore + 0.3*typeScore + 0.3*contextScore
		if confidence > 1 {
			confidence = 1
		}
		if confidence < 0 {
			confidence = 0
		}

		out = append(out, Candidate{
			Node:       n,
			Kind:       classifyMatch(nameScore, typeScore, contextScore),
			Confidence: confidence,
		})
	}

	sortCandidates(out)
	return out, nil
}

func nameMatchScore(want, got string) float64 {
	if want == "" || got == "" {
		return 0
	}
	if strings.EqualFold(want, got) {
		return 1.0
	}
	if strings.Contains(strings.ToLower(got), strings.ToLower(want)) || strings.Contains(strings.ToLower(want), strings.ToLower(got)) {
		return 0.5
	}
	return 0
}

func contextMatchScore(sourceFile, candidateFile string) float64 {
	if sourceFile == "" || candidateFile == "" {
		return 0
	}
	if sourceFile == candidateFile {
		return 1.0
	}
	if path.Dir(sourceFile) == path.Dir(candidateFile) {
		return 0.5
	}
	return 0
}

func classifyMatch(nameScore, typeScore, contextScore float64) MatchKind {
	switch {
	case nameScore == 1.0 && typeScore == 1.0:
		return MatchExact
	case typeScore == 1.0:
		return MatchType
	case contextScore >= 0.5:
		return MatchContext
	case nameScore >= 0.5:
		return MatchPartial
	default:
		return MatchSemantic
	}
}

func sortCandidates(cands []Candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0; j-- {
			a, b := cands[j-1], cands[j]
			if a.Confidence > b.Confidence || (a.Confidence == b.Confidence && matchPriority[a.Kind] >= matchPriority[b.Kind]) {
				break
			}
			cands[j-1], cands[j] = cands[j], cands[j-1]
		}
	}
}

// lastSymbolSegment extracts the trailing identifier from a flat target
// string such as "pkg.Func" or "obj.method", for use as the search name.
func lastSymbolSegment(target string) string {
	if idx := strings.LastIndexAny(target, ".:/"); idx >= 0 && idx+1 < len(target) {
		return target[idx+1:]
	}
	return target
}
