package namespace

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codeatlas/engine/internal/graph"
)

// FileMatch is one file resolved into a namespace by ExpandFiles.
type FileMatch struct {
	Path     string // project-relative, forward-slash separated
	AbsPath  string
	Language graph.Language
}

// ExpandFiles walks projectRoot and returns every regular file matching at
// least one of cfg.FilePatterns and none of cfg.ExcludePatterns, restricted
// to languages this engine's extractors understand.
func ExpandFiles(projectRoot string, cfg Config) ([]FileMatch, error) {
	var out []FileMatch

	err := filepath.WalkDir(projectRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(rel, cfg.FilePatterns) || matchesAny(rel, cfg.ExcludePatterns) {
			return nil
		}

		lang, ok := graph.LanguageForExt(filepath.Ext(rel))
		if !ok {
			return nil
		}

		out = append(out, FileMatch{Path: rel, AbsPath: p, Language: lang})
		return nil
	})
	if err != nil {
		return nil, graph.NewError(graph.KindIO, "ExpandFiles", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// matchesAny reports whether rel matches any glob in patterns. Patterns may
// use "**" as a path-spanning wildcard segment, in addition to the single-
// segment wildcards filepath.Match already supports.
func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if globMatch(p, rel) {
			return true
		}
	}
	return false
}

// globMatch supports "**" (any number of path segments, including zero) by
// splitting both the pattern and the candidate on "/" and recursively
// matching segment by segment; a plain segment is matched with
// filepath.Match so "*.go" and "file?.ts" style globs still work.
func globMatch(pattern, name string) bool {
	return globMatchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func globMatchSegments(pat, name []string) bool {
	if len(pat) == 0 {
		return len(name) == 0
	}
	if pat[0] == "**" {
		if globMatchSegments(pat[1:], name) {
			return true
		}
		if len(name) == 0 {
			return false
		}
		return globMatchSegments(pat, name[1:])
	}
	if len(name) == 0 {
		return false
	}
	ok, err := filepath.Match(pat[0], name[0])
	if err != nil || !ok {
		return false
	}
	return globMatchSegments(pat[1:], name[1:])
}

// Orchestrator drives namespace-scoped analysis: it resolves a namespace's
// file set and scenario order, then runs each file through the already-
// parsed result, filtering edges down to the running scenario's effective
// AnalyzerBindings before persisting under an Ownership scoped to that
// scenario.
type Orchestrator struct {
	store     graph.Store
	scenarios map[string]ScenarioDef
}

// NewOrchestrator creates an Orchestrator over store, using the given
// scenario catalog (DefaultScenarioSet if nil).
func NewOrchestrator(store graph.Store, scenarios map[string]ScenarioDef) *Orchestrator {
	if scenarios == nil {
		scenarios = DefaultScenarioSet()
	}
	return &Orchestrator{store: store, scenarios: scenarios}
}

// RunNamespace resolves name's scenario order, then for the single file
// given, applies parsed's nodes/edges once per scenario — each scenario
// sees only the edges whose type it owns — tagging every persisted node
// with the namespace's semantic tags.
func (o *Orchestrator) RunNamespace(ctx context.Context, projectName, name string, cfg Config, file FileMatch, parsed *graph.ParseResult) error {
	order, err := ResolveScenarios(o.scenarios, cfg.EffectiveScenarios())
	if err != nil {
		return err
	}

	for _, scenario := range order {
		owner := graph.NewOwner(name+":"+scenario.ID, scenario.AnalyzerBindings)

		edges := filterEdgesByType(parsed.Edges, scenario.AnalyzerBindings)
		nodes := tagNodes(parsed.Nodes, cfg.SemanticTags)

		ownership := graph.NewOwnership(o.store)
		if err := ownership.Reanalyze(ctx, owner, file.Path, nodes, edges); err != nil {
			return err
		}
	}

	fileNode := parsed.File
	fileNode.Metadata = mergeTags(fileNode.Metadata, cfg.SemanticTags)
	fileNode.UpdatedAt = time.Now()
	return o.store.UpsertNode(ctx, fileNode)
}

func filterEdgesByType(edges []graph.Edge, allowed []string) []graph.Edge {
	set := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}
	var out []graph.Edge
	for _, e := range edges {
		if set[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func tagNodes(nodes []graph.Node, tags []string) []graph.Node {
	if len(tags) == 0 {
		return nodes
	}
	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		n.Metadata = mergeTags(n.Metadata, tags)
		out[i] = n
	}
	return out
}

func mergeTags(meta map[string]any, tags []string) map[string]any {
	if len(tags) == 0 {
		return meta
	}
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["semanticTags"] = tags
	return out
}
