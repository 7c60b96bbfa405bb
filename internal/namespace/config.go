// Package namespace implements the Namespace Orchestrator: it expands a
// project's namespace configuration into concrete file sets, resolves each
// namespace's scenario list into an execution order, and tags the resulting
// graph nodes with the namespace's semantic tags.
package namespace

// Config is a single namespace entry as loaded from codeatlas.yml's
// `namespaces` map.
type Config struct {
	FilePatterns    []string                  `yaml:"file_patterns"`
	ExcludePatterns []string                  `yaml:"exclude_patterns,omitempty"`
	Description     string                    `yaml:"description,omitempty"`
	SemanticTags    []string                  `yaml:"semantic_tags,omitempty"`
	Scenarios       []string                  `yaml:"scenarios,omitempty"`
	ScenarioConfig  map[string]map[string]any `yaml:"scenario_config,omitempty"`
}

// DefaultScenarios is the scenario list a namespace runs when it declares
// none explicitly.
var DefaultScenarios = []string{"basic-structure", "file-dependency"}

// EffectiveScenarios returns c.Scenarios, or DefaultScenarios if c declared
// none.
func (c Config) EffectiveScenarios() []string {
	if len(c.Scenarios) == 0 {
		out := make([]string, len(DefaultScenarios))
		copy(out, DefaultScenarios)
		return out
	}
	return c.Scenarios
}

// ScenarioDef describes one named bundle of extractors: which edge types it
// binds to (AnalyzerBindings, used as the OWNED_EDGE_TYPES scope passed to
// Ownership), its declared execution-order predecessors (Requires), and an
// optional type-set parent it inherits owned edge types from (Extends).
type ScenarioDef struct {
	ID               string
	Extends          string
	Requires         []string
	AnalyzerBindings []string
}

// DefaultScenarioSet is the compiled-in scenario catalog matching the
// extractor families in internal/graph: structure, file-dependency, and
// symbol-dependency, plus a markdown-only link scenario.
func DefaultScenarioSet() map[string]ScenarioDef {
	return map[string]ScenarioDef{
		"basic-structure": {
			ID:               "basic-structure",
			AnalyzerBindings: []string{"contains", "declares"},
		},
		"file-dependency": {
			ID:               "file-dependency",
			Requires:         []string{"basic-structure"},
			AnalyzerBindings: []string{"imports", "imports_library", "imports_file", "exports_to"},
		},
		"symbol-dependency": {
			ID:               "symbol-dependency",
			Extends:          "file-dependency",
			AnalyzerBindings: []string{"calls", "instantiates", "references", "extends", "implements"},
		},
		"markdown-links": {
			ID:               "markdown-links",
			AnalyzerBindings: []string{"references"},
		},
	}
}
