package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScenariosOrdersByRequiresOnly(t *testing.T) {
	order, err := ResolveScenarios(DefaultScenarioSet(), []string{"symbol-dependency"})
	require.NoError(t, err)

	ids := make([]string, len(order))
	for i, d := range order {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"basic-structure", "file-dependency", "symbol-dependency"}, ids)
}

func TestResolveScenariosMergesExtendsIntoBindings(t *testing.T) {
	order, err := ResolveScenarios(DefaultScenarioSet(), []string{"symbol-dependency"})
	require.NoError(t, err)

	var symbolDep ScenarioDef
	for _, d := range order {
		if d.ID == "symbol-dependency" {
			symbolDep = d
		}
	}
	require.NotEmpty(t, symbolDep.ID)
	assert.Contains(t, symbolDep.AnalyzerBindings, "calls")
	assert.Contains(t, symbolDep.AnalyzerBindings, "imports_file", "extends chain should pull in file-dependency's bindings")
}

func TestResolveScenariosLeavesUnrelatedBindingsUntouched(t *testing.T) {
	order, err := ResolveScenarios(DefaultScenarioSet(), []string{"markdown-links"})
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Equal(t, []string{"references"}, order[0].AnalyzerBindings)
}

func TestResolveScenariosRejectsUnknownScenario(t *testing.T) {
	_, err := ResolveScenarios(DefaultScenarioSet(), []string{"does-not-exist"})
	require.Error(t, err)
}

func TestResolveScenariosDetectsRequiresCycle(t *testing.T) {
	defs := map[string]ScenarioDef{
		"a": {ID: "a", Requires: []string{"b"}},
		"b": {ID: "b", Requires: []string{"a"}},
	}
	_, err := ResolveScenarios(defs, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestResolveScenariosIsDeterministicAcrossCalls(t *testing.T) {
	defs := DefaultScenarioSet()
	first, err := ResolveScenarios(defs, []string{"symbol-dependency", "markdown-links"})
	require.NoError(t, err)

	second, err := ResolveScenarios(defs, []string{"symbol-dependency", "markdown-links"})
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestResolveScenariosClosureIncludesExtendsTarget(t *testing.T) {
	order, err := ResolveScenarios(DefaultScenarioSet(), []string{"symbol-dependency"})
	require.NoError(t, err)

	var ids []string
	for _, d := range order {
		ids = append(ids, d.ID)
	}
	assert.Contains(t, ids, "file-dependency", "extends target must be pulled into closure even without being selected directly")
}
