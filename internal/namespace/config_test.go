package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigEffectiveScenariosDefaultsWhenUnset(t *testing.T) {
	var cfg Config
	assert.Equal(t, []string{"basic-structure", "file-dependency"}, cfg.EffectiveScenarios())
}

func TestConfigEffectiveScenariosReturnsDeclaredList(t *testing.T) {
	cfg := Config{Scenarios: []string{"markdown-links"}}
	assert.Equal(t, []string{"markdown-links"}, cfg.EffectiveScenarios())
}

func TestConfigEffectiveScenariosDoesNotAliasDefault(t *testing.T) {
	cfg := Config{}
	out := cfg.EffectiveScenarios()
	out[0] = "mutated"
	assert.Equal(t, "basic-structure", DefaultScenarios[0])
}

func TestDefaultScenarioSetHasExpectedDependencies(t *testing.T) {
	set := DefaultScenarioSet()

	require := set["file-dependency"]
	assert.Equal(t, []string{"basic-structure"}, require.Requires)

	symbolDep := set["symbol-dependency"]
	assert.Equal(t, "file-dependency", symbolDep.Extends)

	basic := set["basic-structure"]
	assert.Empty(t, basic.Requires)
	assert.Empty(t, basic.Extends)

	markdown := set["markdown-links"]
	assert.Equal(t, []string{"references"}, markdown.AnalyzerBindings)
}
