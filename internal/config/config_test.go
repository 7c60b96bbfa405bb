package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/engine/internal/graph"
)

func TestLoadReturnsDefaultsWhenNoConfigFileExists(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchConfig(), cfg.Batch)
	assert.Empty(t, cfg.Namespaces)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
outputDir: out
languages: [go, typescript]
namespaces:
  core:
    file_patterns: ["**/*.go"]
    scenarios: ["basic-structure"]
batch:
  concurrency: 8
  retry_count: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"go", "typescript"}, cfg.Languages)
	require.Contains(t, cfg.Namespaces, "core")
	assert.Equal(t, []string{"**/*.go"}, cfg.Namespaces["core"].FilePatterns)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, 2, cfg.Batch.RetryCount)
}

func TestLoadPrefersYmlOverYamlExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yml"), []byte("outputDir: from-yml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yaml"), []byte("outputDir: from-yaml"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yml", cfg.OutputDir)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yml"), []byte("outputDir: [unterminated"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestDefaultBatchConfigMatchesRunnerDefaults(t *testing.T) {
	cfg := DefaultBatchConfig()
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 0, cfg.RetryCount)
}

func TestInferenceConfigYAMLToEngineConfigAppliesDefaultsWhenUnset(t *testing.T) {
	var y InferenceConfigYAML
	got := y.ToEngineConfig()
	assert.Equal(t, graph.DefaultInferenceConfig(), got)
}

func TestInferenceConfigYAMLToEngineConfigOverridesDefaults(t *testing.T) {
	enableCache := false
	y := InferenceConfigYAML{
		EnableCache:              &enableCache,
		CacheSyncStrategy:        string(graph.SyncEager),
		DefaultMaxPathLength:     25,
		DefaultMaxHierarchyDepth: 3,
	}
	got := y.ToEngineConfig()
	assert.False(t, got.EnableCache)
	assert.Equal(t, graph.SyncEager, got.CacheSyncStrategy)
	assert.Equal(t, 25, got.DefaultMaxPathLength)
	assert.Equal(t, 3, got.DefaultMaxHierarchyDepth)
	assert.True(t, got.EnableCycleDetection, "unset bool pointer should keep the spec default")
}
