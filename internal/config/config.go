// Package config loads codeatlas.yml: the project's output settings, its
// namespace definitions, and the inference and batch-runner tuning knobs.
package config

import (
	"os"
	"path/filepath"

	"github.com/codeatlas/engine/internal/graph"
	"github.com/codeatlas/engine/internal/namespace"
	"gopkg.in/yaml.v3"
)

// BatchConfig tunes the bounded-concurrency file analysis runner (see
// internal/batch). OnProgress/OnError name a built-in reporting hook rather
// than carrying a callback value, since those can't round-trip through YAML.
type BatchConfig struct {
	BatchSize     int    `yaml:"batch_size,omitempty"`
	Concurrency   int    `yaml:"concurrency,omitempty"`
	TimeoutMS     int    `yaml:"timeout_ms,omitempty"`
	RetryCount    int    `yaml:"retry_count,omitempty"`
	RetryDelayMS  int    `yaml:"retry_delay_ms,omitempty"`
	OnProgress    string `yaml:"on_progress,omitempty"` // "console" | "silent"
	OnError       string `yaml:"on_error,omitempty"`    // "console" | "silent"
}

// DefaultBatchConfig matches the Runner's own zero-value defaults (see
// batch.NewRunner).
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Concurrency: 4, RetryCount: 0}
}

// InferenceConfigYAML is the YAML-friendly mirror of graph.InferenceConfig:
// identical fields, but with a plain string for the sync strategy so it can
// be unmarshaled without a custom type.
type InferenceConfigYAML struct {
	EnableCache              *bool  `yaml:"enable_cache,omitempty"`
	CacheSyncStrategy        string `yaml:"cache_sync_strategy,omitempty"`
	DefaultMaxPathLength     int    `yaml:"default_max_path_length,omitempty"`
	DefaultMaxHierarchyDepth int    `yaml:"default_max_hierarchy_depth,omitempty"`
	EnableCycleDetection     *bool  `yaml:"enable_cycle_detection,omitempty"`
}

// ToEngineConfig converts the YAML shape into graph.InferenceConfig,
// applying spec defaults (enable_cache=true, cache_sync_strategy=lazy,
// default_max_path_length=10, enable_cycle_detection=true) for any field
// left unset.
func (y InferenceConfigYAML) ToEngineConfig() graph.InferenceConfig {
	cfg := graph.DefaultInferenceConfig()
	if y.EnableCache != nil {
		cfg.EnableCache = *y.EnableCache
	}
	if y.CacheSyncStrategy != "" {
		cfg.CacheSyncStrategy = graph.CacheSyncStrategy(y.CacheSyncStrategy)
	}
	if y.DefaultMaxPathLength > 0 {
		cfg.DefaultMaxPathLength = y.DefaultMaxPathLength
	}
	if y.DefaultMaxHierarchyDepth > 0 {
		cfg.DefaultMaxHierarchyDepth = y.DefaultMaxHierarchyDepth
	}
	if y.EnableCycleDetection != nil {
		cfg.EnableCycleDetection = *y.EnableCycleDetection
	}
	return cfg
}

// ProjectConfig holds project-level settings loaded from codeatlas.yml.
type ProjectConfig struct {
	OutputDir     string                        `yaml:"outputDir,omitempty"`
	Languages     []string                      `yaml:"languages,omitempty"`
	ExcludeDirs   []string                      `yaml:"excludeDirs,omitempty"`
	Verbose       bool                          `yaml:"verbose,omitempty"`
	Namespaces    map[string]namespace.Config   `yaml:"namespaces,omitempty"`
	Inference     InferenceConfigYAML           `yaml:"inference,omitempty"`
	Batch         BatchConfig                   `yaml:"batch,omitempty"`
}

// Load attempts to read codeatlas.yml or codeatlas.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists — namespaces default to a single implicit namespace covering every
// supported language over the whole project, built by the caller.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codeatlas.yml", "codeatlas.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg := &ProjectConfig{Batch: DefaultBatchConfig()}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return &ProjectConfig{Batch: DefaultBatchConfig()}, nil
}
