// Package config provides configuration loading, defaults, and validation for
// the OmicsPath-Intelligence toolkit.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all toolkit settings.
const envPrefix = "OMICSPATH"

// configKeys lists every known configuration key. Viper's Unmarshal only sees
// environment variables for keys it already knows about, so each key is bound
// explicitly; without this, OMICSPATH_* overrides would be silently dropped
// when no config file is present.
var configKeys = []string{
	"log.level", "log.format", "log.output",
	"engine.scoring", "engine.min_coverage", "engine.components",
	"engine.folds", "engine.seed",
	"clustering.clusters", "clustering.use_pca", "clustering.pca_components",
	"clustering.consensus", "clustering.runs", "clustering.subsample_fraction",
	"simulation.effect_type", "simulation.input_type", "simulation.effects",
	"simulation.seed",
	"search.enabled",
	"search.milvus.addr", "search.milvus.db_name", "search.milvus.collection",
	"search.milvus.embedding_dim", "search.milvus.top_k", "search.milvus.timeout",
	"search.embedding.base_url", "search.embedding.model", "search.embedding.timeout",
}

// newViper builds a pre-configured Viper instance with the toolkit's standard
// settings: YAML file type, OMICSPATH_ env prefix, automatic env binding, and
// a key replacer that maps "." → "_" so that nested keys like
// "engine.min_coverage" resolve to "OMICSPATH_ENGINE_MIN_COVERAGE".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any OMICSPATH_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from OMICSPATH_* environment
// variables, with no config file required.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as the log level; callers decide
// which subset of changes is safe to apply at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// A changed file that fails to parse or validate does not trigger onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// Intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
