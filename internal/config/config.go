// Package config defines all configuration structures for the
// OmicsPath-Intelligence toolkit.  No I/O or parsing logic lives here — only
// plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "text"
	Output string `mapstructure:"output"`
}

// EngineConfig holds pathway-integration engine parameters.
type EngineConfig struct {
	Scoring     string `mapstructure:"scoring"` // "svd" | "zscore" | "ssgsea" | "clustpa"
	MinCoverage int    `mapstructure:"min_coverage"`
	Components  int    `mapstructure:"components"`
	Folds       int    `mapstructure:"folds"`
	// Seed fixes subsampling and fold shuffling; 0 keeps runs
	// nondeterministic.
	Seed int64 `mapstructure:"seed"`
}

// ClusteringConfig holds single-view clustering parameters.
type ClusteringConfig struct {
	Clusters          int     `mapstructure:"clusters"`
	UsePCA            bool    `mapstructure:"use_pca"`
	PCAComponents     int     `mapstructure:"pca_components"`
	Consensus         bool    `mapstructure:"consensus"`
	Runs              int     `mapstructure:"runs"`
	SubsampleFraction float64 `mapstructure:"subsample_fraction"`
}

// SimulationConfig holds synthetic-enrichment generator parameters.
type SimulationConfig struct {
	EffectType string    `mapstructure:"effect_type"` // "constant" | "var"
	InputType  string    `mapstructure:"input_type"`  // "zscore" | "log"
	Effects    []float64 `mapstructure:"effects"`
	Seed       int64     `mapstructure:"seed"`
}

// MilvusConfig holds Milvus vector-store connection parameters for the
// compound annotation search.
type MilvusConfig struct {
	Addr         string        `mapstructure:"addr"`
	DBName       string        `mapstructure:"db_name"`
	Collection   string        `mapstructure:"collection"`
	EmbeddingDim int           `mapstructure:"embedding_dim"`
	TopK         int           `mapstructure:"top_k"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig holds the text-embedding service parameters used to embed
// compound names before vector search.
type EmbeddingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig groups the annotation-search collaborators.
type SearchConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	Milvus    MilvusConfig    `mapstructure:"milvus"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the toolkit.  Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Clustering ClusteringConfig `mapstructure:"clustering"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Search     SearchConfig     `mapstructure:"search"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	// Engine
	switch c.Engine.Scoring {
	case "svd", "zscore", "ssgsea", "clustpa":
	default:
		return fmt.Errorf("config: engine.scoring %q is invalid; expected svd|zscore|ssgsea|clustpa", c.Engine.Scoring)
	}
	if c.Engine.MinCoverage < 1 {
		return fmt.Errorf("config: engine.min_coverage must be ≥ 1, got %d", c.Engine.MinCoverage)
	}
	if c.Engine.Components < 1 {
		return fmt.Errorf("config: engine.components must be ≥ 1, got %d", c.Engine.Components)
	}
	if c.Engine.Folds < 2 {
		return fmt.Errorf("config: engine.folds must be ≥ 2, got %d", c.Engine.Folds)
	}

	// Clustering
	if c.Clustering.Clusters < 2 {
		return fmt.Errorf("config: clustering.clusters must be ≥ 2, got %d", c.Clustering.Clusters)
	}
	if c.Clustering.Runs < 1 {
		return fmt.Errorf("config: clustering.runs must be ≥ 1, got %d", c.Clustering.Runs)
	}
	if c.Clustering.SubsampleFraction <= 0 || c.Clustering.SubsampleFraction > 1 {
		return fmt.Errorf("config: clustering.subsample_fraction %g is out of range (0, 1]", c.Clustering.SubsampleFraction)
	}

	// Simulation
	switch c.Simulation.EffectType {
	case "constant", "var":
	default:
		return fmt.Errorf("config: simulation.effect_type %q is invalid; expected constant|var", c.Simulation.EffectType)
	}
	switch c.Simulation.InputType {
	case "zscore", "log":
	default:
		return fmt.Errorf("config: simulation.input_type %q is invalid; expected zscore|log", c.Simulation.InputType)
	}

	// Search (validated only when the collaborator is enabled)
	if c.Search.Enabled {
		if c.Search.Milvus.Addr == "" {
			return fmt.Errorf("config: search.milvus.addr is required when search is enabled")
		}
		if c.Search.Milvus.EmbeddingDim < 1 {
			return fmt.Errorf("config: search.milvus.embedding_dim must be ≥ 1, got %d", c.Search.Milvus.EmbeddingDim)
		}
		if c.Search.Milvus.TopK < 1 {
			return fmt.Errorf("config: search.milvus.top_k must be ≥ 1, got %d", c.Search.Milvus.TopK)
		}
		if c.Search.Embedding.BaseURL == "" {
			return fmt.Errorf("config: search.embedding.base_url is required when search is enabled")
		}
	}

	return nil
}
