package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default values
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills zero-valued fields of cfg with the toolkit defaults.
// Explicitly configured values are never overwritten.
func ApplyDefaults(cfg *Config) {
	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}

	// Engine
	if cfg.Engine.Scoring == "" {
		cfg.Engine.Scoring = "svd"
	}
	if cfg.Engine.MinCoverage == 0 {
		cfg.Engine.MinCoverage = 3
	}
	if cfg.Engine.Components == 0 {
		cfg.Engine.Components = 2
	}
	if cfg.Engine.Folds == 0 {
		cfg.Engine.Folds = 5
	}

	// Clustering
	if cfg.Clustering.Clusters == 0 {
		cfg.Clustering.Clusters = 2
	}
	if cfg.Clustering.Runs == 0 {
		cfg.Clustering.Runs = 10
	}
	if cfg.Clustering.SubsampleFraction == 0 {
		cfg.Clustering.SubsampleFraction = 0.8
	}

	// Simulation
	if cfg.Simulation.EffectType == "" {
		cfg.Simulation.EffectType = "var"
	}
	if cfg.Simulation.InputType == "" {
		cfg.Simulation.InputType = "log"
	}
	if len(cfg.Simulation.Effects) == 0 {
		cfg.Simulation.Effects = []float64{1, 2}
	}

	// Search
	if cfg.Search.Milvus.DBName == "" {
		cfg.Search.Milvus.DBName = "default"
	}
	if cfg.Search.Milvus.Collection == "" {
		cfg.Search.Milvus.Collection = "compound_annotations"
	}
	if cfg.Search.Milvus.EmbeddingDim == 0 {
		cfg.Search.Milvus.EmbeddingDim = 384
	}
	if cfg.Search.Milvus.TopK == 0 {
		cfg.Search.Milvus.TopK = 10
	}
	if cfg.Search.Milvus.Timeout == 0 {
		cfg.Search.Milvus.Timeout = 10 * time.Second
	}
	if cfg.Search.Embedding.Model == "" {
		cfg.Search.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if cfg.Search.Embedding.Timeout == 0 {
		cfg.Search.Embedding.Timeout = 15 * time.Second
	}
}
