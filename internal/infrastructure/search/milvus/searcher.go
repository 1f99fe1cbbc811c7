package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Match types reported by the compound annotation collection.
const (
	MatchName    = "name"
	MatchSynonym = "synonym"
)

// Field names of the annotation collection schema.
const (
	fieldEmbedding  = "embedding"
	fieldCompoundID = "compound_id"
	fieldName       = "name"
	fieldMatchType  = "match_type"
)

// lookupConcurrency bounds the fan-out of LookupAll.
const lookupConcurrency = 4

// Embedder turns free text into dense vectors comparable to the stored
// annotation embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds the connection and query parameters for the annotation
// searcher.
type Config struct {
	Addr         string
	DBName       string
	Collection   string
	EmbeddingDim int
	TopK         int
	Timeout      time.Duration
}

// ValidateConfig validates the searcher configuration.
func ValidateConfig(cfg Config) error {
	if cfg.Addr == "" {
		return errors.New(errors.ErrCodeValidation, "Addr is required")
	}
	if cfg.Collection == "" {
		return errors.New(errors.ErrCodeValidation, "Collection is required")
	}
	if cfg.EmbeddingDim < 0 {
		return errors.New(errors.ErrCodeValidation, "EmbeddingDim must be >= 0")
	}
	if cfg.TopK < 0 {
		return errors.New(errors.ErrCodeValidation, "TopK must be >= 0")
	}
	if cfg.Timeout < 0 {
		return errors.New(errors.ErrCodeValidation, "Timeout must be >= 0")
	}
	return nil
}

// Hit is one ranked annotation match for a query string.
type Hit struct {
	CompoundID string
	Name       string
	MatchType  string
	Score      float64
}

// searchClient is the subset of the milvus client the searcher needs.
type searchClient interface {
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// newMilvusClient is a variable to allow mocking in tests.
var newMilvusClient = func(ctx context.Context, cfg client.Config) (searchClient, error) {
	return client.NewClient(ctx, cfg)
}

// Searcher resolves compound names and synonyms against a milvus collection
// of annotation embeddings. It is an optional collaborator: nothing in the
// analysis pipeline depends on it.
type Searcher struct {
	mc       searchClient
	embedder Embedder
	config   Config
	logger   logging.Logger
}

// NewSearcher connects to milvus and returns a ready Searcher.
func NewSearcher(ctx context.Context, cfg Config, embedder Embedder, logger logging.Logger) (*Searcher, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, errors.New(errors.ErrCodeValidation, "embedder is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	// Fill defaults
	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	mc, err := newMilvusClient(connectCtx, client.Config{
		Address: cfg.Addr,
		DBName:  cfg.DBName,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to connect to annotation store")
	}

	logger.Info("annotation searcher connected",
		logging.String("addr", cfg.Addr),
		logging.String("collection", cfg.Collection))

	return &Searcher{
		mc:       mc,
		embedder: embedder,
		config:   cfg,
		logger:   logger.Named("search"),
	}, nil
}

// Close releases the milvus connection.
func (s *Searcher) Close() error {
	return s.mc.Close()
}

// Lookup embeds a free-text compound query and returns the ranked annotation
// hits, best first. Scores are cosine similarities normalized to [0,1].
func (s *Searcher) Lookup(ctx context.Context, query string) ([]Hit, error) {
	if query == "" {
		return nil, errors.New(errors.ErrCodeValidation, "query cannot be empty")
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.Newf(errors.ErrCodeEmbeddingFailed, "expected 1 embedding, got %d", len(vecs))
	}
	if s.config.EmbeddingDim > 0 && len(vecs[0]) != s.config.EmbeddingDim {
		return nil, errors.Newf(errors.ErrCodeEmbeddingFailed,
			"embedding dimension %d does not match collection dimension %d", len(vecs[0]), s.config.EmbeddingDim)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "failed to build search params")
	}

	start := time.Now()
	results, err := s.mc.Search(searchCtx, s.config.Collection, nil, "",
		[]string{fieldCompoundID, fieldName, fieldMatchType},
		[]entity.Vector{entity.FloatVector(vecs[0])},
		fieldEmbedding, entity.COSINE, s.config.TopK, sp,
		client.WithSearchQueryConsistencyLevel(entity.ClBounded))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "annotation search failed")
	}
	if len(results) == 0 {
		return nil, nil
	}

	hits := convertHits(results[0])
	s.logger.Debug("annotation lookup executed",
		logging.String("query", query),
		logging.Int("hits", len(hits)),
		logging.Duration("took", time.Since(start)))
	return hits, nil
}

// LookupAll resolves multiple queries concurrently. The i-th result slice
// corresponds to the i-th query. The first failing lookup aborts the batch.
func (s *Searcher) LookupAll(ctx context.Context, queries []string) ([][]Hit, error) {
	if len(queries) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "queries cannot be empty")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	out := make([][]Hit, len(queries))

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			hits, err := s.Lookup(ctx, q)
			if err != nil {
				return err
			}
			out[i] = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func convertHits(res client.SearchResult) []Hit {
	ids := res.Fields.GetColumn(fieldCompoundID)
	names := res.Fields.GetColumn(fieldName)
	matches := res.Fields.GetColumn(fieldMatchType)

	hits := make([]Hit, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		hits = append(hits, Hit{
			CompoundID: stringAt(ids, i),
			Name:       stringAt(names, i),
			MatchType:  stringAt(matches, i),
			Score:      normalizeScore(float64(res.Scores[i])),
		})
	}
	return hits
}

func stringAt(col entity.Column, i int) string {
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// normalizeScore maps a cosine similarity in [-1,1] onto [0,1].
func normalizeScore(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
