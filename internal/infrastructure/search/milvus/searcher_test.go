package milvus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

type mockSearchClient struct {
	searchFunc func(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	closed     bool
}

func (m *mockSearchClient) Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, collName, partitions, expr, outputFields, vectors, vectorField, metricType, topK, sp, opts...)
	}
	return []client.SearchResult{}, nil
}

func (m *mockSearchClient) Close() error {
	m.closed = true
	return nil
}

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   atomic.Int32
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if e.vectors != nil {
		return e.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func newTestSearcher(mock *mockSearchClient, emb Embedder) *Searcher {
	if emb == nil {
		emb = &stubEmbedder{}
	}
	return &Searcher{
		mc:       mock,
		embedder: emb,
		config: Config{
			Addr:       "localhost:19530",
			Collection: "compound_annotations",
			TopK:       10,
			Timeout:    time.Second,
		},
		logger: logging.NewNopLogger(),
	}
}

func annotationResult(ids, names, matches []string, scores []float32) client.SearchResult {
	return client.SearchResult{
		ResultCount: len(ids),
		IDs:         entity.NewColumnVarChar(fieldCompoundID, ids),
		Scores:      scores,
		Fields: client.ResultSet{
			entity.NewColumnVarChar(fieldCompoundID, ids),
			entity.NewColumnVarChar(fieldName, names),
			entity.NewColumnVarChar(fieldMatchType, matches),
		},
	}
}

func TestValidateConfig(t *testing.T) {
	valid := Config{Addr: "localhost:19530", Collection: "compound_annotations"}
	assert.NoError(t, ValidateConfig(valid))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing addr", func(c *Config) { c.Addr = "" }},
		{"missing collection", func(c *Config) { c.Collection = "" }},
		{"negative dim", func(c *Config) { c.EmbeddingDim = -1 }},
		{"negative topk", func(c *Config) { c.TopK = -1 }},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
		})
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		cos  float64
		want float64
	}{
		{-1, 0},
		{0, 0.5},
		{1, 1},
		{1.2, 1},
		{-1.2, 0},
		{0.5, 0.75},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeScore(tt.cos), 1e-12)
	}
}

func TestLookup(t *testing.T) {
	mock := &mockSearchClient{
		searchFunc: func(_ context.Context, collName string, _ []string, _ string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
			assert.Equal(t, "compound_annotations", collName)
			assert.Equal(t, fieldEmbedding, vectorField)
			assert.Equal(t, entity.COSINE, metricType)
			assert.Equal(t, 10, topK)
			assert.Len(t, vectors, 1)
			assert.ElementsMatch(t, []string{fieldCompoundID, fieldName, fieldMatchType}, outputFields)
			return []client.SearchResult{annotationResult(
				[]string{"CHEBI:15377", "CHEBI:16236"},
				[]string{"water", "ethanol"},
				[]string{MatchName, MatchSynonym},
				[]float32{0.9, 0.4},
			)}, nil
		},
	}

	s := newTestSearcher(mock, nil)
	hits, err := s.Lookup(context.Background(), "h2o")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "CHEBI:15377", hits[0].CompoundID)
	assert.Equal(t, "water", hits[0].Name)
	assert.Equal(t, MatchName, hits[0].MatchType)
	assert.InDelta(t, 0.95, hits[0].Score, 1e-6)

	assert.Equal(t, MatchSynonym, hits[1].MatchType)
	assert.InDelta(t, 0.7, hits[1].Score, 1e-6)
}

func TestLookup_EmptyQuery(t *testing.T) {
	s := newTestSearcher(&mockSearchClient{}, nil)
	_, err := s.Lookup(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestLookup_DimensionMismatch(t *testing.T) {
	s := newTestSearcher(&mockSearchClient{}, nil)
	s.config.EmbeddingDim = 384

	_, err := s.Lookup(context.Background(), "water")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingFailed))
}

func TestLookup_EmbedderError(t *testing.T) {
	emb := &stubEmbedder{err: errors.New(errors.ErrCodeEmbeddingFailed, "service down")}
	s := newTestSearcher(&mockSearchClient{}, emb)

	_, err := s.Lookup(context.Background(), "water")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingFailed))
}

func TestLookup_SearchError(t *testing.T) {
	mock := &mockSearchClient{
		searchFunc: func(_ context.Context, _ string, _ []string, _ string, _ []string, _ []entity.Vector, _ string, _ entity.MetricType, _ int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
			return nil, assert.AnError
		},
	}
	s := newTestSearcher(mock, nil)

	_, err := s.Lookup(context.Background(), "water")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchFailed))
}

func TestLookupAll(t *testing.T) {
	var calls atomic.Int32
	mock := &mockSearchClient{
		searchFunc: func(_ context.Context, _ string, _ []string, _ string, _ []string, _ []entity.Vector, _ string, _ entity.MetricType, _ int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
			calls.Add(1)
			return []client.SearchResult{annotationResult(
				[]string{"CHEBI:15377"},
				[]string{"water"},
				[]string{MatchName},
				[]float32{0.9},
			)}, nil
		},
	}
	s := newTestSearcher(mock, nil)

	out, err := s.LookupAll(context.Background(), []string{"water", "aqua", "h2o"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int32(3), calls.Load())
	for _, hits := range out {
		require.Len(t, hits, 1)
		assert.Equal(t, "CHEBI:15377", hits[0].CompoundID)
	}
}

func TestLookupAll_EmptyQueries(t *testing.T) {
	s := newTestSearcher(&mockSearchClient{}, nil)
	_, err := s.LookupAll(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNewSearcher_ConnectionFailure(t *testing.T) {
	orig := newMilvusClient
	defer func() { newMilvusClient = orig }()
	newMilvusClient = func(_ context.Context, _ client.Config) (searchClient, error) {
		return nil, assert.AnError
	}

	cfg := Config{Addr: "localhost:19530", Collection: "compound_annotations"}
	_, err := NewSearcher(context.Background(), cfg, &stubEmbedder{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchUnavailable))
}

func TestNewSearcher_Defaults(t *testing.T) {
	orig := newMilvusClient
	defer func() { newMilvusClient = orig }()
	mock := &mockSearchClient{}
	var gotCfg client.Config
	newMilvusClient = func(_ context.Context, cfg client.Config) (searchClient, error) {
		gotCfg = cfg
		return mock, nil
	}

	cfg := Config{Addr: "localhost:19530", Collection: "compound_annotations"}
	s, err := NewSearcher(context.Background(), cfg, &stubEmbedder{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "default", gotCfg.DBName)
	assert.Equal(t, 10, s.config.TopK)
	assert.NotZero(t, s.config.Timeout)

	require.NoError(t, s.Close())
	assert.True(t, mock.closed)
}

func TestNewSearcher_NilEmbedder(t *testing.T) {
	cfg := Config{Addr: "localhost:19530", Collection: "compound_annotations"}
	_, err := NewSearcher(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
