package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlardiez/chat-test/internal/pinecone"
)

type fakeEmbedder struct {
	embedding []float32
	err       error
	calls     int
	lastDims  int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string, dimensions int) ([]float32, error) {
	f.calls++
	f.lastDims = dimensions
	return f.embedding, f.err
}

type fakeIndex struct {
	stats      *pinecone.IndexStats
	statsErr   error
	response   *pinecone.QueryResponse
	queryErr   error
	lastQuery  pinecone.QueryRequest
	queryCalls int
}

func (f *fakeIndex) Query(ctx context.Context, req pinecone.QueryRequest) (*pinecone.QueryResponse, error) {
	f.queryCalls++
	f.lastQuery = req
	return f.response, f.queryErr
}

func (f *fakeIndex) DescribeIndexStats(ctx context.Context) (*pinecone.IndexStats, error) {
	return f.stats, f.statsErr
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func matchWithText(text string) pinecone.Match {
	return pinecone.Match{Metadata: map[string]any{"text": text}}
}

func TestRetrieve_JoinsChunksInMatchOrder(t *testing.T) {
	index := &fakeIndex{
		stats: &pinecone.IndexStats{Dimension: 3},
		response: &pinecone.QueryResponse{Matches: []pinecone.Match{
			matchWithText("first chunk"),
			matchWithText("second chunk"),
			matchWithText("third chunk"),
		}},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2, 0.3}}

	r := New(context.Background(), index, embedder, 3, "", quietLogger())
	got := r.Retrieve(context.Background(), "question")

	assert.Equal(t, "first chunk\n\nsecond chunk\n\nthird chunk", got)
	assert.True(t, index.lastQuery.IncludeMetadata)
	assert.Equal(t, 3, index.lastQuery.TopK)
}

func TestRetrieve_MetadataKeyFallbackOrder(t *testing.T) {
	index := &fakeIndex{
		stats: &pinecone.IndexStats{Dimension: 2},
		response: &pinecone.QueryResponse{Matches: []pinecone.Match{
			{Metadata: map[string]any{"page_content": "from page_content"}},
			{Metadata: map[string]any{"content": "from content", "value": "ignored"}},
			{Metadata: map[string]any{"irrelevant": "nothing here"}},
			{Metadata: map[string]any{"document": "from document"}},
		}},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2}}

	r := New(context.Background(), index, embedder, 4, "", quietLogger())
	got := r.Retrieve(context.Background(), "question")

	// The keyless match contributes nothing; the rest keep their order.
	assert.Equal(t, "from page_content\n\nfrom content\n\nfrom document", got)
}

func TestRetrieve_AllMatchesWithoutTextKeys(t *testing.T) {
	index := &fakeIndex{
		stats: &pinecone.IndexStats{Dimension: 1},
		response: &pinecone.QueryResponse{Matches: []pinecone.Match{
			{Metadata: map[string]any{"score_only": 1.0}},
			{Metadata: nil},
		}},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.5}}

	r := New(context.Background(), index, embedder, 2, "", quietLogger())
	assert.Equal(t, "", r.Retrieve(context.Background(), "question"))
}

func TestRetrieve_EmbeddingFailureReturnsEmpty(t *testing.T) {
	index := &fakeIndex{stats: &pinecone.IndexStats{Dimension: 3}}
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}

	r := New(context.Background(), index, embedder, 3, "", quietLogger())

	assert.Equal(t, "", r.Retrieve(context.Background(), "question"))
	assert.Zero(t, index.queryCalls, "no index query after embedding failure")
}

func TestRetrieve_QueryFailureReturnsEmpty(t *testing.T) {
	index := &fakeIndex{
		stats:    &pinecone.IndexStats{Dimension: 2},
		queryErr: errors.New("connection refused"),
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2}}

	r := New(context.Background(), index, embedder, 3, "", quietLogger())
	assert.Equal(t, "", r.Retrieve(context.Background(), "question"))
}

func TestRetrieve_DimensionMismatchReturnsEmpty(t *testing.T) {
	index := &fakeIndex{
		stats:    &pinecone.IndexStats{Dimension: 4},
		response: &pinecone.QueryResponse{Matches: []pinecone.Match{matchWithText("x")}},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2}}

	r := New(context.Background(), index, embedder, 3, "", quietLogger())

	assert.Equal(t, "", r.Retrieve(context.Background(), "question"))
	assert.Zero(t, index.queryCalls, "mismatched vectors never reach the index")
}

func TestNew_StatsFailureDegrades(t *testing.T) {
	index := &fakeIndex{
		statsErr: errors.New("stats unavailable"),
		response: &pinecone.QueryResponse{Matches: []pinecone.Match{matchWithText("still works")}},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1}}

	r := New(context.Background(), index, embedder, 3, "configured-ns", quietLogger())
	require.Equal(t, 0, r.Dimension())

	got := r.Retrieve(context.Background(), "question")
	assert.Equal(t, "still works", got)
	assert.Equal(t, 0, embedder.lastDims, "unknown dimension leaves the embedding unconstrained")
	assert.Equal(t, "configured-ns", index.lastQuery.Namespace)
}

func TestNew_NamespaceAutoDetection(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		namespaces map[string]pinecone.NamespaceStats
		want       string
	}{
		{
			name:       "configured namespace wins",
			configured: "docs",
			namespaces: map[string]pinecone.NamespaceStats{"other": {VectorCount: 10}},
			want:       "docs",
		},
		{
			name:       "first non-empty namespace selected",
			namespaces: map[string]pinecone.NamespaceStats{"": {VectorCount: 1}, "beta": {VectorCount: 5}, "alpha": {VectorCount: 2}},
			want:       "alpha",
		},
		{
			name:       "no namespaces means unscoped default",
			namespaces: nil,
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &fakeIndex{
				stats:    &pinecone.IndexStats{Dimension: 1, Namespaces: tt.namespaces},
				response: &pinecone.QueryResponse{},
			}
			embedder := &fakeEmbedder{embedding: []float32{0.1}}

			r := New(context.Background(), index, embedder, 3, tt.configured, quietLogger())
			r.Retrieve(context.Background(), "q")
			assert.Equal(t, tt.want, index.lastQuery.Namespace)
		})
	}
}

func TestRetrieve_NoMatchesReturnsEmpty(t *testing.T) {
	index := &fakeIndex{
		stats:    &pinecone.IndexStats{Dimension: 1},
		response: &pinecone.QueryResponse{},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.9}}

	r := New(context.Background(), index, embedder, 3, "", quietLogger())
	assert.Equal(t, "", r.Retrieve(context.Background(), "question"))
}
