package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	expectedResponse := QueryResponse{
		Matches: []Match{{
			ID:    "vec-1",
			Score: 0.92,
			Metadata: map[string]any{
				"text": "Paris is the capital of France.",
			},
		}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.TopK)
		assert.True(t, req.IncludeMetadata)
		assert.Equal(t, "docs", req.Namespace)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expectedResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-index", logrus.New())

	response, err := client.Query(context.Background(), QueryRequest{
		Vector:          []float32{0.1, 0.2},
		TopK:            3,
		Namespace:       "docs",
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	require.Len(t, response.Matches, 1)
	assert.Equal(t, "vec-1", response.Matches[0].ID)
	assert.Equal(t, "Paris is the capital of France.", response.Matches[0].Metadata["text"])
}

func TestClient_DescribeIndexStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/describe_index_stats", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(IndexStats{
			Dimension:        1536,
			TotalVectorCount: 42,
			Namespaces: map[string]NamespaceStats{
				"docs": {VectorCount: 42},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-index", logrus.New())

	stats, err := client.DescribeIndexStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1536, stats.Dimension)
	assert.Equal(t, 42, stats.Namespaces["docs"].VectorCount)
}

func TestClient_Upsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)

		var req UpsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Vectors, 2)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UpsertResponse{UpsertedCount: len(req.Vectors)})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-index", logrus.New())

	resp, err := client.Upsert(context.Background(), UpsertRequest{
		Vectors: []Vector{
			{ID: "a", Values: []float32{0.1}},
			{ID: "b", Values: []float32{0.2}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.UpsertedCount)
}

func TestClient_ErrorHandling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Vector dimension 8 does not match the dimension of the index 1536"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-index", logrus.New())

	_, err := client.Query(context.Background(), QueryRequest{Vector: []float32{0.1}, TopK: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewClient_NormalizesHost(t *testing.T) {
	client := NewClient("my-index-abc123.svc.us-east-1.pinecone.io/", "k", "my-index", logrus.New())
	assert.Equal(t, "https://my-index-abc123.svc.us-east-1.pinecone.io", client.host)
}
