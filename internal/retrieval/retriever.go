// Package retrieval turns a question into a context string by embedding the
// question, querying a vector index and concatenating the text found in the
// match metadata. Retrieval never fails its caller: every failure mode
// degrades to an empty context string so the pipeline can continue without it.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hlardiez/chat-test/internal/pinecone"
)

// Candidate metadata keys checked in order for a match's text content.
// Matches carrying none of them contribute nothing to the context.
var textMetadataKeys = []string{"text", "content", "chunk", "page_content", "document", "value"}

type Embedder interface {
	EmbedQuery(ctx context.Context, text string, dimensions int) ([]float32, error)
}

type Index interface {
	Query(ctx context.Context, req pinecone.QueryRequest) (*pinecone.QueryResponse, error)
	DescribeIndexStats(ctx context.Context) (*pinecone.IndexStats, error)
}

type Retriever struct {
	index     Index
	embedder  Embedder
	topK      int
	namespace string
	dimension int
	logger    *logrus.Logger
}

// New probes the index for its dimension and namespaces. A failed probe is
// not fatal: the retriever falls back to the configured namespace and an
// unconstrained embedding dimension.
func New(ctx context.Context, index Index, embedder Embedder, topK int, namespace string, logger *logrus.Logger) *Retriever {
	r := &Retriever{
		index:     index,
		embedder:  embedder,
		topK:      topK,
		namespace: namespace,
		logger:    logger,
	}

	stats, err := index.DescribeIndexStats(ctx)
	if err != nil {
		logger.WithError(err).Warn("Could not get index stats; proceeding without dimension check")
		return r
	}

	r.dimension = stats.Dimension
	if r.namespace == "" {
		r.namespace = detectNamespace(stats)
		if r.namespace != "" {
			logger.WithFields(logrus.Fields{
				"namespace":    r.namespace,
				"vector_count": stats.Namespaces[r.namespace].VectorCount,
			}).Info("Auto-detected index namespace")
		}
	}

	logger.WithFields(logrus.Fields{
		"dimension": r.dimension,
		"namespace": r.namespace,
		"top_k":     r.topK,
	}).Info("Retriever initialized")

	return r
}

// detectNamespace picks the first non-empty namespace name, in sorted order
// for determinism. An index without namespaces uses the unscoped default.
func detectNamespace(stats *pinecone.IndexStats) string {
	names := make([]string, 0, len(stats.Namespaces))
	for name := range stats.Namespaces {
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// Dimension reports the index dimension discovered at startup, 0 if unknown.
func (r *Retriever) Dimension() int {
	return r.dimension
}

// Retrieve returns the context string for a query. It never returns an
// error: embedding failures, dimension mismatches and index failures all log
// and yield "", which downstream components treat as valid (empty) context.
func (r *Retriever) Retrieve(ctx context.Context, query string) string {
	embedding, err := r.embedder.EmbedQuery(ctx, query, r.dimension)
	if err != nil {
		r.logger.WithError(err).Error("Error generating query embedding")
		return ""
	}

	if r.dimension > 0 && len(embedding) != r.dimension {
		r.logger.WithFields(logrus.Fields{
			"embedding_dimension": len(embedding),
			"index_dimension":     r.dimension,
		}).Error("Embedding dimension does not match index dimension")
		return ""
	}

	response, err := r.index.Query(ctx, pinecone.QueryRequest{
		Vector:          embedding,
		TopK:            r.topK,
		Namespace:       r.namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		r.logger.WithError(err).Error("Error querying vector index")
		return ""
	}

	if len(response.Matches) == 0 {
		r.logger.WithFields(logrus.Fields{
			"namespace": r.namespace,
			"top_k":     r.topK,
		}).Warn("Vector query returned no matches")
		return ""
	}

	// Join the chunk texts in the order the index returned them (descending
	// similarity); matches without text are skipped, not errors.
	var parts []string
	for i, match := range response.Matches {
		text, ok := extractText(match.Metadata)
		if !ok {
			r.logger.WithFields(logrus.Fields{
				"match": i,
				"id":    match.ID,
			}).Warn("Match metadata carries no text key")
			continue
		}
		parts = append(parts, text)
	}

	contextText := strings.Join(parts, "\n\n")
	r.logger.WithFields(logrus.Fields{
		"matches":       len(response.Matches),
		"context_chars": len(contextText),
	}).Debug("Context assembled from vector matches")

	return contextText
}

// extractText takes the first candidate key present with a non-empty string
// value. The bool result makes "no text" explicit instead of probing
// attributes downstream.
func extractText(metadata map[string]any) (string, bool) {
	for _, key := range textMetadataKeys {
		value, ok := metadata[key]
		if !ok {
			continue
		}
		if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}
