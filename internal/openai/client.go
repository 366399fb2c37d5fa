package openai

import (
	"context"
	"fmt"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/hlardiez/chat-test/internal/config"
)

// Client wraps the OpenAI API for answer generation, answer regeneration and
// query embeddings. Generation failures are fatal to the request that needed
// them; the caller owns that policy.
type Client struct {
	api              *gopenai.Client
	model            string
	embeddingModel   string
	temperature      float32
	regenTemperature float32
	maxTokens        int
	logger           *logrus.Logger
}

func NewClient(cfg config.OpenAIConfig, logger *logrus.Logger) *Client {
	apiConfig := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:              gopenai.NewClientWithConfig(apiConfig),
		model:            cfg.Model,
		embeddingModel:   cfg.EmbeddingModel,
		temperature:      cfg.Temperature,
		regenTemperature: cfg.RegenTemperature,
		maxTokens:        cfg.MaxTokens,
		logger:           logger,
	}
}

// GenerateAnswer produces the initial answer for a question given retrieved
// context. Empty context is valid input: the prompt degrades to a bare
// question.
func (c *Client) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	system, user := chatPrompt(question, contextText)
	answer, err := c.complete(ctx, system, user, c.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"answer_length": len(answer),
	}).Info("Generated answer")
	return answer, nil
}

// RegenerateAnswer produces a corrected answer after the evaluation service
// flagged the previous one. It runs at a lower temperature than initial
// generation to favor accuracy over variation.
func (c *Client) RegenerateAnswer(ctx context.Context, question, previousAnswer, contextText string) (string, error) {
	system, user := regeneratePrompt(question, previousAnswer, contextText)
	answer, err := c.complete(ctx, system, user, c.regenTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to regenerate answer: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"answer_length": len(answer),
	}).Info("Regenerated answer")
	return answer, nil
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: system},
			{Role: gopenai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// EmbedQuery returns the embedding vector for a piece of text. When
// dimensions > 0 the model is asked to produce a vector of exactly that
// size so it matches a fixed-dimension index; only the text-embedding-3
// family accepts a dimensions parameter, and requesting it from any other
// model is reported as an error instead of silently querying with
// mismatched vectors.
func (c *Client) EmbedQuery(ctx context.Context, text string, dimensions int) ([]float32, error) {
	req := gopenai.EmbeddingRequest{
		Input: []string{text},
		Model: gopenai.EmbeddingModel(c.embeddingModel),
	}

	if dimensions > 0 {
		if !supportsDimensions(c.embeddingModel) {
			return nil, fmt.Errorf("embedding model %q cannot produce %d-dimensional vectors; use a text-embedding-3 model matching the index dimension", c.embeddingModel, dimensions)
		}
		req.Dimensions = dimensions
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	embedding := resp.Data[0].Embedding
	if dimensions > 0 && len(embedding) != dimensions {
		return nil, fmt.Errorf("embedding dimension %d does not match requested dimension %d", len(embedding), dimensions)
	}

	c.logger.WithFields(logrus.Fields{
		"model":     c.embeddingModel,
		"dimension": len(embedding),
	}).Debug("Generated query embedding")

	return embedding, nil
}

// EmbedDocuments embeds a batch of texts in one request. It obeys the same
// dimensions rules as EmbedQuery and returns vectors in input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string, dimensions int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := gopenai.EmbeddingRequest{
		Input: texts,
		Model: gopenai.EmbeddingModel(c.embeddingModel),
	}

	if dimensions > 0 {
		if !supportsDimensions(c.embeddingModel) {
			return nil, fmt.Errorf("embedding model %q cannot produce %d-dimensional vectors; use a text-embedding-3 model matching the index dimension", c.embeddingModel, dimensions)
		}
		req.Dimensions = dimensions
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response contained %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if dimensions > 0 && len(item.Embedding) != dimensions {
			return nil, fmt.Errorf("embedding dimension %d does not match requested dimension %d", len(item.Embedding), dimensions)
		}
		embeddings[item.Index] = item.Embedding
	}

	return embeddings, nil
}

func supportsDimensions(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3")
}
