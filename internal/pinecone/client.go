package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client talks to a single Pinecone index over its data-plane REST API.
// The host is the index-specific URL reported by the Pinecone console.
type Client struct {
	host       string
	apiKey     string
	indexName  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(host, apiKey, indexName string, logger *logrus.Logger) *Client {
	host = strings.TrimRight(host, "/")
	if host != "" && !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	return &Client{
		host:      host,
		apiKey:    apiKey,
		indexName: indexName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// IndexName reports which index this client is bound to, for logging.
func (c *Client) IndexName() string {
	return c.indexName
}

// Query runs a nearest-neighbour search against the index.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var response QueryResponse
	err := c.makeRequest(ctx, "POST", "/query", req, &response)
	return &response, err
}

// DescribeIndexStats returns the index dimension and per-namespace counts.
func (c *Client) DescribeIndexStats(ctx context.Context) (*IndexStats, error) {
	var response IndexStats
	err := c.makeRequest(ctx, "POST", "/describe_index_stats", struct{}{}, &response)
	return &response, err
}

// Upsert writes vectors into the index.
func (c *Client) Upsert(ctx context.Context, req UpsertRequest) (*UpsertResponse, error) {
	var response UpsertResponse
	err := c.makeRequest(ctx, "POST", "/vectors/upsert", req, &response)
	return &response, err
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, result interface{}) error {
	url := c.host + endpoint

	var body io.Reader
	var contentLength int

	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
		contentLength = len(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
		"index":  c.indexName,
		"size":   contentLength,
	}).Debug("Making Pinecone API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           url,
		"response_size": len(responseBody),
	}).Debug("Pinecone API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
