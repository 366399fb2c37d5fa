package ragmetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hlardiez/chat-test/internal/config"
	"github.com/sirupsen/logrus"
)

const evaluationEndpoint = "/v2/single-evaluation/"

// Client submits answers to the RagMetrics evaluation service and parses the
// scored criteria back. Callers treat a failed evaluation as absent, never as
// a pipeline error.
type Client struct {
	baseURL        string
	apiKey         string
	evalGroupID    string
	conversationID string
	evalType       string
	httpClient     *http.Client
	logger         *logrus.Logger
}

func NewClient(cfg config.RagMetricsConfig, logger *logrus.Logger) *Client {
	// Deployments sometimes configure the full endpoint instead of the base
	// URL; strip the path so we don't double it.
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if i := strings.Index(baseURL, "/v2/single-evaluation"); i >= 0 {
		baseURL = strings.TrimRight(baseURL[:i], "/")
	}

	return &Client{
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		evalGroupID:    cfg.EvalGroupID,
		conversationID: cfg.ConversationID,
		evalType:       cfg.EvalType,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Evaluate submits {question, answer, context} for scoring and returns the
// criteria the service reported. A nil result with a non-nil error means the
// evaluation is unavailable; the caller decides whether that matters.
func (c *Client) Evaluate(ctx context.Context, question, answer, contextText string) (*EvaluationResult, error) {
	payload := EvaluationRequest{
		Question:       question,
		GroundTruth:    "",
		Answer:         answer,
		EvalGroupID:    c.evalGroupID,
		ConversationID: c.conversationID,
		Context:        contextText,
		Type:           c.evalType,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.baseURL + evaluationEndpoint
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"url":           url,
		"eval_group_id": c.evalGroupID,
		"payload_size":  len(jsonData),
	}).Debug("Submitting evaluation to RagMetrics")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Any 2xx counts as accepted; the service normally answers 202.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("RagMetrics returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	result := &EvaluationResult{StatusCode: resp.StatusCode}

	var raw rawResponse
	if err := json.Unmarshal(responseBody, &raw); err != nil {
		// Accepted but unparseable: keep the submission success, lose the scores.
		c.logger.WithError(err).Warn("Could not parse evaluation response")
		return result, nil
	}

	criteria := raw.Results
	if len(criteria) == 0 {
		criteria = raw.Criteria
	}

	for _, item := range criteria {
		score, ok := normalizeScore(item.Score)
		if !ok {
			c.logger.WithField("criterion", criterionName(item)).Debug("Skipping criterion with non-numeric score")
			continue
		}
		result.Criteria = append(result.Criteria, CriterionScore{
			Name:   criterionName(item),
			Score:  score,
			Reason: criterionReason(item),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"criteria":    len(result.Criteria),
	}).Info("Evaluation submitted to RagMetrics")

	return result, nil
}

func criterionName(item rawCriterion) string {
	if item.Criteria != "" {
		return item.Criteria
	}
	return item.Name
}

func criterionReason(item rawCriterion) string {
	if item.Reason != "" {
		return item.Reason
	}
	return item.Reasoning
}

// normalizeScore truncates int, float and numeric-string scores to int.
func normalizeScore(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int(f), true
		}
	}

	return 0, false
}
