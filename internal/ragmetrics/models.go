package ragmetrics

import "encoding/json"

// EvaluationRequest is the single-evaluation submission payload. GroundTruth
// is always submitted, as an empty string when no reference answer exists.
type EvaluationRequest struct {
	Question       string `json:"question"`
	GroundTruth    string `json:"ground_truth"`
	Answer         string `json:"answer"`
	EvalGroupID    string `json:"eval_group_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Context        string `json:"context"`
	Type           string `json:"type"`
}

// CriterionScore is one named quality dimension. Scores arrive from the API
// as ints, floats or numeric strings and are normalized to int by truncation.
type CriterionScore struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Reason string `json:"reason,omitempty"`
}

// EvaluationResult holds the parsed criteria in the order the service
// returned them. Criteria may be empty when the service accepted the
// submission but returned nothing parseable.
type EvaluationResult struct {
	StatusCode int              `json:"status_code"`
	Criteria   []CriterionScore `json:"criteria"`
}

// The response schema varies between deployments: the criteria list shows up
// under either "results" or "criteria", and items name themselves with either
// "criteria" or "name".
type rawResponse struct {
	Results  []rawCriterion `json:"results"`
	Criteria []rawCriterion `json:"criteria"`
}

type rawCriterion struct {
	Criteria  string          `json:"criteria"`
	Name      string          `json:"name"`
	Score     json.RawMessage `json:"score"`
	Reason    string          `json:"reason"`
	Reasoning string          `json:"reasoning"`
}
