package models

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// CriterionResult is one evaluation dimension as shown to API callers.
type CriterionResult struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Reason string `json:"reason,omitempty"`
}

type ChatResponse struct {
	Question       string            `json:"question"`
	Answer         string            `json:"answer"`
	Regenerated    bool              `json:"regenerated"`
	Context        string            `json:"context"`
	Evaluation     []CriterionResult `json:"evaluation,omitempty"`
	ResponseTimeMs int               `json:"response_time_ms"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
