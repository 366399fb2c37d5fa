package models

import (
	"time"
)

// ChatLog records one served question for analytics. It is written
// fire-and-forget after the response is sent; the chat pipeline itself keeps
// no state between requests.
type ChatLog struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Question       string    `json:"question" gorm:"not null"`
	Answer         string    `json:"answer"`
	ContextChars   int       `json:"context_chars"`
	Regenerated    bool      `json:"regenerated" gorm:"default:false"`
	CriteriaScores string    `json:"criteria_scores"` // JSON-encoded evaluation criteria
	ResponseTimeMs int       `json:"response_time_ms"`
	UserSession    string    `json:"user_session"`
	CreatedAt      time.Time `json:"created_at" gorm:"default:now()"`
}

// PopularQuestion aggregates ask counts per distinct question text.
type PopularQuestion struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	QuestionText      string    `json:"question_text" gorm:"unique;not null"`
	AskCount          int       `json:"ask_count" gorm:"default:1"`
	AvgResponseTimeMs int       `json:"avg_response_time_ms" gorm:"default:0"`
	LastAsked         time.Time `json:"last_asked" gorm:"default:NOW()"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// Database interfaces for repository pattern
type ChatLogRepository interface {
	Create(log *ChatLog) error
	GetBySession(session string) ([]ChatLog, error)
	GetRecent(limit int) ([]ChatLog, error)
	CountRegenerated(from time.Time) (int64, error)
}

type PopularQuestionRepository interface {
	IncrementCount(questionText string) error
	GetTop(limit int) ([]PopularQuestion, error)
	UpdateStats(questionText string, responseTime int) error
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(serviceName string) (*SystemHealth, error)
	GetAllServicesHealth() ([]SystemHealth, error)
}

// TableName methods for custom table names
func (ChatLog) TableName() string         { return "chat_logs" }
func (PopularQuestion) TableName() string { return "popular_questions" }
func (SystemHealth) TableName() string    { return "system_health" }
