package repository

import (
	"time"

	"github.com/hlardiez/chat-test/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatLogRepositoryImpl implements ChatLogRepository
type ChatLogRepositoryImpl struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) models.ChatLogRepository {
	return &ChatLogRepositoryImpl{db: db}
}

func (r *ChatLogRepositoryImpl) Create(log *models.ChatLog) error {
	return r.db.Create(log).Error
}

func (r *ChatLogRepositoryImpl) GetBySession(session string) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	err := r.db.Where("user_session = ?", session).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *ChatLogRepositoryImpl) GetRecent(limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *ChatLogRepositoryImpl) CountRegenerated(from time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatLog{}).
		Where("regenerated = ? AND created_at >= ?", true, from).
		Count(&count).Error
	return count, err
}

// PopularQuestionRepositoryImpl implements PopularQuestionRepository
type PopularQuestionRepositoryImpl struct {
	db *gorm.DB
}

func NewPopularQuestionRepository(db *gorm.DB) models.PopularQuestionRepository {
	return &PopularQuestionRepositoryImpl{db: db}
}

func (r *PopularQuestionRepositoryImpl) IncrementCount(questionText string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "question_text"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"ask_count":  gorm.Expr("popular_questions.ask_count + 1"),
			"last_asked": time.Now(),
		}),
	}).Create(&models.PopularQuestion{
		QuestionText: questionText,
		AskCount:     1,
		LastAsked:    time.Now(),
	}).Error
}

func (r *PopularQuestionRepositoryImpl) GetTop(limit int) ([]models.PopularQuestion, error) {
	var questions []models.PopularQuestion
	err := r.db.Order("ask_count DESC").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

func (r *PopularQuestionRepositoryImpl) UpdateStats(questionText string, responseTime int) error {
	return r.db.Model(&models.PopularQuestion{}).
		Where("question_text = ?", questionText).
		Update("avg_response_time_ms", gorm.Expr(
			"(avg_response_time_ms * (ask_count - 1) + ?) / ask_count", responseTime)).Error
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	health := models.SystemHealth{
		ServiceName:    serviceName,
		Status:         status,
		ResponseTimeMs: responseTime,
		ErrorMessage:   errorMsg,
		CheckedAt:      time.Now(),
	}
	return r.db.Create(&health).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.Where("service_name = ?", serviceName).
		Order("checked_at DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager aggregates the repositories handed to handlers.
type RepositoryManager struct {
	ChatLog         models.ChatLogRepository
	PopularQuestion models.PopularQuestionRepository
	SystemHealth    models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		ChatLog:         NewChatLogRepository(db),
		PopularQuestion: NewPopularQuestionRepository(db),
		SystemHealth:    NewSystemHealthRepository(db),
	}
}
