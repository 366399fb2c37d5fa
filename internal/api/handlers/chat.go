// backend/internal/api/handlers/chat.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hlardiez/chat-test/internal/database"
	"github.com/hlardiez/chat-test/internal/engine"
	"github.com/hlardiez/chat-test/internal/models"
	"github.com/hlardiez/chat-test/internal/repository"
	"github.com/hlardiez/chat-test/pkg/utils"
	"github.com/sirupsen/logrus"
)

// QuestionProcessor runs the retrieval and generation pipeline for one question.
type QuestionProcessor interface {
	ProcessQuestion(ctx context.Context, question string) (*engine.Result, error)
}

type ChatHandler struct {
	engine      QuestionProcessor
	repoManager *repository.RepositoryManager
	cache       *database.Cache
	logger      *logrus.Logger
}

func NewChatHandler(
	eng QuestionProcessor,
	repoManager *repository.RepositoryManager,
	cache *database.Cache,
	logger *logrus.Logger,
) *ChatHandler {
	return &ChatHandler{
		engine:      eng,
		repoManager: repoManager,
		cache:       cache,
		logger:      logger,
	}
}

// HandleChat processes chat requests
func (h *ChatHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Question cannot be empty", nil)
		return
	}

	if len(question) > 2000 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Question too long (max 2000 characters)", nil)
		return
	}

	userSession := h.getUserSession(c)

	h.logger.WithFields(logrus.Fields{
		"question":     question,
		"user_session": userSession,
		"ip_address":   c.ClientIP(),
	}).Info("Processing chat request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	result, err := h.engine.ProcessQuestion(ctx, question)
	if err != nil {
		h.logger.WithError(err).Error("Chat pipeline failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to answer question", err)
		return
	}

	responseTime := time.Since(startTime)

	// Track analytics
	go h.trackChat(userSession, result, responseTime)
	go h.updatePopularQuestions(question, responseTime)

	response := models.ChatResponse{
		Question:       result.Question,
		Answer:         result.FinalAnswer(),
		Regenerated:    result.Regenerated(),
		Context:        result.Context,
		Evaluation:     criterionResults(result),
		ResponseTimeMs: int(responseTime.Milliseconds()),
	}

	h.logger.WithFields(logrus.Fields{
		"regenerated":   response.Regenerated,
		"response_time": responseTime.Milliseconds(),
	}).Info("Chat completed successfully")

	utils.SuccessResponse(c, http.StatusOK, "Chat completed", response)
}

// HandlePopularQuestions returns the most frequently asked questions
func (h *ChatHandler) HandlePopularQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit > 10 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if cached, err := h.cache.GetCachedPopularQuestions(ctx); err == nil {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		utils.SuccessResponse(c, http.StatusOK, "Popular questions retrieved", cached)
		return
	}

	questions, err := h.repoManager.PopularQuestion.GetTop(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get popular questions")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get popular questions", err)
		return
	}

	if err := h.cache.CachePopularQuestions(ctx, questions, 5*time.Minute); err != nil {
		h.logger.WithError(err).Warn("Failed to cache popular questions")
	}

	utils.SuccessResponse(c, http.StatusOK, "Popular questions retrieved", questions)
}

// Helper methods

func criterionResults(result *engine.Result) []models.CriterionResult {
	if result.Evaluation == nil {
		return nil
	}

	criteria := make([]models.CriterionResult, 0, len(result.Evaluation.Criteria))
	for _, criterion := range result.Evaluation.Criteria {
		criteria = append(criteria, models.CriterionResult{
			Name:   criterion.Name,
			Score:  criterion.Score,
			Reason: criterion.Reason,
		})
	}
	return criteria
}

func (h *ChatHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" {
		return session
	}

	userAgent := c.GetHeader("User-Agent")
	clientIP := c.ClientIP()

	return utils.GenerateSessionID(clientIP + userAgent)
}

func (h *ChatHandler) trackChat(userSession string, result *engine.Result, responseTime time.Duration) {
	scores := ""
	if result.Evaluation != nil {
		if data, err := json.Marshal(result.Evaluation.Criteria); err == nil {
			scores = string(data)
		}
	}

	chatLog := &models.ChatLog{
		Question:       result.Question,
		Answer:         result.FinalAnswer(),
		ContextChars:   len(result.Context),
		Regenerated:    result.Regenerated(),
		CriteriaScores: scores,
		ResponseTimeMs: int(responseTime.Milliseconds()),
		UserSession:    userSession,
		CreatedAt:      time.Now(),
	}

	if err := h.repoManager.ChatLog.Create(chatLog); err != nil {
		h.logger.WithError(err).Error("Failed to track chat")
	}
}

func (h *ChatHandler) updatePopularQuestions(question string, responseTime time.Duration) {
	if err := h.repoManager.PopularQuestion.IncrementCount(question); err != nil {
		h.logger.WithError(err).Error("Failed to update popular questions")
		return
	}

	if err := h.repoManager.PopularQuestion.UpdateStats(question, int(responseTime.Milliseconds())); err != nil {
		h.logger.WithError(err).Error("Failed to update question stats")
	}
}
