// Package engine sequences the chat pipeline: retrieve context, generate an
// answer, submit it for evaluation, and regenerate the answer once when any
// evaluation criterion crosses the regeneration threshold.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hlardiez/chat-test/internal/config"
	"github.com/hlardiez/chat-test/internal/ragmetrics"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string) string
}

type Generator interface {
	GenerateAnswer(ctx context.Context, question, context string) (string, error)
	RegenerateAnswer(ctx context.Context, question, previousAnswer, context string) (string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, context string) (*ragmetrics.EvaluationResult, error)
}

// TriggeredCriterion records one criterion whose score caused regeneration.
type TriggeredCriterion struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Result carries everything one question produced. Evaluation is nil when
// the evaluation service was unavailable; RegeneratedAnswer is empty when no
// regeneration happened. All fields live for this one request only.
type Result struct {
	Question          string
	Answer            string
	RegeneratedAnswer string
	Context           string
	Evaluation        *ragmetrics.EvaluationResult
	EvaluationTime    time.Duration
	Triggered         []TriggeredCriterion
}

// Regenerated reports whether the answer was replaced by a corrected one.
func (r *Result) Regenerated() bool {
	return r.RegeneratedAnswer != ""
}

// FinalAnswer returns the best available answer: the regenerated one when it
// exists, the initial one otherwise.
func (r *Result) FinalAnswer() string {
	if r.RegeneratedAnswer != "" {
		return r.RegeneratedAnswer
	}
	return r.Answer
}

type Engine struct {
	retriever Retriever
	generator Generator
	evaluator Evaluator
	threshold int
	positive  map[string]struct{}
	logger    *logrus.Logger
}

func New(retriever Retriever, generator Generator, evaluator Evaluator, cfg config.RegenerationConfig, logger *logrus.Logger) *Engine {
	positive := make(map[string]struct{}, len(cfg.PositiveCriteria))
	for _, name := range cfg.PositiveCriteria {
		positive[strings.ToLower(name)] = struct{}{}
	}

	return &Engine{
		retriever: retriever,
		generator: generator,
		evaluator: evaluator,
		threshold: cfg.Threshold,
		positive:  positive,
		logger:    logger,
	}
}

// ProcessQuestion runs the full pipeline for one question. Retrieval and
// evaluation failures degrade (empty context, nil evaluation); a generation
// failure is the only error returned. Regeneration runs at most once per
// question and its output is never re-evaluated.
func (e *Engine) ProcessQuestion(ctx context.Context, question string) (*Result, error) {
	e.logger.WithField("question", question).Info("Processing question")

	contextText := e.retriever.Retrieve(ctx, question)
	e.logger.WithField("context_chars", len(contextText)).Info("Retrieved context")

	answer, err := e.generator.GenerateAnswer(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result := &Result{
		Question: question,
		Answer:   answer,
		Context:  contextText,
	}

	start := time.Now()
	evaluation, err := e.evaluator.Evaluate(ctx, question, answer, contextText)
	result.EvaluationTime = time.Since(start)
	if err != nil {
		e.logger.WithError(err).Error("Evaluation unavailable - continuing without it")
		evaluation = nil
	}
	result.Evaluation = evaluation

	should, triggered := e.shouldRegenerate(evaluation)
	result.Triggered = triggered

	e.logger.WithFields(logrus.Fields{
		"threshold":         e.threshold,
		"should_regenerate": should,
		"triggered":         len(triggered),
	}).Info("Regeneration check")

	if should {
		regenerated, err := e.generator.RegenerateAnswer(ctx, question, answer, contextText)
		if err != nil {
			// Fall back to the initial answer; a failed correction is not
			// worse than no correction.
			e.logger.WithError(err).Warn("Regeneration failed - keeping original answer")
		} else {
			result.RegeneratedAnswer = regenerated
		}
	}

	return result, nil
}

// shouldRegenerate applies the "any criterion at or over the threshold"
// rule. A missing or empty evaluation never triggers: absence of evidence is
// not evidence of failure. Criteria configured as positive-polarity (higher
// is better) are exempt.
func (e *Engine) shouldRegenerate(evaluation *ragmetrics.EvaluationResult) (bool, []TriggeredCriterion) {
	if evaluation == nil || len(evaluation.Criteria) == 0 {
		return false, nil
	}

	var triggered []TriggeredCriterion
	for _, criterion := range evaluation.Criteria {
		if _, ok := e.positive[strings.ToLower(criterion.Name)]; ok {
			continue
		}
		if criterion.Score >= e.threshold {
			e.logger.WithFields(logrus.Fields{
				"criterion": criterion.Name,
				"score":     criterion.Score,
				"threshold": e.threshold,
			}).Info("Criterion score triggered regeneration")
			triggered = append(triggered, TriggeredCriterion{
				Name:  criterion.Name,
				Score: criterion.Score,
			})
		}
	}

	return len(triggered) > 0, triggered
}
