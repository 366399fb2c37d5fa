package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlardiez/chat-test/internal/config"
	"github.com/hlardiez/chat-test/internal/ragmetrics"
)

type fakeRetriever struct {
	context string
	calls   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) string {
	f.calls++
	return f.context
}

type fakeGenerator struct {
	answer        string
	generateErr   error
	regenerated   string
	regenerateErr error
	generateCalls int
	regenCalls    int
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question, context string) (string, error) {
	f.generateCalls++
	return f.answer, f.generateErr
}

func (f *fakeGenerator) RegenerateAnswer(ctx context.Context, question, previousAnswer, context string) (string, error) {
	f.regenCalls++
	return f.regenerated, f.regenerateErr
}

type fakeEvaluator struct {
	result *ragmetrics.EvaluationResult
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, question, answer, context string) (*ragmetrics.EvaluationResult, error) {
	f.calls++
	return f.result, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func scores(values map[string]int) *ragmetrics.EvaluationResult {
	result := &ragmetrics.EvaluationResult{StatusCode: 202}
	for name, score := range values {
		result.Criteria = append(result.Criteria, ragmetrics.CriterionScore{Name: name, Score: score})
	}
	return result
}

func newEngine(r *fakeRetriever, g *fakeGenerator, ev *fakeEvaluator, threshold int) *Engine {
	return New(r, g, ev, config.RegenerationConfig{Threshold: threshold}, quietLogger())
}

func TestProcessQuestion_NoRegenerationBelowThreshold(t *testing.T) {
	retriever := &fakeRetriever{context: "Paris is the capital of France."}
	generator := &fakeGenerator{answer: "The capital is Paris."}
	evaluator := &fakeEvaluator{result: &ragmetrics.EvaluationResult{
		StatusCode: 202,
		Criteria:   []ragmetrics.CriterionScore{{Name: "Accuracy", Score: 1}},
	}}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "What is the capital?")
	require.NoError(t, err)

	assert.Equal(t, "The capital is Paris.", result.FinalAnswer())
	assert.False(t, result.Regenerated())
	assert.Equal(t, "Paris is the capital of France.", result.Context)
	require.NotNil(t, result.Evaluation)
	assert.Equal(t, 0, generator.regenCalls)
	assert.Equal(t, 1, evaluator.calls)
}

func TestProcessQuestion_RegeneratesOnceAboveThreshold(t *testing.T) {
	retriever := &fakeRetriever{context: "Paris is the capital of France."}
	generator := &fakeGenerator{answer: "The capital is Lyon.", regenerated: "The capital is Paris."}
	evaluator := &fakeEvaluator{result: &ragmetrics.EvaluationResult{
		StatusCode: 202,
		Criteria:   []ragmetrics.CriterionScore{{Name: "Hallucination", Score: 4}},
	}}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "What is the capital?")
	require.NoError(t, err)

	assert.True(t, result.Regenerated())
	assert.Equal(t, "The capital is Paris.", result.FinalAnswer())
	assert.Equal(t, "The capital is Lyon.", result.Answer, "initial answer preserved")
	assert.Equal(t, 1, generator.regenCalls)
	// The regenerated answer is trusted without re-scoring.
	assert.Equal(t, 1, evaluator.calls)
	require.Len(t, result.Triggered, 1)
	assert.Equal(t, "Hallucination", result.Triggered[0].Name)
	assert.Equal(t, 4, result.Triggered[0].Score)
}

func TestProcessQuestion_GenerationFailureIsFatal(t *testing.T) {
	retriever := &fakeRetriever{context: "some context"}
	generator := &fakeGenerator{generateErr: errors.New("model unavailable")}
	evaluator := &fakeEvaluator{}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "question")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, evaluator.calls, "no evaluation without an answer")
	assert.Equal(t, 0, generator.regenCalls)
}

func TestProcessQuestion_EvaluationFailureDegrades(t *testing.T) {
	retriever := &fakeRetriever{context: "ctx"}
	generator := &fakeGenerator{answer: "answer"}
	evaluator := &fakeEvaluator{err: errors.New("evaluation timed out")}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "question")
	require.NoError(t, err)

	assert.Nil(t, result.Evaluation)
	assert.False(t, result.Regenerated())
	assert.Equal(t, "answer", result.FinalAnswer())
}

func TestProcessQuestion_EmptyContextIsValid(t *testing.T) {
	retriever := &fakeRetriever{context: ""}
	generator := &fakeGenerator{answer: "best effort answer"}
	evaluator := &fakeEvaluator{result: scores(map[string]int{"Accuracy": 1})}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, "", result.Context)
	assert.Equal(t, "best effort answer", result.FinalAnswer())
	assert.Equal(t, 1, generator.generateCalls)
}

func TestProcessQuestion_RegenerationFailureKeepsOriginal(t *testing.T) {
	retriever := &fakeRetriever{context: "ctx"}
	generator := &fakeGenerator{answer: "original", regenerateErr: errors.New("model unavailable")}
	evaluator := &fakeEvaluator{result: scores(map[string]int{"Hallucination": 5})}

	engine := newEngine(retriever, generator, evaluator, 3)
	result, err := engine.ProcessQuestion(context.Background(), "question")

	require.NoError(t, err, "a failed regeneration is not fatal")
	assert.False(t, result.Regenerated())
	assert.Equal(t, "original", result.FinalAnswer())
	assert.Equal(t, 1, generator.regenCalls)
}

func TestShouldRegenerate_ThresholdRule(t *testing.T) {
	tests := []struct {
		name      string
		scores    []int
		threshold int
		want      bool
	}{
		{"one score over threshold", []int{1, 2, 4}, 3, true},
		{"all below threshold", []int{1, 2, 2}, 3, false},
		{"boundary score triggers", []int{3}, 3, true},
		{"single low score", []int{1}, 3, false},
		{"no scores", nil, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &ragmetrics.EvaluationResult{}
			for i, s := range tt.scores {
				result.Criteria = append(result.Criteria, ragmetrics.CriterionScore{
					Name:  []string{"Hallucination", "Accuracy", "Relevance"}[i%3],
					Score: s,
				})
			}

			engine := newEngine(&fakeRetriever{}, &fakeGenerator{}, &fakeEvaluator{}, tt.threshold)
			got, triggered := engine.shouldRegenerate(result)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, len(triggered) > 0)
		})
	}
}

func TestShouldRegenerate_NilEvaluation(t *testing.T) {
	engine := newEngine(&fakeRetriever{}, &fakeGenerator{}, &fakeEvaluator{}, 3)

	got, triggered := engine.shouldRegenerate(nil)
	assert.False(t, got)
	assert.Empty(t, triggered)
}

func TestShouldRegenerate_PositiveCriteriaExempt(t *testing.T) {
	engine := New(&fakeRetriever{}, &fakeGenerator{}, &fakeEvaluator{}, config.RegenerationConfig{
		Threshold:        3,
		PositiveCriteria: []string{"Accuracy"},
	}, quietLogger())

	// A high "higher is better" score must not read as a defect.
	got, triggered := engine.shouldRegenerate(scores(map[string]int{"Accuracy": 5}))
	assert.False(t, got)
	assert.Empty(t, triggered)

	got, triggered = engine.shouldRegenerate(&ragmetrics.EvaluationResult{Criteria: []ragmetrics.CriterionScore{
		{Name: "accuracy", Score: 5},
		{Name: "Hallucination", Score: 4},
	}})
	assert.True(t, got)
	require.Len(t, triggered, 1)
	assert.Equal(t, "Hallucination", triggered[0].Name)
}

func TestResult_FinalAnswer(t *testing.T) {
	result := &Result{Answer: "initial"}
	assert.Equal(t, "initial", result.FinalAnswer())

	result.RegeneratedAnswer = "corrected"
	assert.Equal(t, "corrected", result.FinalAnswer())
}
