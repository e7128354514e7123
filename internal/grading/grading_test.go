package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

const essay = "Goroutines are lightweight threads. However, channels coordinate them.\n\nTherefore concurrency is simple."

func TestEssay(t *testing.T) {
	keywords := []Criterion{{Type: "keywords", Weight: 1, MaxScore: 10, Keywords: []string{"goroutines", "Channels"}}}

	r := Essay(essay, keywords)
	assert.InDelta(t, 2.6, r.CriteriaScores[CriterionContent], 1e-9)
	assert.Equal(t, 10.0, r.CriteriaScores[CriterionGrammar])
	assert.Equal(t, 4.0, r.CriteriaScores[CriterionFlow])
	assert.InDelta(t, 5.1, r.OverallScore, 1e-9)
	assert.Equal(t, 0.85, r.Confidence)
	assert.False(t, r.NeedsReview())
	assert.Equal(t, []string{"Content could be more comprehensive"}, r.Weaknesses)
	assert.Empty(t, r.Strengths)
	assert.Equal(t, "Areas for improvement: Content could be more comprehensive. "+
		"Suggestions: Consider expanding on key points with more detail", r.FeedbackText)

	bare := Essay(essay, nil)
	assert.InDelta(t, 4.1, bare.OverallScore, 1e-9)

	weighted := Essay(essay, append(keywords, Criterion{Type: CriterionContent, Weight: 1}))
	assert.InDelta(t, 6.4, weighted.OverallScore, 1e-9)

	empty := Essay("", nil)
	assert.Equal(t, 0.0, empty.OverallScore)
	assert.Len(t, empty.Weaknesses, 2)
}

func TestGrammarScore(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"clean text", 10},
		{"teh cat will recieve", 8},
		{"teh cat will recieve a seperate bowl", 6},
		{"teh recieve seperate definately", 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grammarScore(tt.text), tt.text)
	}
}

func TestCode(t *testing.T) {
	r := Code("def add(a, b):\n    # sum two numbers\n    return a + b")
	assert.Equal(t, 9.0, r.CriteriaScores[CriterionSyntax])
	assert.Equal(t, 9.0, r.CriteriaScores[CriterionCodeQuality])
	assert.InDelta(t, 26.0/3, r.OverallScore, 1e-9)
	assert.Equal(t, "Code analysis complete. Score: 8.7/10", r.FeedbackText)
	assert.Empty(t, r.Suggestions)
	assert.Equal(t, 0.9, r.Confidence)

	weak := Code("x = 1")
	assert.Equal(t, 6.0, weak.OverallScore)
	assert.Equal(t, []string{"Check for syntax errors in your code"}, weak.Suggestions)
}

func TestHeuristicDispatch(t *testing.T) {
	assert.InDelta(t, 4.1, Heuristic(models.GradingEssay, essay, nil).OverallScore, 1e-9)
	assert.Equal(t, 0.9, Heuristic(models.GradingCode, "def f(): return 1", nil).Confidence)

	d := Heuristic(models.GradingShortAnswer, "anything", nil)
	assert.Equal(t, Default(), d)
	assert.Equal(t, 7.0, d.OverallScore)
	assert.False(t, d.NeedsReview())

	assert.True(t, (&Result{Confidence: 0.69}).NeedsReview())
	assert.False(t, (&Result{Confidence: ReviewThreshold}).NeedsReview())
}

func TestLLMGrader(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockText(`{
		"overall_score": 8.5,
		"confidence": 0.9,
		"feedback": "Good coverage",
		"criteria_scores": [{"criterion": "keywords", "score": 9}, {"criterion": "clarity", "score": 8}],
		"strengths": ["Concise"]
	}`))
	grader := NewLLMGrader(provider)
	assert.Equal(t, "mock", grader.Model())

	criteria := []Criterion{{
		Type:         "keywords",
		Weight:       1,
		MaxScore:     10,
		RubricPoints: []string{"mentions goroutines", "mentions channels"},
		Keywords:     []string{"goroutines", "channels"},
	}}
	r, err := grader.Grade(context.Background(), "Explain Go concurrency", essay, criteria)
	require.NoError(t, err)
	assert.Equal(t, 8.5, r.OverallScore)
	assert.Equal(t, 0.9, r.Confidence)
	assert.Equal(t, map[string]float64{"keywords": 9, "clarity": 8}, r.CriteriaScores)
	assert.Equal(t, "Good coverage", r.FeedbackText)
	assert.Equal(t, []string{"Concise"}, r.Strengths)
	assert.NotNil(t, r.Suggestions)
	assert.NotNil(t, r.Weaknesses)

	req, ok := provider.LastRequest()
	require.True(t, ok)
	assert.Equal(t, gradeSchema, req.Schema)
	assert.Equal(t, 0.0, req.Temperature)
	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "Question:\nExplain Go concurrency")
	assert.Contains(t, prompt, "- keywords (weight 1.00, max 10): mentions goroutines; mentions channels [keywords: goroutines, channels]")
	assert.Contains(t, prompt, "Student answer:\n"+essay)

	provider.AddResponse(llm.MockText(`{"overall_score": 12, "confidence": 0.9, "feedback": "x"}`))
	_, err = grader.Grade(context.Background(), "q", "a", nil)
	assert.Error(t, err)

	_, err = grader.Grade(context.Background(), "q", "a", nil)
	var unavailable *llm.UnavailableError
	assert.True(t, errors.As(err, &unavailable))

	req, _ = provider.LastRequest()
	assert.NotContains(t, req.Messages[0].Content, "Rubric:")
}
