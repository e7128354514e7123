package adaptive

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestDifficultyScore(t *testing.T) {
	tests := []struct {
		name     string
		initial  float64
		used     int
		correct  int
		expected float64
	}{
		{"unused keeps initial", 0.5, 0, 0, 0.5},
		{"easy for learners", 0.5, 10, 9, 0.6},
		{"hard for learners", 0.5, 10, 2, 0.4},
		{"average success", 0.5, 10, 5, 0.5},
		{"clamped at one", 0.95, 10, 10, 1.0},
		{"clamped at zero", 0.05, 10, 0, 0.0},
		{"boundary 0.8 unchanged", 0.5, 10, 8, 0.5},
		{"boundary 0.3 unchanged", 0.5, 10, 3, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.AdaptiveQuestion{InitialDifficulty: tt.initial, TimesUsed: tt.used, CorrectResponses: tt.correct}
			assert.InDelta(t, tt.expected, DifficultyScore(q), 1e-9)
		})
	}
}

func TestRecordUsage(t *testing.T) {
	q := &models.AdaptiveQuestion{}

	RecordUsage(q, true, 30)
	assert.Equal(t, 1, q.TimesUsed)
	assert.Equal(t, 1, q.CorrectResponses)
	assert.Equal(t, 30.0, q.AverageResponseTime)

	RecordUsage(q, false, 10)
	assert.Equal(t, 2, q.TimesUsed)
	assert.Equal(t, 1, q.CorrectResponses)
	assert.Equal(t, 20.0, q.AverageResponseTime)
}

func TestAdjustDifficulty(t *testing.T) {
	a := &models.AdaptiveAssessment{CurrentDifficulty: 0.5, DifficultyAdjustmentRate: 0.1, QuestionsAnswered: 2}
	AdjustDifficulty(a, true)
	assert.Equal(t, 0.5, a.CurrentDifficulty, "no change before baseline")

	a.QuestionsAnswered = 3
	AdjustDifficulty(a, true)
	assert.InDelta(t, 0.6, a.CurrentDifficulty, 1e-9)

	AdjustDifficulty(a, false)
	AdjustDifficulty(a, false)
	assert.InDelta(t, 0.4, a.CurrentDifficulty, 1e-9)

	a.CurrentDifficulty = 0.95
	AdjustDifficulty(a, true)
	assert.Equal(t, 1.0, a.CurrentDifficulty)

	a.CurrentDifficulty = 0.05
	AdjustDifficulty(a, false)
	assert.Equal(t, 0.0, a.CurrentDifficulty)
}

func TestProgressAndAccuracy(t *testing.T) {
	a := &models.AdaptiveAssessment{MaxQuestions: 20}
	assert.Equal(t, 0.0, Progress(a))
	assert.Equal(t, 0.0, Accuracy(a))

	a.QuestionsAnswered = 5
	a.CorrectAnswers = 4
	assert.Equal(t, 25.0, Progress(a))
	assert.Equal(t, 80.0, Accuracy(a))
}

func TestProficiencyFor(t *testing.T) {
	assert.Equal(t, models.ProficiencyExpert, ProficiencyFor(90))
	assert.Equal(t, models.ProficiencyAdvanced, ProficiencyFor(89.9))
	assert.Equal(t, models.ProficiencyAdvanced, ProficiencyFor(75))
	assert.Equal(t, models.ProficiencyIntermediate, ProficiencyFor(60))
	assert.Equal(t, models.ProficiencyBeginner, ProficiencyFor(59.9))
}

func TestComplete(t *testing.T) {
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	a := &models.AdaptiveAssessment{
		StartedAt:         started,
		QuestionsAnswered: 10,
		CorrectAnswers:    8,
		Status:            models.AssessmentInProgress,
	}

	Complete(a, started.Add(12*time.Minute+40*time.Second))

	assert.Equal(t, models.AssessmentCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, 12, a.TimeSpentMinutes)
	require.NotNil(t, a.FinalScore)
	assert.Equal(t, 80.0, *a.FinalScore)
	require.NotNil(t, a.ProficiencyLevel)
	assert.Equal(t, models.ProficiencyAdvanced, *a.ProficiencyLevel)
	require.NotNil(t, a.ConfidenceInterval)
	assert.Equal(t, 10.0, *a.ConfidenceInterval, "sqrt(80*20/10) is capped at 10")
}

func TestComplete_NarrowInterval(t *testing.T) {
	a := &models.AdaptiveAssessment{QuestionsAnswered: 100, CorrectAnswers: 100}
	Complete(a, time.Now())
	require.NotNil(t, a.ConfidenceInterval)
	assert.Equal(t, 0.0, *a.ConfidenceInterval)

	a = &models.AdaptiveAssessment{QuestionsAnswered: 25, CorrectAnswers: 5}
	Complete(a, time.Now())
	assert.InDelta(t, math.Sqrt(20*80/25.0), *a.ConfidenceInterval, 1e-9)
	assert.Equal(t, models.ProficiencyBeginner, *a.ProficiencyLevel)
}

func TestComplete_NoAnswers(t *testing.T) {
	a := &models.AdaptiveAssessment{}
	Complete(a, time.Now())
	assert.Equal(t, 0.0, *a.FinalScore)
	assert.Nil(t, a.ConfidenceInterval)
}

func TestSelectNextQuestion(t *testing.T) {
	engine := NewEngine(rand.NewSource(1))
	a := &models.AdaptiveAssessment{MaxQuestions: 5, CurrentDifficulty: 0.8}

	candidates := []models.AdaptiveQuestion{
		{ID: 1, InitialDifficulty: 0.1, IsActive: true},
		{ID: 2, InitialDifficulty: 0.8, IsActive: true},
		{ID: 3, InitialDifficulty: 0.8, IsActive: false},
		{ID: 4, InitialDifficulty: 0.9, IsActive: true},
	}

	got := engine.SelectNextQuestion(a, candidates, map[uint]bool{4: true})
	require.NotNil(t, got)
	assert.NotEqual(t, uint(3), got.ID, "inactive questions are never chosen")
	assert.NotEqual(t, uint(4), got.ID, "answered questions are never chosen")

	hits := 0
	for i := 0; i < 200; i++ {
		if q := engine.SelectNextQuestion(a, candidates, nil); q != nil && q.ID == 2 {
			hits++
		}
	}
	assert.Greater(t, hits, 100, "the closest difficulty should usually win")
}

func TestSelectNextQuestion_Exhausted(t *testing.T) {
	engine := NewEngine(rand.NewSource(1))
	candidates := []models.AdaptiveQuestion{{ID: 1, InitialDifficulty: 0.5, IsActive: true}}

	full := &models.AdaptiveAssessment{MaxQuestions: 3, QuestionsAnswered: 3}
	assert.Nil(t, engine.SelectNextQuestion(full, candidates, nil))

	open := &models.AdaptiveAssessment{MaxQuestions: 3}
	assert.Nil(t, engine.SelectNextQuestion(open, candidates, map[uint]bool{1: true}))
	assert.Nil(t, engine.SelectNextQuestion(open, nil, nil))
}

func TestEstimateAbility(t *testing.T) {
	assert.Equal(t, 0.5, EstimateAbility(nil))

	responses := []models.AssessmentResponse{
		{IsCorrect: true, QuestionDifficulty: 0.6},
		{IsCorrect: true, QuestionDifficulty: 0.8},
		{IsCorrect: false, QuestionDifficulty: 0.4},
		{IsCorrect: true, QuestionDifficulty: 0.6},
	}
	// 0.75*0.7 + 0.6*0.3
	assert.InDelta(t, 0.705, EstimateAbility(responses), 1e-9)
}

func makeResponses(pattern ...bool) []models.AssessmentResponse {
	out := make([]models.AssessmentResponse, len(pattern))
	for i, c := range pattern {
		out[i] = models.AssessmentResponse{IsCorrect: c}
	}
	return out
}

func TestShouldTerminate(t *testing.T) {
	allRight := makeResponses(true, true, true, true, true, true, true, true, true, true)
	allWrong := makeResponses(false, false, false, false, false, false, false, false, false, false)
	mixed := makeResponses(true, false, true, false, true, false, true, false, true, false)

	assert.False(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 4}, allRight[:4]))
	assert.False(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 9}, allRight[:9]))
	assert.True(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 10}, allRight))
	assert.True(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 10}, allWrong))
	assert.False(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 10}, mixed))

	// 4 of the last 5 is exactly 0.8 which does not terminate
	fourOfFive := makeResponses(false, false, false, false, false, true, true, false, true, true)
	assert.False(t, ShouldTerminate(&models.AdaptiveAssessment{QuestionsAnswered: 10}, fourOfFive))
}

func TestBuildFeedback(t *testing.T) {
	fb := BuildFeedback(&models.AssessmentResponse{IsCorrect: true, PointsEarned: 1, ResponseTimeSeconds: 5}, "because")
	assert.True(t, fb.IsCorrect)
	require.NotNil(t, fb.Explanation)
	assert.Equal(t, "because", *fb.Explanation)
	assert.Equal(t, []string{"Great job! You've mastered this concept."}, fb.Suggestions)

	fb = BuildFeedback(&models.AssessmentResponse{ResponseTimeSeconds: 5}, "")
	assert.Nil(t, fb.Explanation)
	assert.Equal(t, []string{
		"Consider reviewing the related material.",
		"Take your time to read the question carefully.",
	}, fb.Suggestions)

	fb = BuildFeedback(&models.AssessmentResponse{ResponseTimeSeconds: 300}, "")
	assert.Len(t, fb.Suggestions, 2)
	assert.Equal(t, "Try to work more efficiently on similar questions.", fb.Suggestions[1])

	fb = BuildFeedback(&models.AssessmentResponse{ResponseTimeSeconds: 60}, "")
	assert.Equal(t, []string{"Consider reviewing the related material."}, fb.Suggestions)
}
