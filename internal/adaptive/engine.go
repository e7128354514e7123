// Package adaptive holds the question selection and scoring rules of adaptive
// assessments. It has no storage dependencies; services load the rows, call
// into the engine and persist the mutated models.
package adaptive

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

const (
	// Difficulty stays fixed until this many answers establish a baseline
	baselineQuestions = 3

	// Early termination needs at least this many answers to be considered
	minQuestionsForTermination = 5
	// and this many before the recent-streak rule applies
	streakCheckQuestions = 10
	streakWindow         = 5

	selectionNoiseStdDev = 0.1
	defaultAbility       = 0.5
	maxConfidenceWidth   = 10.0
)

// Engine selects questions. Only selection needs randomness, so it is the only stateful part.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine drawing selection noise from src
func NewEngine(src rand.Source) *Engine {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Engine{rng: rand.New(src)}
}

func (e *Engine) noise() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.NormFloat64() * selectionNoiseStdDev
}

// SelectNextQuestion picks the unanswered active candidate whose difficulty is
// closest to the assessment target, with gaussian noise to vary the order.
// It returns nil when the assessment is full or nothing is left to ask.
func (e *Engine) SelectNextQuestion(a *models.AdaptiveAssessment, candidates []models.AdaptiveQuestion, answered map[uint]bool) *models.AdaptiveQuestion {
	if a.QuestionsAnswered >= a.MaxQuestions {
		return nil
	}

	var best *models.AdaptiveQuestion
	bestScore := math.Inf(-1)
	for i := range candidates {
		q := &candidates[i]
		if !q.IsActive || answered[q.ID] {
			continue
		}
		diff := math.Abs(DifficultyScore(q) - a.CurrentDifficulty)
		score := 1.0/(1.0+diff) + e.noise()
		if score > bestScore {
			best, bestScore = q, score
		}
	}
	return best
}

// DifficultyScore is the observed difficulty of a question, nudged by its success rate
func DifficultyScore(q *models.AdaptiveQuestion) float64 {
	if q.TimesUsed == 0 {
		return q.InitialDifficulty
	}

	successRate := float64(q.CorrectResponses) / float64(q.TimesUsed)
	switch {
	case successRate > 0.8:
		return math.Min(1.0, q.InitialDifficulty+0.1)
	case successRate < 0.3:
		return math.Max(0.0, q.InitialDifficulty-0.1)
	default:
		return q.InitialDifficulty
	}
}

// RecordUsage updates question statistics after an answer
func RecordUsage(q *models.AdaptiveQuestion, correct bool, responseTime float64) {
	q.TimesUsed++
	if correct {
		q.CorrectResponses++
	}
	if q.AverageResponseTime == 0 {
		q.AverageResponseTime = responseTime
	} else {
		q.AverageResponseTime = (q.AverageResponseTime + responseTime) / 2
	}
}

// Progress is the share of max_questions already answered, in percent
func Progress(a *models.AdaptiveAssessment) float64 {
	if a.MaxQuestions <= 0 {
		return 0
	}
	return float64(a.QuestionsAnswered) / float64(a.MaxQuestions) * 100
}

// Accuracy is the share of correct answers, in percent
func Accuracy(a *models.AdaptiveAssessment) float64 {
	if a.QuestionsAnswered <= 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.QuestionsAnswered) * 100
}

// AdjustDifficulty moves the target difficulty after an answer.
// QuestionsAnswered must already include the answer being applied.
func AdjustDifficulty(a *models.AdaptiveAssessment, correct bool) {
	if a.QuestionsAnswered < baselineQuestions {
		return
	}
	if correct {
		a.CurrentDifficulty = math.Min(1.0, a.CurrentDifficulty+a.DifficultyAdjustmentRate)
	} else {
		a.CurrentDifficulty = math.Max(0.0, a.CurrentDifficulty-a.DifficultyAdjustmentRate)
	}
}

// ProficiencyFor maps a final score to a proficiency level
func ProficiencyFor(score float64) models.ProficiencyLevel {
	switch {
	case score >= 90:
		return models.ProficiencyExpert
	case score >= 75:
		return models.ProficiencyAdvanced
	case score >= 60:
		return models.ProficiencyIntermediate
	default:
		return models.ProficiencyBeginner
	}
}

// Complete closes the assessment and fills the result fields
func Complete(a *models.AdaptiveAssessment, now time.Time) {
	a.Status = models.AssessmentCompleted
	a.CompletedAt = &now

	if !a.StartedAt.IsZero() {
		a.TimeSpentMinutes = int(now.Sub(a.StartedAt).Minutes())
	}

	score := Accuracy(a)
	a.FinalScore = &score

	level := ProficiencyFor(score)
	a.ProficiencyLevel = &level

	if a.QuestionsAnswered > 0 {
		se := math.Sqrt(score * (100 - score) / float64(a.QuestionsAnswered))
		ci := math.Min(se, maxConfidenceWidth)
		a.ConfidenceInterval = &ci
	}
}

// EstimateAbility blends accuracy with the mean difficulty of the answered questions
func EstimateAbility(responses []models.AssessmentResponse) float64 {
	if len(responses) == 0 {
		return defaultAbility
	}

	correct := 0
	var difficultySum float64
	for _, r := range responses {
		if r.IsCorrect {
			correct++
		}
		difficultySum += r.QuestionDifficulty
	}
	performance := float64(correct) / float64(len(responses))
	avgDifficulty := difficultySum / float64(len(responses))

	ability := performance*0.7 + avgDifficulty*0.3
	return math.Max(0, math.Min(1, ability))
}

// ShouldTerminate ends an assessment early once recent answers are
// consistently right or consistently wrong. responses are in answer order.
func ShouldTerminate(a *models.AdaptiveAssessment, responses []models.AssessmentResponse) bool {
	if a.QuestionsAnswered < minQuestionsForTermination {
		return false
	}
	if a.QuestionsAnswered < streakCheckQuestions || len(responses) == 0 {
		return false
	}

	recent := responses
	if len(recent) > streakWindow {
		recent = recent[len(recent)-streakWindow:]
	}
	correct := 0
	for _, r := range recent {
		if r.IsCorrect {
			correct++
		}
	}
	consistency := float64(correct) / float64(len(recent))
	return consistency > 0.8 || consistency < 0.2
}

// Feedback is returned to the learner after each answer
type Feedback struct {
	IsCorrect    bool     `json:"is_correct"`
	PointsEarned float64  `json:"points_earned"`
	Explanation  *string  `json:"explanation"`
	Suggestions  []string `json:"suggestions"`
}

// BuildFeedback produces the per-answer feedback
func BuildFeedback(r *models.AssessmentResponse, explanation string) Feedback {
	fb := Feedback{
		IsCorrect:    r.IsCorrect,
		PointsEarned: r.PointsEarned,
		Suggestions:  []string{},
	}
	if explanation != "" {
		fb.Explanation = &explanation
	}

	if r.IsCorrect {
		fb.Suggestions = append(fb.Suggestions, "Great job! You've mastered this concept.")
		return fb
	}

	fb.Suggestions = append(fb.Suggestions, "Consider reviewing the related material.")
	switch {
	case r.ResponseTimeSeconds < 10:
		fb.Suggestions = append(fb.Suggestions, "Take your time to read the question carefully.")
	case r.ResponseTimeSeconds > 120:
		fb.Suggestions = append(fb.Suggestions, "Try to work more efficiently on similar questions.")
	}
	return fb
}
