// Package grading scores free-form answers. The heuristic graders are pure
// functions; the LLM grader delegates to an llm.Provider and reports the same
// Result shape so callers can fall back between them.
package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

const (
	CriterionContent = "content_quality"
	CriterionGrammar = "grammar_spelling"
	CriterionFlow    = "logical_flow"

	CriterionSyntax      = "syntax"
	CriterionTestCases   = "test_cases"
	CriterionCodeQuality = "code_quality"

	essayConfidence   = 0.85
	codeConfidence    = 0.90
	defaultScore      = 7.0
	defaultConfidence = 0.8

	// ReviewThreshold is the confidence below which a result needs a human review
	ReviewThreshold = 0.7
	// PassingScore marks a graded response correct
	PassingScore = 7.0
)

var (
	commonMisspellings = []string{"teh", "recieve", "seperate", "definately"}
	transitionWords    = []string{"however", "therefore", "furthermore", "moreover", "consequently"}

	defaultEssayWeights = map[string]float64{
		CriterionContent: 0.5,
		CriterionGrammar: 0.3,
		CriterionFlow:    0.2,
	}
)

// Criterion is one rubric line of a question
type Criterion struct {
	Type         string
	Weight       float64
	MaxScore     float64
	RubricPoints []string
	Keywords     []string
}

// Result is the outcome of grading one answer, scores on a 0..10 scale
type Result struct {
	OverallScore   float64            `json:"overall_score"`
	Confidence     float64            `json:"confidence"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	FeedbackText   string             `json:"feedback_text"`
	Suggestions    []string           `json:"suggestions"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
}

// NeedsReview reports whether the result should be checked by a person
func (r *Result) NeedsReview() bool {
	return r.Confidence < ReviewThreshold
}

// Heuristic grades answer with the rule-based grader for gradingType
func Heuristic(gradingType models.GradingType, answer string, criteria []Criterion) *Result {
	switch gradingType {
	case models.GradingEssay:
		return Essay(answer, criteria)
	case models.GradingCode:
		return Code(answer)
	default:
		return Default()
	}
}

// Essay scores content, spelling and structure. Criteria whose type names one
// of those dimensions override its weight; all criteria keywords count toward content.
func Essay(text string, criteria []Criterion) *Result {
	var keywords []string
	weights := make(map[string]float64, len(defaultEssayWeights))
	for k, v := range defaultEssayWeights {
		weights[k] = v
	}
	for _, c := range criteria {
		keywords = append(keywords, c.Keywords...)
		if _, ok := weights[c.Type]; ok && c.Weight > 0 {
			weights[c.Type] = c.Weight
		}
	}

	scores := map[string]float64{
		CriterionContent: contentQuality(text, keywords),
		CriterionGrammar: grammarScore(text),
		CriterionFlow:    logicalFlow(text),
	}

	r := &Result{
		CriteriaScores: scores,
		Confidence:     essayConfidence,
		Suggestions:    []string{},
		Strengths:      []string{},
		Weaknesses:     []string{},
	}
	if scores[CriterionContent] < 7 {
		r.Weaknesses = append(r.Weaknesses, "Content could be more comprehensive")
		r.Suggestions = append(r.Suggestions, "Consider expanding on key points with more detail")
	}
	if scores[CriterionGrammar] < 8 {
		r.Weaknesses = append(r.Weaknesses, "Some grammar and spelling issues")
		r.Suggestions = append(r.Suggestions, "Review grammar and spelling before submitting")
	}
	if scores[CriterionFlow] > 8 {
		r.Strengths = append(r.Strengths, "Excellent logical organization")
	}

	var overall float64
	for k, v := range scores {
		overall += v * weights[k]
	}
	r.OverallScore = math.Min(10, overall)
	r.FeedbackText = feedbackText(r.Suggestions, r.Strengths, r.Weaknesses)
	return r
}

func contentQuality(text string, keywords []string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	words := len(strings.Fields(text))
	matches := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			matches++
		}
	}
	length := math.Min(10, float64(words)/10)
	coverage := math.Min(10, float64(matches)*2)
	return (length + coverage) / 2
}

func grammarScore(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	errors := 0
	for _, w := range commonMisspellings {
		if strings.Contains(lower, w) {
			errors++
		}
	}
	switch {
	case errors == 0:
		return 10
	case errors <= 2:
		return 8
	case errors <= 5:
		return 6
	default:
		return 4
	}
}

func logicalFlow(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	paragraphs := len(strings.Split(text, "\n\n"))
	transitions := 0
	for _, w := range transitionWords {
		if strings.Contains(lower, w) {
			transitions++
		}
	}
	structure := math.Min(10, float64(paragraphs)*2)
	transition := math.Min(10, float64(transitions)*2)
	return (structure + transition) / 2
}

func feedbackText(suggestions, strengths, weaknesses []string) string {
	var parts []string
	if len(strengths) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(strengths, ", "))
	}
	if len(weaknesses) > 0 {
		parts = append(parts, "Areas for improvement: "+strings.Join(weaknesses, ", "))
	}
	if len(suggestions) > 0 {
		parts = append(parts, "Suggestions: "+strings.Join(suggestions, ", "))
	}
	if len(parts) == 0 {
		return "Good work! Keep practicing."
	}
	return strings.Join(parts, ". ")
}

// Code scores a code answer on syntax markers, a fixed test score and comment density
func Code(code string) *Result {
	scores := map[string]float64{
		CriterionSyntax:      syntaxScore(code),
		CriterionTestCases:   8,
		CriterionCodeQuality: codeQuality(code),
	}

	r := &Result{
		CriteriaScores: scores,
		Confidence:     codeConfidence,
		Suggestions:    []string{},
		Strengths:      []string{},
		Weaknesses:     []string{},
	}
	if scores[CriterionSyntax] < 8 {
		r.Suggestions = append(r.Suggestions, "Check for syntax errors in your code")
	}
	if scores[CriterionTestCases] < 7 {
		r.Suggestions = append(r.Suggestions, "Some test cases are failing. Review your logic")
	}

	overall := (scores[CriterionSyntax] + scores[CriterionTestCases] + scores[CriterionCodeQuality]) / 3
	r.OverallScore = math.Min(10, overall)
	r.FeedbackText = fmt.Sprintf("Code analysis complete. Score: %.1f/10", overall)
	return r
}

func syntaxScore(code string) float64 {
	hasDef := strings.Contains(code, "def ")
	switch {
	case hasDef && strings.Contains(code, "return"):
		return 9
	case hasDef:
		return 7
	default:
		return 5
	}
}

func codeQuality(code string) float64 {
	if code == "" {
		return 0
	}
	lines := strings.Split(code, "\n")
	comments := 0
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			comments++
		}
	}
	ratio := float64(comments) / float64(len(lines))
	switch {
	case ratio > 0.1:
		return 9
	case ratio > 0.05:
		return 7
	default:
		return 5
	}
}

// Default is the flat result for question types without a dedicated grader
func Default() *Result {
	return &Result{
		OverallScore:   defaultScore,
		Confidence:     defaultConfidence,
		CriteriaScores: map[string]float64{"content": defaultScore},
		FeedbackText:   "Response graded successfully.",
		Suggestions:    []string{"Good work!"},
		Strengths:      []string{"Clear response"},
		Weaknesses:     []string{},
	}
}
