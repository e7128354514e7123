package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
)

const (
	llmGradeMaxTokens = 1024

	gradingSystemPrompt = `You are a careful teaching assistant grading a student's answer.
Score the answer from 0 to 10 against the rubric. Be fair and concise.
Report your confidence in the grade from 0 to 1.`
)

var gradeSchema = &llm.Schema{
	Name:        "answer_grade",
	Description: "Rubric-based grade for a student answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_score": map[string]any{"type": "number", "minimum": 0, "maximum": 10},
			"confidence":    map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"criteria_scores": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"criterion": map[string]any{"type": "string"},
						"score":     map[string]any{"type": "number", "minimum": 0, "maximum": 10},
					},
					"required": []string{"criterion", "score"},
				},
			},
			"feedback":    map[string]any{"type": "string"},
			"suggestions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"strengths":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"weaknesses":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"overall_score", "confidence", "feedback"},
	},
}

type llmGrade struct {
	OverallScore   float64 `json:"overall_score"`
	Confidence     float64 `json:"confidence"`
	CriteriaScores []struct {
		Criterion string  `json:"criterion"`
		Score     float64 `json:"score"`
	} `json:"criteria_scores"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

// LLMGrader asks a language model for a structured grade
type LLMGrader struct {
	provider llm.Provider
}

func NewLLMGrader(provider llm.Provider) *LLMGrader {
	return &LLMGrader{provider: provider}
}

// Model names the underlying provider model
func (g *LLMGrader) Model() string {
	return g.provider.ModelID()
}

// Grade sends the question, rubric and answer and parses the schema-checked reply
func (g *LLMGrader) Grade(ctx context.Context, question, answer string, criteria []Criterion) (*Result, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      gradingSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: gradingPrompt(question, answer, criteria)}},
		Schema:      gradeSchema,
		MaxTokens:   llmGradeMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	var out llmGrade
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("failed to decode grade: %w", err)
	}

	r := &Result{
		OverallScore:   math.Max(0, math.Min(10, out.OverallScore)),
		Confidence:     math.Max(0, math.Min(1, out.Confidence)),
		CriteriaScores: make(map[string]float64, len(out.CriteriaScores)),
		FeedbackText:   out.Feedback,
		Suggestions:    nonNil(out.Suggestions),
		Strengths:      nonNil(out.Strengths),
		Weaknesses:     nonNil(out.Weaknesses),
	}
	for _, c := range out.CriteriaScores {
		r.CriteriaScores[c.Criterion] = c.Score
	}
	return r, nil
}

func gradingPrompt(question, answer string, criteria []Criterion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", question)
	if len(criteria) > 0 {
		b.WriteString("Rubric:\n")
		for _, c := range criteria {
			fmt.Fprintf(&b, "- %s (weight %.2f, max %.0f)", c.Type, c.Weight, c.MaxScore)
			if len(c.RubricPoints) > 0 {
				fmt.Fprintf(&b, ": %s", strings.Join(c.RubricPoints, "; "))
			}
			if len(c.Keywords) > 0 {
				fmt.Fprintf(&b, " [keywords: %s]", strings.Join(c.Keywords, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Student answer:\n%s\n", answer)
	return b.String()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
