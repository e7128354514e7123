package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Admin123!", true},
		{"Password1", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrongPassword(tt.password))
		})
	}
}

func TestValidateStruct_Register(t *testing.T) {
	v := New()

	err := v.ValidateStruct(&RegisterRequest{Username: "alice_01", Email: "alice@example.com", Password: "Secret123"})
	assert.NoError(t, err)

	err = v.ValidateStruct(&RegisterRequest{Username: "al", Email: "not-an-email", Password: "weak"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]string{}
	for _, e := range verrs {
		fields[e.Field] = e.Rule
	}
	assert.Equal(t, "username", fields["username"])
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "password_strength", fields["password"])
}

func TestValidateStruct_AdaptiveQuestion(t *testing.T) {
	v := New()
	bad := 1.5
	err := v.ValidateStruct(&AdaptiveQuestionCreateRequest{
		CourseID:          1,
		QuestionText:      "2+2?",
		QuestionType:      "riddle",
		DifficultyLevel:   "medium",
		CorrectAnswer:     "4",
		InitialDifficulty: &bad,
	})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	rules := []string{}
	for _, e := range verrs {
		rules = append(rules, e.Rule)
	}
	assert.ElementsMatch(t, []string{"question_type", "difficulty_score"}, rules)
}

func TestValidateStatusTransition(t *testing.T) {
	bv := NewBusinessValidator()

	assert.Empty(t, bv.ValidateStatusTransition(models.AssessmentInProgress, models.AssessmentCompleted))
	assert.Empty(t, bv.ValidateStatusTransition(models.AssessmentInProgress, models.AssessmentAbandoned))
	assert.Len(t, bv.ValidateStatusTransition(models.AssessmentCompleted, models.AssessmentInProgress), 1)
	assert.Len(t, bv.ValidateStatusTransition(models.AssessmentAbandoned, models.AssessmentCompleted), 1)
}

func TestValidateQuizQuestions(t *testing.T) {
	bv := NewBusinessValidator()

	errs := bv.ValidateQuizQuestions([]QuizQuestionRequest{
		{QuestionText: "ok", QuestionType: "multiple_choice", Options: []QuizOptionRequest{{OptionText: "a", IsCorrect: true}}},
		{QuestionText: "none correct", QuestionType: "true_false", Options: []QuizOptionRequest{{OptionText: "True"}, {OptionText: "False"}}},
		{QuestionText: "no answers", QuestionType: "short_answer"},
	})
	require.Len(t, errs, 2)
	assert.Equal(t, "questions[1].options", errs[0].Field)
	assert.Equal(t, "questions[2].options", errs[1].Field)
}

func TestValidateGrade(t *testing.T) {
	bv := NewBusinessValidator()
	assert.Empty(t, bv.ValidateGrade(100, 100))
	assert.Len(t, bv.ValidateGrade(101, 100), 1)
	assert.Len(t, bv.ValidateGrade(-1, 100), 1)
}

func TestValidateStruct_AdaptiveAnswerResponseTime(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateStruct(&AdaptiveAnswerRequest{QuestionID: 1, ResponseTime: 42.5}))
	assert.NoError(t, v.ValidateStruct(&AdaptiveAnswerRequest{QuestionID: 1, ResponseTime: 86400}))

	for _, rt := range []float64{-1, 86400.5, 1e12} {
		err := v.ValidateStruct(&AdaptiveAnswerRequest{QuestionID: 1, ResponseTime: rt})
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs, "response_time %v", rt)
		require.Len(t, verrs, 1)
		assert.Equal(t, "response_time", verrs[0].Field)
	}
}
