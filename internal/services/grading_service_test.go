package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

const essayAnswer = "Goroutines are lightweight threads. However, channels coordinate them.\n\nTherefore concurrency is simple."

// answeredEssay creates an essay question and returns the stored response of a student answering it
func (e *testEnv) answeredEssay(t *testing.T, teacherID, studentID string) (*models.AdaptiveQuestion, *models.AssessmentResponse) {
	t.Helper()
	course := e.createCourse(t, teacherID, "Essays")
	question, err := e.sm.Adaptive().CreateQuestion(e.ctx, &CreateAdaptiveQuestionRequest{
		CourseID:        course.ID,
		QuestionText:    "Explain Go concurrency",
		QuestionType:    string(models.QuestionEssay),
		DifficultyLevel: string(models.DifficultyHard),
		CorrectAnswer:   "open",
	}, teacherID)
	require.NoError(t, err)

	a, err := e.sm.Adaptive().CreateAssessment(e.ctx, &CreateAdaptiveAssessmentRequest{
		CourseID:     course.ID,
		Title:        "Essay",
		MaxQuestions: 1,
	}, studentID)
	require.NoError(t, err)
	_, err = e.sm.Adaptive().SubmitAnswer(e.ctx, a.ID, &SubmitAdaptiveAnswerRequest{
		QuestionID:   question.ID,
		UserAnswer:   essayAnswer,
		ResponseTime: 240,
	}, studentID)
	require.NoError(t, err)

	results, err := e.sm.Adaptive().Results(e.ctx, a.ID, studentID)
	require.NoError(t, err)
	require.Len(t, results.Responses, 1)
	return question, &results.Responses[0]
}

func TestGradingService_CreateModel(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)

	_, err := env.sm.Grading().CreateModel(env.ctx, &CreateGradingModelRequest{
		Name: "Essay rules", ModelType: "heuristic", GradingType: "essay",
	}, student.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.sm.Grading().CreateModel(env.ctx, &CreateGradingModelRequest{
		Name: "Essay rules", ModelType: "neural", GradingType: "essay",
	}, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	model, err := env.sm.Grading().CreateModel(env.ctx, &CreateGradingModelRequest{
		Name: "Essay rules", ModelType: "heuristic", GradingType: "essay",
	}, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0", model.Version)
	assert.True(t, model.IsActive)

	list, err := env.sm.Grading().ListModels(env.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGradingService_GradeAndReview(t *testing.T) {
	env := newTestEnv(t)
	grader := env.sm.Grading()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	peer := env.createUser(t, models.RoleStudent)

	question, response := env.answeredEssay(t, teacher.ID, student.ID)

	_, err := grader.Grade(env.ctx, &GradeResponseRequest{ResponseID: response.ID}, student.ID)
	assert.ErrorIs(t, err, ErrNoGradingModel)

	_, err = grader.CreateCriteria(env.ctx, &CreateGradingCriteriaRequest{
		QuestionID: 9999, CriteriaType: "keywords",
	}, teacher.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	criteria, err := grader.CreateCriteria(env.ctx, &CreateGradingCriteriaRequest{
		QuestionID:   question.ID,
		CriteriaType: "keywords",
		Keywords:     []string{"goroutines", "channels"},
	}, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, criteria.Weight)
	assert.Equal(t, 10.0, criteria.MaxScore)

	listed, err := grader.ListCriteria(env.ctx, question.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	heuristic, err := grader.CreateModel(env.ctx, &CreateGradingModelRequest{
		Name: "Essay rules", ModelType: "heuristic", GradingType: "essay",
	}, teacher.ID)
	require.NoError(t, err)

	_, err = grader.Grade(env.ctx, &GradeResponseRequest{ResponseID: response.ID}, peer.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := grader.Grade(env.ctx, &GradeResponseRequest{ResponseID: response.ID}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, heuristic.ID, first.ModelID)
	assert.InDelta(t, 5.1, first.OverallScore, 1e-9)
	assert.Equal(t, 0.85, first.ConfidenceScore)
	assert.False(t, first.NeedsHumanReview)

	stored, err := env.repo.AdaptiveAssessment().GetResponse(env.ctx, nil, response.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.1, stored.PointsEarned, 1e-9)
	assert.False(t, stored.IsCorrect)

	llmModel, err := grader.CreateModel(env.ctx, &CreateGradingModelRequest{
		Name: "Essay LLM", ModelType: "llm", GradingType: "essay", Version: "2.0",
	}, teacher.ID)
	require.NoError(t, err)

	env.provider.AddResponse(llm.MockText(`{"overall_score": 8, "confidence": 0.5, "feedback": "Solid answer",
		"criteria_scores": [{"criterion": "keywords", "score": 8}], "strengths": ["Clear"]}`))
	second, err := grader.Grade(env.ctx, &GradeResponseRequest{ResponseID: response.ID, ModelID: &llmModel.ID}, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, second.OverallScore)
	assert.Equal(t, "2.0", second.ModelVersion)
	assert.True(t, second.NeedsHumanReview)
	assert.Equal(t, "low confidence score 0.50", second.ReviewReason)

	req, ok := env.provider.LastRequest()
	require.True(t, ok)
	require.NotNil(t, req.Schema)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "keywords: goroutines, channels")
	assert.Contains(t, req.Messages[0].Content, essayAnswer)

	stored, err = env.repo.AdaptiveAssessment().GetResponse(env.ctx, nil, response.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCorrect)

	// an exhausted provider falls back to the heuristic grader
	third, err := grader.Grade(env.ctx, &GradeResponseRequest{ResponseID: response.ID, ModelID: &llmModel.ID}, teacher.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.1, third.OverallScore, 1e-9)
	assert.Equal(t, 2, env.provider.CallCount())

	latest, err := grader.GetResult(env.ctx, response.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)
	_, err = grader.GetResult(env.ctx, response.ID, peer.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = grader.GetResult(env.ctx, 9999, teacher.ID)
	assert.ErrorIs(t, err, ErrResponseNotFound)

	_, err = grader.PendingReviews(env.ctx, student.ID, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	pending, err := grader.PendingReviews(env.ctx, teacher.ID, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	review, err := grader.Review(env.ctx, &HumanReviewRequest{
		GradingResultID:  second.ID,
		HumanScore:       9,
		ReviewNotes:      "Fair",
		AIAccuracyRating: ptr(4),
	}, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, review.ScoreDifference)

	_, err = grader.Review(env.ctx, &HumanReviewRequest{GradingResultID: 9999, HumanScore: 5}, teacher.ID)
	assert.ErrorIs(t, err, ErrGradingResultNotFound)

	stats, err := grader.Analytics(env.ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalGraded)
	assert.Equal(t, int64(0), stats.PendingReviews)
}
