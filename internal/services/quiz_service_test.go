package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

func quizRequest(maxAttempts int) *CreateQuizRequest {
	return &CreateQuizRequest{
		Title:       "Checkpoint",
		MaxAttempts: &maxAttempts,
		Questions: []validator.QuizQuestionRequest{
			{
				QuestionText: "2 + 2 = ?",
				QuestionType: "multiple_choice",
				Options: []validator.QuizOptionRequest{
					{OptionText: "4", IsCorrect: true},
					{OptionText: "5"},
				},
			},
			{
				QuestionText: "Name the Go mascot",
				QuestionType: "short_answer",
				Options:      []validator.QuizOptionRequest{{OptionText: "Gopher", IsCorrect: true}},
			},
		},
	}
}

func TestQuizService_CreateValidatesAnswerKey(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, models.RoleTeacher)
	course := env.createCourse(t, teacher.ID, "Quizzes")
	topic := env.createTopic(t, course.ID, teacher.ID, "Basics")

	req := quizRequest(3)
	req.Questions[0].Options[0].IsCorrect = false
	_, err := env.sm.Quiz().Create(env.ctx, topic.ID, req, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	other := env.createUser(t, models.RoleTeacher)
	_, err = env.sm.Quiz().Create(env.ctx, topic.ID, quizRequest(3), other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQuizService_StudentsDoNotSeeAnswers(t *testing.T) {
	env := newTestEnv(t)
	quizzes := env.sm.Quiz()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Quizzes")
	topic := env.createTopic(t, course.ID, teacher.ID, "Basics")

	quiz, err := quizzes.Create(env.ctx, topic.ID, quizRequest(3), teacher.ID)
	require.NoError(t, err)

	staffView, err := quizzes.Get(env.ctx, quiz.ID, teacher.ID)
	require.NoError(t, err)
	assert.True(t, staffView.CanEdit)
	require.Len(t, staffView.Questions, 2)
	require.NotNil(t, staffView.Questions[0].Options[0].IsCorrect)
	assert.Len(t, staffView.Questions[1].Options, 1)

	studentView, err := quizzes.Get(env.ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, studentView.CanEdit)
	for _, q := range studentView.Questions {
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}
	assert.Empty(t, studentView.Questions[1].Options)
}

func TestQuizService_AttemptLifecycle(t *testing.T) {
	env := newTestEnv(t)
	quizzes := env.sm.Quiz()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Quizzes")
	topic := env.createTopic(t, course.ID, teacher.ID, "Basics")

	quiz, err := quizzes.Create(env.ctx, topic.ID, quizRequest(1), teacher.ID)
	require.NoError(t, err)

	_, err = quizzes.StartAttempt(env.ctx, quiz.ID, student.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	env.enroll(t, course.ID, student.ID)
	attempt, err := quizzes.StartAttempt(env.ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.AttemptNumber)

	mc := quiz.Questions[0]
	short := quiz.Questions[1]
	wrong := "Rustacean"
	result, err := quizzes.SubmitAttempt(env.ctx, quiz.ID, attempt.ID, &SubmitQuizRequest{
		Answers: []validator.QuizAnswerRequest{
			{QuestionID: mc.ID, OptionID: &mc.Options[0].ID},
			{QuestionID: short.ID, TextAnswer: &wrong},
		},
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 2.0, result.MaxScore)
	assert.Equal(t, 50.0, result.Percentage)
	assert.False(t, result.Passed)

	published := env.publisher.EventsOfType(events.TopicQuizCompleted)
	require.Len(t, published, 1)
	var payload events.QuizCompletedPayload
	require.NoError(t, published[0].Decode(&payload))
	assert.Equal(t, quiz.ID, payload.QuizID)
	assert.Equal(t, 50.0, payload.Percentage)

	_, err = quizzes.SubmitAttempt(env.ctx, quiz.ID, attempt.ID, &SubmitQuizRequest{}, student.ID)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)

	// a writer holding the pre-submit copy cannot complete the attempt again
	stale := *attempt
	stale.Score = 2
	err = env.repo.Quiz().SaveAttempt(env.ctx, nil, &stale)
	assert.ErrorIs(t, err, repositories.ErrConditionFailed)
	assert.Len(t, env.publisher.EventsOfType(events.TopicQuizCompleted), 1)
	attempts, err := quizzes.ListAttempts(env.ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 1.0, attempts[0].Score)

	_, err = quizzes.StartAttempt(env.ctx, quiz.ID, student.ID)
	assert.ErrorIs(t, err, ErrMaxAttemptsReached)

	attempts, err = quizzes.ListAttempts(env.ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestQuizService_ShortAnswerIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	quizzes := env.sm.Quiz()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Quizzes")
	topic := env.createTopic(t, course.ID, teacher.ID, "Basics")
	env.enroll(t, course.ID, student.ID)

	quiz, err := quizzes.Create(env.ctx, topic.ID, quizRequest(3), teacher.ID)
	require.NoError(t, err)
	attempt, err := quizzes.StartAttempt(env.ctx, quiz.ID, student.ID)
	require.NoError(t, err)

	answer := "  gopher "
	result, err := quizzes.SubmitAttempt(env.ctx, quiz.ID, attempt.ID, &SubmitQuizRequest{
		Answers: []validator.QuizAnswerRequest{
			{QuestionID: quiz.Questions[0].ID, OptionID: &quiz.Questions[0].Options[0].ID},
			{QuestionID: quiz.Questions[1].ID, TextAnswer: &answer},
		},
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Percentage)
	assert.True(t, result.Passed)
}
