package services

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

func (e *testEnv) createQuestion(t *testing.T, courseID uint, teacherID, text, answer string) *models.AdaptiveQuestion {
	t.Helper()
	q, err := e.sm.Adaptive().CreateQuestion(e.ctx, &CreateAdaptiveQuestionRequest{
		CourseID:        courseID,
		QuestionText:    text,
		QuestionType:    string(models.QuestionMultipleChoice),
		DifficultyLevel: string(models.DifficultyMedium),
		Options:         []string{answer, "none of these"},
		CorrectAnswer:   answer,
		Explanation:     "Because " + answer,
	}, teacherID)
	require.NoError(t, err)
	return q
}

func TestAdaptiveService_CreateQuestion(t *testing.T) {
	env := newTestEnv(t)
	adaptive := env.sm.Adaptive()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Adaptive")
	other := env.createCourse(t, teacher.ID, "Elsewhere")
	foreignTopic := env.createTopic(t, other.ID, teacher.ID, "Foreign")

	q := env.createQuestion(t, course.ID, teacher.ID, "What is 2 + 2?", "4")
	assert.Equal(t, 0.5, q.InitialDifficulty)
	assert.Equal(t, 1.0, q.Discrimination)
	assert.Equal(t, 0.25, q.Guessing)
	assert.Equal(t, 60, q.TimeLimitSeconds)
	assert.Equal(t, 1, q.Points)
	assert.True(t, q.IsActive)

	zero := 0.0
	easy, err := adaptive.CreateQuestion(env.ctx, &CreateAdaptiveQuestionRequest{
		CourseID:          course.ID,
		QuestionText:      "True or false: Go has generics",
		QuestionType:      string(models.QuestionTrueFalse),
		DifficultyLevel:   string(models.DifficultyEasy),
		CorrectAnswer:     "true",
		InitialDifficulty: &zero,
	}, teacher.ID)
	require.NoError(t, err)
	stored, err := env.repo.AdaptiveQuestion().GetByID(env.ctx, nil, easy.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.InitialDifficulty)

	req := &CreateAdaptiveQuestionRequest{
		CourseID:        course.ID,
		QuestionText:    "Denied",
		QuestionType:    string(models.QuestionShortAnswer),
		DifficultyLevel: string(models.DifficultyHard),
		CorrectAnswer:   "x",
	}
	_, err = adaptive.CreateQuestion(env.ctx, req, student.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	req.TopicID = &foreignTopic.ID
	_, err = adaptive.CreateQuestion(env.ctx, req, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	req.TopicID = nil
	req.QuestionType = "riddle"
	_, err = adaptive.CreateQuestion(env.ctx, req, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAdaptiveService_StartWithoutQuestions(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Empty")

	a, err := env.sm.Adaptive().CreateAssessment(env.ctx, &CreateAdaptiveAssessmentRequest{
		CourseID: course.ID,
		Title:    "Placement",
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, a.MaxQuestions)
	assert.Equal(t, 0.5, a.CurrentDifficulty)
	assert.Equal(t, models.AssessmentInProgress, a.Status)

	_, err = env.sm.Adaptive().Start(env.ctx, a.ID, student.ID)
	assert.ErrorIs(t, err, ErrNoQuestionsAvailable)
}

func TestAdaptiveService_AssessmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adaptive := env.sm.Adaptive()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	intruder := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Adaptive")
	other := env.createCourse(t, teacher.ID, "Elsewhere")

	answers := map[uint]string{}
	for i := 0; i < 3; i++ {
		answer := fmt.Sprintf("%d", i*10)
		q := env.createQuestion(t, course.ID, teacher.ID, fmt.Sprintf("Question %d", i), answer)
		answers[q.ID] = answer
	}
	foreign := env.createQuestion(t, other.ID, teacher.ID, "Foreign", "x")

	a, err := adaptive.CreateAssessment(env.ctx, &CreateAdaptiveAssessmentRequest{
		CourseID:     course.ID,
		Title:        "Quick check",
		MaxQuestions: 2,
	}, student.ID)
	require.NoError(t, err)

	_, err = adaptive.Start(env.ctx, a.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)

	started, err := adaptive.Start(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, started.Question)
	first := started.Question.ID
	assert.Contains(t, answers, first)
	assert.Len(t, started.Question.Options, 2)

	_, err = adaptive.Results(env.ctx, a.ID, student.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotCompleted)

	_, err = adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{QuestionID: foreign.ID, UserAnswer: "x"}, student.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	resp, err := adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{
		QuestionID:   first,
		UserAnswer:   " " + strings.ToUpper(answers[first]) + " ",
		ResponseTime: 12,
	}, student.ID)
	require.NoError(t, err)
	assert.True(t, resp.Feedback.IsCorrect)
	assert.False(t, resp.AssessmentComplete)
	assert.Equal(t, 50.0, resp.Progress)
	assert.Equal(t, 0.5, resp.CurrentDifficulty)

	_, err = adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{QuestionID: first, UserAnswer: answers[first]}, student.ID)
	assert.ErrorIs(t, err, ErrQuestionAlreadyAnswered)

	current, err := adaptive.CurrentQuestion(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Question)
	assert.NotEqual(t, first, current.Question.ID)
	assert.False(t, current.AssessmentComplete)

	resp, err = adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{
		QuestionID:   current.Question.ID,
		UserAnswer:   "wrong",
		ResponseTime: 75,
	}, student.ID)
	require.NoError(t, err)
	assert.False(t, resp.Feedback.IsCorrect)
	assert.True(t, resp.AssessmentComplete)
	require.NotNil(t, resp.Assessment)
	require.NotNil(t, resp.Assessment.FinalScore)
	assert.Equal(t, 50.0, *resp.Assessment.FinalScore)
	require.NotNil(t, resp.Assessment.ProficiencyLevel)
	assert.Equal(t, models.ProficiencyBeginner, *resp.Assessment.ProficiencyLevel)

	published := env.publisher.EventsOfType(events.TopicAssessmentCompleted)
	require.Len(t, published, 1)
	assert.Equal(t, student.ID, published[0].UserID)
	var payload events.AssessmentCompletedPayload
	require.NoError(t, published[0].Decode(&payload))
	assert.Equal(t, a.ID, payload.AssessmentID)
	assert.Equal(t, 2, payload.QuestionsAnswered)
	assert.Equal(t, 50.0, payload.FinalScore)

	_, err = adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{QuestionID: first}, student.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotInProgress)
	_, err = adaptive.Abandon(env.ctx, a.ID, student.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotInProgress)

	results, err := adaptive.Results(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	require.Len(t, results.Responses, 2)
	assert.Equal(t, 2, results.Statistics.TotalQuestions)
	assert.Equal(t, 1, results.Statistics.CorrectAnswers)
	assert.Equal(t, 43.5, results.Statistics.AverageTime)
	assert.Equal(t, 1, results.Statistics.ByTimeBand["fast"].Total)
	assert.Equal(t, 1, results.Statistics.ByTimeBand["slow"].Total)
	assert.Equal(t, 2, results.Statistics.ByQuestionType[string(models.QuestionMultipleChoice)].Total)

	stored, err := env.repo.AdaptiveQuestion().GetByID(env.ctx, nil, first)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TimesUsed)
	assert.Equal(t, 1, stored.CorrectResponses)

	analytics, err := adaptive.UpdateAnalytics(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalAssessments)
	assert.Equal(t, 1, analytics.CompletedAssessments)
	assert.Equal(t, 50.0, analytics.AverageScore)
	assert.Equal(t, 50.0, analytics.BestScore)
	assert.Equal(t, 2, analytics.TotalQuestionsAnswered)
	assert.Equal(t, 1, analytics.TotalCorrectAnswers)

	stats, err := adaptive.QuickStats(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAssessments)
	assert.Equal(t, 50.0, stats.AverageScore)
	assert.Equal(t, models.ProficiencyBeginner, stats.CurrentProficiency)
	assert.Len(t, stats.RecentAssessments, 1)

	list, err := adaptive.ListAssessments(env.ctx, student.ID, repositories.AssessmentFilters{})
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)
	list, err = adaptive.ListAssessments(env.ctx, intruder.ID, repositories.AssessmentFilters{})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
}

func TestAdaptiveService_Abandon(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Adaptive")
	env.createQuestion(t, course.ID, teacher.ID, "Only question", "yes")

	a, err := env.sm.Adaptive().CreateAssessment(env.ctx, &CreateAdaptiveAssessmentRequest{CourseID: course.ID, Title: "Drop me"}, student.ID)
	require.NoError(t, err)

	abandoned, err := env.sm.Adaptive().Abandon(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentAbandoned, abandoned.Status)

	_, err = env.sm.Adaptive().Start(env.ctx, a.ID, student.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotInProgress)
	assert.Empty(t, env.publisher.EventsOfType(events.TopicAssessmentCompleted))
}

func TestAdaptiveService_ImportAndExport(t *testing.T) {
	env := newTestEnv(t)
	adaptive := env.sm.Adaptive()
	teacher := env.createUser(t, models.RoleTeacher)
	course := env.createCourse(t, teacher.ID, "Imports")

	csv := strings.Join([]string{
		"course_id,question_text,question_type,difficulty_level,options,correct_answer,tags,guessing",
		fmt.Sprintf("%d,Capital of France?,multiple_choice,easy,Paris|Rome|Berlin,Paris,geo|europe,0", course.ID),
		fmt.Sprintf("%d,Largest planet?,short_answer,MEDIUM,,Jupiter,,", course.ID),
		fmt.Sprintf("%d,Missing type,,easy,,x,,", course.ID),
		"99999,Unknown course,essay,hard,,x,,",
		",,,,,,,",
	}, "\n")

	result, err := adaptive.ImportQuestions(env.ctx, "bank.csv", strings.NewReader(csv), teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "row 4")
	assert.Contains(t, result.Errors[1], "course 99999 not found")

	_, err = adaptive.ImportQuestions(env.ctx, "bank.txt", strings.NewReader(csv), teacher.ID)
	assert.ErrorIs(t, err, ErrUnsupportedFileFormat)

	questions, err := adaptive.ListQuestions(env.ctx, repositories.AdaptiveQuestionFilters{CourseID: &course.ID})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	var buf bytes.Buffer
	count, err := adaptive.ExportQuestions(env.ctx, repositories.AdaptiveQuestionFilters{CourseID: &course.ID}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Questions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "question_text", rows[0][3])

	var paris []string
	for _, row := range rows[1:] {
		if row[3] == "Capital of France?" {
			paris = row
		}
	}
	require.NotNil(t, paris)
	assert.Equal(t, "Paris|Rome|Berlin", paris[7])
	assert.Equal(t, "0", paris[12])
}

func TestAdaptiveService_AdminViews(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)
	course := env.createCourse(t, teacher.ID, "Adaptive")
	env.createQuestion(t, course.ID, teacher.ID, "One", "1")
	env.createQuestion(t, course.ID, teacher.ID, "Two", "2")

	_, err := env.sm.Adaptive().AdminQuestions(env.ctx, teacher.ID, 1, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	page, err := env.sm.Adaptive().AdminQuestions(env.ctx, admin.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(2), page.Pagination.Total)

	analytics, err := env.sm.Adaptive().AdminAnalytics(env.ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalQuestions)
	assert.Equal(t, int64(2), analytics.QuestionsByType[string(models.QuestionMultipleChoice)])
}

func TestAdaptiveService_PoolCacheInvalidatedAfterCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnvWithCache(t, client)
	adaptive := env.sm.Adaptive()
	pools := env.repo.AdaptiveQuestion()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Cached")
	key := fmt.Sprintf("question:pool:%d:all", course.ID)

	warm := func() {
		t.Helper()
		_, err := pools.Pool(env.ctx, nil, course.ID, nil)
		require.NoError(t, err)
		require.True(t, mr.Exists(key))
	}

	q := env.createQuestion(t, course.ID, teacher.ID, "What is 3 + 3?", "6")
	warm()

	// repository writes leave the cache to the caller
	require.NoError(t, pools.UpdateStatistics(env.ctx, env.db, q))
	assert.True(t, mr.Exists(key))
	pools.InvalidatePool(env.ctx, course.ID, course.ID)
	assert.False(t, mr.Exists(key))

	warm()
	env.createQuestion(t, course.ID, teacher.ID, "What is 4 + 4?", "8")
	assert.False(t, mr.Exists(key))

	a, err := adaptive.CreateAssessment(env.ctx, &CreateAdaptiveAssessmentRequest{
		CourseID:     course.ID,
		Title:        "Cache check",
		MaxQuestions: 2,
	}, student.ID)
	require.NoError(t, err)
	started, err := adaptive.Start(env.ctx, a.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, started.Question)

	warm()
	_, err = adaptive.SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{
		QuestionID: started.Question.ID,
		UserAnswer: "wrong",
	}, student.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	pool, err := pools.Pool(env.ctx, nil, course.ID, nil)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	for _, cached := range pool {
		if cached.ID == started.Question.ID {
			assert.Equal(t, 1, cached.TimesUsed)
		}
	}
}
