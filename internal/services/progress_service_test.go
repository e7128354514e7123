package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestProgressService_Sessions(t *testing.T) {
	env := newTestEnv(t)
	progress := env.sm.Progress()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	other := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Sessions")

	_, err := progress.StartSession(env.ctx, &StartSessionRequest{CourseID: ptr(uint(9999))}, student.ID, "agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = progress.StartSession(env.ctx, &StartSessionRequest{SessionType: "nap"}, student.ID, "agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrValidationFailed)

	active, err := progress.ActiveSession(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	session, err := progress.StartSession(env.ctx, &StartSessionRequest{CourseID: &course.ID, DeviceType: "desktop"}, student.ID, strings.Repeat("x", 150), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStudy, session.SessionType)
	assert.Len(t, session.Browser, 100)
	assert.Equal(t, "10.0.0.1", session.IPAddress)
	assert.True(t, session.IsActive)

	active, err = progress.ActiveSession(env.ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)

	_, err = progress.EndSession(env.ctx, session.ID, other.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ended, err := progress.EndSession(env.ctx, session.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	assert.True(t, ended.WasCompleted)
	require.NotNil(t, ended.SessionEnd)

	_, err = progress.EndSession(env.ctx, session.ID, student.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	active, err = progress.ActiveSession(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestProgressService_ActivitiesDriveProgress(t *testing.T) {
	env := newTestEnv(t)
	progress := env.sm.Progress()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	other := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Progress")
	topic := env.createTopic(t, course.ID, teacher.ID, "Basics")

	var materials []*models.LearningMaterial
	for _, title := range []string{"Intro video", "Reading"} {
		m, err := env.sm.Content().CreateMaterial(env.ctx, topic.ID, &MaterialRequest{Title: title, Type: "video"}, teacher.ID)
		require.NoError(t, err)
		materials = append(materials, m)
	}

	fresh, err := progress.CourseProgress(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalTopics)
	assert.Equal(t, 2, fresh.TotalMaterials)
	assert.Equal(t, 0.0, fresh.OverallProgress)

	first, err := progress.StartActivity(env.ctx, &StartActivityRequest{
		CourseID:     &course.ID,
		TopicID:      &topic.ID,
		MaterialID:   &materials[0].ID,
		ActivityType: models.ActivityTypeMaterialView,
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStarted, first.Status)
	assert.NotZero(t, first.SessionID)

	_, err = progress.CompleteActivity(env.ctx, first.ID, &CompleteActivityRequest{}, other.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	done, err := progress.CompleteActivity(env.ctx, first.ID, &CompleteActivityRequest{}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityCompleted, done.Status)
	assert.Equal(t, 100.0, done.ProgressPercentage)

	published := env.publisher.EventsOfType(events.TopicActivityCompleted)
	require.Len(t, published, 1)
	var payload events.ActivityCompletedPayload
	require.NoError(t, published[0].Decode(&payload))
	assert.Equal(t, first.ID, payload.ActivityID)

	topicProgress, err := progress.TopicProgress(env.ctx, topic.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, topicProgress.ProgressPercentage)
	assert.False(t, topicProgress.IsCompleted)

	courseProgress, err := progress.CourseProgress(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, courseProgress.OverallProgress)

	second, err := progress.StartActivity(env.ctx, &StartActivityRequest{
		CourseID:     &course.ID,
		TopicID:      &topic.ID,
		MaterialID:   &materials[1].ID,
		ActivityType: models.ActivityTypeMaterialView,
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	partial, err := progress.UpdateActivity(env.ctx, second.ID, &UpdateActivityRequest{ProgressPercentage: 40}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityInProgress, partial.Status)

	finished, err := progress.UpdateActivity(env.ctx, second.ID, &UpdateActivityRequest{ProgressPercentage: 250, Complete: true}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, finished.ProgressPercentage)
	assert.Equal(t, models.ActivityCompleted, finished.Status)

	topicProgress, err = progress.TopicProgress(env.ctx, topic.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, topicProgress.IsCompleted)

	courseProgress, err = progress.CourseProgress(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, courseProgress.OverallProgress)
	assert.NotNil(t, courseProgress.CompletionDate)

	quiz, err := progress.StartActivity(env.ctx, &StartActivityRequest{
		CourseID:     &course.ID,
		TopicID:      &topic.ID,
		ActivityType: models.ActivityTypeQuizTake,
	}, student.ID)
	require.NoError(t, err)
	_, err = progress.CompleteActivity(env.ctx, quiz.ID, &CompleteActivityRequest{Score: ptr(8.0), MaxScore: ptr(10.0)}, student.ID)
	require.NoError(t, err)

	courseProgress, err = progress.CourseProgress(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, courseProgress.QuizzesTaken)
	assert.Equal(t, 80.0, courseProgress.AverageQuizScore)

	topicProgress, err = progress.TopicProgress(env.ctx, topic.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, topicProgress.AverageQuizScore)

	overview, err := progress.Overview(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.TotalCourses)
	assert.Equal(t, 1, overview.CompletedCourses)
	assert.Equal(t, 100.0, overview.AverageProgress)
	assert.Len(t, overview.RecentActivities, 3)
	require.NotNil(t, overview.Streak)
	assert.Equal(t, 1, overview.Streak.CurrentStreak)

	daily, err := progress.Analytics(env.ctx, student.ID, models.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, daily.SessionsCount)
	assert.Equal(t, 3, daily.ActivitiesCompleted)
	assert.Equal(t, 2, daily.MaterialsAccessed)
	assert.Equal(t, 1, daily.QuizzesTaken)
	assert.Equal(t, 8.0, daily.AverageScore)

	again, err := progress.Analytics(env.ctx, student.ID, models.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, daily.ID, again.ID)

	_, err = progress.Analytics(env.ctx, student.ID, "yearly")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestProgressService_Streaks(t *testing.T) {
	env := newTestEnv(t)
	progress := env.sm.Progress()
	student := env.createUser(t, models.RoleStudent)

	overview, err := progress.Overview(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, overview.Streak.CurrentStreak)
	assert.Empty(t, overview.Courses)

	today := time.Now().UTC()
	streak, err := progress.RecordStudyDay(env.ctx, student.ID, today.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak)

	event, err := events.NewEvent(events.TopicQuizCompleted, student.ID, events.QuizCompletedPayload{QuizID: 1})
	require.NoError(t, err)
	require.NoError(t, progress.HandleStudyEvent(env.ctx, event))
	require.NoError(t, progress.HandleStudyEvent(env.ctx, event))

	streak, err = progress.RecordStudyDay(env.ctx, student.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
	assert.Len(t, streak.Dates(), 2)

	anonymous := &events.Event{Type: events.TopicQuizCompleted}
	assert.NoError(t, progress.HandleStudyEvent(env.ctx, anonymous))
}

func TestPeriodBounds(t *testing.T) {
	wednesday := time.Date(2024, time.May, 15, 13, 45, 0, 0, time.UTC)

	start, last, end := periodBounds(models.PeriodDaily, wednesday)
	assert.Equal(t, time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start, last)
	assert.Equal(t, start.AddDate(0, 0, 1), end)

	start, last, end = periodBounds(models.PeriodWeekly, wednesday)
	assert.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.May, 19, 0, 0, 0, 0, time.UTC), last)
	assert.Equal(t, time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC), end)

	sunday := time.Date(2024, time.May, 19, 23, 0, 0, 0, time.UTC)
	start, _, _ = periodBounds(models.PeriodWeekly, sunday)
	assert.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), start)

	start, last, end = periodBounds(models.PeriodMonthly, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), last)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), end)
}
