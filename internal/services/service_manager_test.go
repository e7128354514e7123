package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type recordingSubscriber struct {
	handlers map[string][]events.HandlerFunc
	names    []string
}

func (r *recordingSubscriber) Subscribe(topic, name string, handler events.HandlerFunc) {
	if r.handlers == nil {
		r.handlers = make(map[string][]events.HandlerFunc)
	}
	r.handlers[topic] = append(r.handlers[topic], handler)
	r.names = append(r.names, name)
}

func TestServiceManager_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	sm := NewServiceManager(env.db, env.repo, env.logger, env.validator, testConfig(), env.publisher, nil)

	assert.Error(t, sm.HealthCheck(env.ctx))
	assert.Panics(t, func() { sm.Auth() })
	assert.Panics(t, func() { sm.RegisterConsumers(&recordingSubscriber{}) })

	require.NoError(t, sm.Initialize(env.ctx))
	require.NoError(t, sm.Initialize(env.ctx))
	assert.NoError(t, sm.HealthCheck(env.ctx))

	assert.NotNil(t, sm.Auth())
	assert.NotNil(t, sm.Content())
	assert.NotNil(t, sm.Quiz())
	assert.NotNil(t, sm.Adaptive())
	assert.NotNil(t, sm.Grading())
	assert.NotNil(t, sm.Gamification())
	assert.NotNil(t, sm.Chatbot())
	assert.NotNil(t, sm.Progress())
	assert.NotNil(t, sm.Recommendation())
	assert.NotNil(t, sm.Admin())

	require.NoError(t, sm.Shutdown(env.ctx))
	require.NoError(t, sm.Shutdown(env.ctx))
	assert.Error(t, sm.HealthCheck(env.ctx))
}

func TestServiceManager_RegisterConsumers(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, models.RoleStudent)

	sub := &recordingSubscriber{}
	env.sm.RegisterConsumers(sub)

	names := append([]string(nil), sub.names...)
	sort.Strings(names)
	assert.Equal(t, []string{
		"gamification.assessment",
		"gamification.quiz",
		"progress.activity",
		"progress.assessment",
		"progress.quiz",
	}, names)
	assert.Len(t, sub.handlers[events.TopicQuizCompleted], 2)
	assert.Len(t, sub.handlers[events.TopicAssessmentCompleted], 2)
	assert.Len(t, sub.handlers[events.TopicActivityCompleted], 1)

	event, err := events.NewEvent(events.TopicQuizCompleted, student.ID, events.QuizCompletedPayload{QuizID: 3, AttemptID: 7, Percentage: 50})
	require.NoError(t, err)
	for _, handle := range sub.handlers[events.TopicQuizCompleted] {
		require.NoError(t, handle(env.ctx, event))
	}

	points, err := env.sm.Gamification().GetPoints(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, points.TotalPoints)

	overview, err := env.sm.Progress().Overview(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.Streak.CurrentStreak)
}
