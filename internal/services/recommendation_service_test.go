package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

func TestContentScore(t *testing.T) {
	course := &models.Course{Title: "Go Basics", Description: "Learn Go from scratch", Category: "programming", Level: "beginner"}

	pref := defaultPreference("u1")
	assert.Equal(t, 0.0, contentScore(course, pref))

	pref.PreferredDifficulty = "beginner"
	assert.Equal(t, 0.3, contentScore(course, pref))

	pref.SubjectInterests = toJSON([]string{"Programming", "  "})
	assert.InDelta(t, 0.7, contentScore(course, pref), 1e-9)

	pref.SubjectInterests = toJSON([]string{"go", "basics"})
	pref.TopicInterests = toJSON([]string{"scratch"})
	assert.Equal(t, 1.0, contentScore(course, pref))
}

func TestRecommendationAlgorithms(t *testing.T) {
	courses := []*models.Course{
		{ID: 1, Title: "Algebra I", Level: "beginner"},
		{ID: 2, Title: "Geometry", Level: "intermediate"},
		{ID: 3, Title: "Linear Algebra", Level: "advanced"},
	}
	pref := defaultPreference("u1")
	pref.PreferredDifficulty = "advanced"
	pref.SubjectInterests = toJSON([]string{"algebra"})

	content := contentBased(courses, pref, 10)
	require.Len(t, content, 2)
	assert.Equal(t, uint(3), content[0].courseID)
	assert.Equal(t, uint(1), content[1].courseID)
	assert.Equal(t, models.RecommendContentBased, content[0].kind)

	counts := []repositories.CourseCount{{CourseID: 9, Count: 10}, {CourseID: 2, Count: 4}, {CourseID: 3, Count: 2}}
	available := map[uint]bool{2: true, 3: true}
	collab := collaborative(counts, available, 10)
	require.Len(t, collab, 2)
	assert.Equal(t, 1.0, collab[0].score)
	assert.Equal(t, 0.5, collab[1].score)
	assert.Equal(t, "Popular with 4 learners who share your courses", collab[0].reasoning)
	assert.Nil(t, collaborative(counts, map[uint]bool{}, 10))

	gaps := gapFilling(courses, []string{"Algebra", ""}, 1)
	require.Len(t, gaps, 1)
	assert.Equal(t, gapFillingScore, gaps[0].score)
	assert.Equal(t, "Recommended to improve Algebra skills", gaps[0].reasoning)

	merged := hybrid(10, content, collab, gaps)
	require.Len(t, merged, 3)
	assert.Equal(t, uint(2), merged[0].courseID)
	assert.Equal(t, models.RecommendCollaborative, merged[0].kind)
	seen := map[uint]int{}
	for _, c := range merged {
		seen[c.courseID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "course %d", id)
	}
	assert.Len(t, hybrid(1, content, collab), 1)

	assert.Equal(t, defaultRecommendationLimit, clampRecommendationLimit(0))
	assert.Equal(t, maxRecommendationLimit, clampRecommendationLimit(500))
	assert.Equal(t, 7, clampRecommendationLimit(7))
}

func TestRecommendationService_Preferences(t *testing.T) {
	env := newTestEnv(t)
	recs := env.sm.Recommendation()
	student := env.createUser(t, models.RoleStudent)

	pref, err := recs.GetPreferences(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "intermediate", pref.PreferredDifficulty)
	assert.Equal(t, 30, pref.SessionDurationMinutes)
	assert.NotZero(t, pref.ID)

	_, err = recs.UpdatePreferences(env.ctx, &UpdatePreferenceRequest{PreferredDifficulty: ptr("expert")}, student.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	updated, err := recs.UpdatePreferences(env.ctx, &UpdatePreferenceRequest{
		PreferredDifficulty: ptr("advanced"),
		SubjectInterests:    []string{"rust"},
		PushNotifications:   ptr(false),
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, pref.ID, updated.ID)
	assert.Equal(t, "advanced", updated.PreferredDifficulty)
	assert.Equal(t, []string{"rust"}, stringList(updated.SubjectInterests))
	assert.False(t, updated.PushNotifications)
	assert.True(t, updated.EmailNotifications)

	// first write without a prior GET still keeps false flags
	fresh := env.createUser(t, models.RoleStudent)
	_, err = recs.UpdatePreferences(env.ctx, &UpdatePreferenceRequest{EmailNotifications: ptr(false)}, fresh.ID)
	require.NoError(t, err)
	reloaded, err := recs.GetPreferences(env.ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.EmailNotifications)
	assert.True(t, reloaded.PushNotifications)
}

func TestRecommendationService_GenerateAndFeedback(t *testing.T) {
	env := newTestEnv(t)
	recs := env.sm.Recommendation()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	peer := env.createUser(t, models.RoleStudent)

	goBasics := env.createCourse(t, teacher.ID, "Go Basics")
	cooking := env.createCourse(t, teacher.ID, "Cooking 101")
	rust, err := env.sm.Content().CreateCourse(env.ctx, &CreateCourseRequest{Title: "Advanced Rust", Level: "advanced"}, teacher.ID)
	require.NoError(t, err)

	env.enroll(t, goBasics.ID, student.ID)
	env.enroll(t, goBasics.ID, peer.ID)
	env.enroll(t, cooking.ID, peer.ID)

	_, err = recs.UpdatePreferences(env.ctx, &UpdatePreferenceRequest{
		PreferredDifficulty: ptr("advanced"),
		SubjectInterests:    []string{"rust"},
	}, student.ID)
	require.NoError(t, err)

	_, err = recs.Generate(env.ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrUserNotFound)

	generated, err := recs.Generate(env.ctx, student.ID, 0)
	require.NoError(t, err)
	require.Len(t, generated, 2)
	assert.Equal(t, cooking.ID, generated[0].ContentID)
	assert.Equal(t, models.RecommendCollaborative, generated[0].RecommendationType)
	assert.Equal(t, 1.0, generated[0].ConfidenceScore)
	assert.Equal(t, rust.ID, generated[1].ContentID)
	assert.Equal(t, models.RecommendContentBased, generated[1].RecommendationType)
	assert.InDelta(t, 0.7, generated[1].ConfidenceScore, 1e-9)
	for _, r := range generated {
		assert.Equal(t, "course", r.ContentType)
		assert.Equal(t, 1, r.Priority)
		require.NotNil(t, r.ExpiresAt)
	}

	_, err = recs.Generate(env.ctx, student.ID, 0)
	require.NoError(t, err)
	active, err := recs.ListActive(env.ctx, student.ID, 0)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, cooking.ID, active[0].ContentID)
	assert.NotEqual(t, generated[0].ID, active[0].ID)

	_, err = recs.MarkViewed(env.ctx, active[0].ID, peer.ID)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
	_, err = recs.MarkViewed(env.ctx, generated[0].ID+100, student.ID)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)

	viewed, err := recs.MarkViewed(env.ctx, active[0].ID, student.ID)
	require.NoError(t, err)
	require.True(t, viewed.IsViewed)
	firstView := *viewed.ViewedAt
	viewed, err = recs.MarkViewed(env.ctx, active[0].ID, student.ID)
	require.NoError(t, err)
	assert.True(t, firstView.Equal(*viewed.ViewedAt))

	clicked, err := recs.MarkClicked(env.ctx, active[0].ID, student.ID)
	require.NoError(t, err)
	assert.True(t, clicked.IsClicked)
	completed, err := recs.MarkCompleted(env.ctx, active[0].ID, student.ID)
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted)
	assert.True(t, completed.IsViewed)
	assert.NotNil(t, completed.CompletedAt)
}

func TestRecommendationService_GapFillingFromPattern(t *testing.T) {
	env := newTestEnv(t)
	recs := env.sm.Recommendation()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)

	algorithms := env.createCourse(t, teacher.ID, "Algorithms")
	question := env.createQuestion(t, algorithms.ID, teacher.ID, "Complexity of binary search?", "O(log n)")

	a, err := env.sm.Adaptive().CreateAssessment(env.ctx, &CreateAdaptiveAssessmentRequest{
		CourseID:     algorithms.ID,
		Title:        "Warmup",
		MaxQuestions: 1,
	}, student.ID)
	require.NoError(t, err)
	_, err = env.sm.Adaptive().SubmitAnswer(env.ctx, a.ID, &SubmitAdaptiveAnswerRequest{
		QuestionID:   question.ID,
		UserAnswer:   "O(n)",
		ResponseTime: 20,
	}, student.ID)
	require.NoError(t, err)

	pattern, err := recs.RefreshPattern(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithms"}, stringList(pattern.WeakSubjects))
	assert.Equal(t, 0.0, pattern.CompletionRate)
	assert.False(t, pattern.LastAnalyzed.IsZero())

	again, err := recs.RefreshPattern(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, pattern.ID, again.ID)

	generated, err := recs.Generate(env.ctx, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.Equal(t, algorithms.ID, generated[0].ContentID)
	assert.Equal(t, models.RecommendGapFilling, generated[0].RecommendationType)
	assert.Equal(t, gapFillingScore, generated[0].ConfidenceScore)
	assert.Equal(t, "Recommended to improve Algorithms skills", generated[0].Reasoning)
}
