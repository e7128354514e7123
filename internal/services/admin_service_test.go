package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

func pendingCourses(t *testing.T, env *testEnv, adminID string) []*models.Course {
	t.Helper()
	out, err := env.sm.Admin().Pending(env.ctx, repositories.ContentCourse, adminID)
	require.NoError(t, err)
	courses, ok := out.(*[]*models.Course)
	require.True(t, ok, "unexpected queue type %T", out)
	return *courses
}

func TestAdminService_Moderation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.sm.Admin()
	moderator := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)

	first := env.createCourse(t, teacher.ID, "First")
	second := env.createCourse(t, teacher.ID, "Second")
	topic := env.createTopic(t, first.ID, teacher.ID, "Intro")
	material, err := env.sm.Content().CreateMaterial(env.ctx, topic.ID, &MaterialRequest{Title: "Slides", Type: "presentation"}, teacher.ID)
	require.NoError(t, err)

	_, err = admin.Pending(env.ctx, repositories.ContentCourse, teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = admin.Pending(env.ctx, "quiz", moderator.ID)
	assert.ErrorIs(t, err, ErrInvalidContentType)
	assert.Len(t, pendingCourses(t, env, moderator.ID), 2)

	require.NoError(t, admin.Approve(env.ctx, repositories.ContentCourse, first.ID, moderator.ID))
	require.NoError(t, admin.Reject(env.ctx, repositories.ContentCourse, second.ID, "", moderator.ID))
	assert.Empty(t, pendingCourses(t, env, moderator.ID))

	approved, err := env.repo.Course().GetByID(env.ctx, nil, first.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	rejected, err := env.repo.Course().GetByID(env.ctx, nil, second.ID)
	require.NoError(t, err)
	assert.True(t, rejected.IsRejected)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, defaultRejectionReason, *rejected.RejectionReason)

	assert.ErrorIs(t, admin.Approve(env.ctx, repositories.ContentCourse, 9999, moderator.ID), ErrCourseNotFound)
	assert.ErrorIs(t, admin.Approve(env.ctx, repositories.ContentMaterial, 9999, moderator.ID), ErrMaterialNotFound)
	assert.ErrorIs(t, admin.Approve(env.ctx, repositories.ContentCourse, first.ID, teacher.ID), ErrForbidden)

	report := &ReportRequest{Reason: "Broken slides"}
	assert.ErrorIs(t, admin.Report(env.ctx, repositories.ContentAssignment, 1, report, student.ID), ErrInvalidContentType)
	assert.ErrorIs(t, admin.Report(env.ctx, repositories.ContentMaterial, material.ID, &ReportRequest{}, student.ID), ErrValidationFailed)
	assert.ErrorIs(t, admin.Report(env.ctx, repositories.ContentCourse, 9999, report, student.ID), ErrCourseNotFound)
	require.NoError(t, admin.Report(env.ctx, repositories.ContentMaterial, material.ID, report, student.ID))

	out, err := admin.Reported(env.ctx, repositories.ContentMaterial, moderator.ID)
	require.NoError(t, err)
	reported := *out.(*[]*models.LearningMaterial)
	require.Len(t, reported, 1)
	assert.Equal(t, material.ID, reported[0].ID)
	require.NotNil(t, reported[0].ReportReason)
	assert.Equal(t, "Broken slides", *reported[0].ReportReason)

	assert.ErrorIs(t, admin.ResolveReport(env.ctx, repositories.ContentAssignment, 1, "", moderator.ID), ErrInvalidContentType)
	require.NoError(t, admin.ResolveReport(env.ctx, repositories.ContentMaterial, material.ID, "", moderator.ID))
	out, err = admin.Reported(env.ctx, repositories.ContentMaterial, moderator.ID)
	require.NoError(t, err)
	assert.Empty(t, *out.(*[]*models.LearningMaterial))

	require.NoError(t, admin.Remove(env.ctx, repositories.ContentCourse, first.ID, "", moderator.ID))
	removed, err := env.repo.Course().GetByID(env.ctx, nil, first.ID)
	require.NoError(t, err)
	assert.True(t, removed.IsRemoved)
	require.NotNil(t, removed.RemovalReason)
	assert.Equal(t, defaultRemovalReason, *removed.RemovalReason)

	catalog, err := env.repo.Course().ListAvailable(env.ctx, nil, nil)
	require.NoError(t, err)
	for _, c := range catalog {
		assert.NotEqual(t, first.ID, c.ID)
	}
}

func TestAdminService_BulkUploadUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.sm.Admin()
	moderator := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)

	csv := strings.Join([]string{
		"username,email,role,first_name,last_name",
		"alice_b,alice@example.com,teacher,Alice,B",
		",,,,",
		"bob,not-an-email,student,Bob,C",
		"alice_again,ALICE@example.com,student,Alice,Again",
		"alice_b,other@example.com,student,Other,D",
		"carol,carol@example.com,superuser,Carol,E",
	}, "\n")

	_, err := admin.BulkUploadUsers(env.ctx, "users.csv", strings.NewReader(csv), teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = admin.BulkUploadUsers(env.ctx, "users.pdf", strings.NewReader(csv), moderator.ID)
	assert.ErrorIs(t, err, ErrUnsupportedFileFormat)

	result, err := admin.BulkUploadUsers(env.ctx, "users.csv", strings.NewReader(csv), moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.True(t, strings.HasPrefix(result.Errors[0], "row 4:"), result.Errors[0])
	assert.True(t, strings.HasPrefix(result.Errors[1], "row 6:"), result.Errors[1])

	alice, err := env.repo.User().GetByEmail(env.ctx, nil, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, alice.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte(bulkDefaultPassword)))

	carol, err := env.repo.User().GetByEmail(env.ctx, nil, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, carol.Role)

	again, err := admin.BulkUploadUsers(env.ctx, "users.csv", strings.NewReader(csv), moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
}

func TestAdminService_SystemAnalytics(t *testing.T) {
	env := newTestEnv(t)
	admin := env.sm.Admin()
	moderator := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)
	alice := env.createUser(t, models.RoleStudent)
	bob := env.createUser(t, models.RoleStudent)

	course := env.createCourse(t, teacher.ID, "Analytics")
	env.enroll(t, course.ID, alice.ID)
	env.enroll(t, course.ID, bob.ID)
	_, err := env.sm.Progress().StartSession(env.ctx, &StartSessionRequest{CourseID: &course.ID}, alice.ID, "agent", "127.0.0.1")
	require.NoError(t, err)

	_, err = admin.SystemAnalytics(env.ctx, teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	stats, err := admin.SystemAnalytics(env.ctx, moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.UsersByRole[models.RoleStudent])
	assert.Equal(t, int64(1), stats.UsersByRole[models.RoleAdmin])
	assert.Equal(t, int64(1), stats.TotalCourses)
	assert.Equal(t, int64(2), stats.TotalEnrollments)
	assert.Equal(t, int64(0), stats.TotalAssignments)
	assert.Equal(t, int64(1), stats.RecentSessions)
	require.Len(t, stats.RegistrationTrend, trendDays)
	require.Len(t, stats.EnrollmentTrend, trendDays)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), stats.RegistrationTrend[0].Date)

	assert.ErrorIs(t, admin.ExportAnalytics(env.ctx, teacher.ID, &bytes.Buffer{}), ErrForbidden)

	var buf bytes.Buffer
	require.NoError(t, admin.ExportAnalytics(env.ctx, moderator.ID, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"metric", "value"}, summary[0])
	assert.Equal(t, []string{"total_users", "4"}, summary[1])
	assert.Equal(t, []string{"sessions_last_30_days", "1"}, summary[6])

	roles, err := f.GetRows("Users by Role")
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, []string{"admin", "1"}, roles[1])
	assert.Equal(t, []string{"student", "2"}, roles[2])

	trends, err := f.GetRows("Trends")
	require.NoError(t, err)
	assert.Len(t, trends, trendDays+1)
}

func TestAdminService_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnvWithCache(t, client)
	admin := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)

	_, err := env.sm.Chatbot().CreateFAQ(env.ctx, &FAQRequest{Question: "Q?", Answer: "A."}, admin.ID)
	require.NoError(t, err)
	_, err = env.sm.Chatbot().ListFAQs(env.ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("faq:list"))

	_, err = env.sm.Admin().CacheStats(env.ctx, teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.sm.Admin().ClearCache(env.ctx, teacher.ID), ErrForbidden)

	stats, err := env.sm.Admin().CacheStats(env.ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, true, stats["cache_enabled"])
	assert.Equal(t, 1, stats["faq:count"])
	assert.Equal(t, stats, env.sm.CacheStats(env.ctx))

	require.NoError(t, env.sm.Admin().ClearCache(env.ctx, admin.ID))
	assert.False(t, mr.Exists("faq:list"))

	noCache := newTestEnv(t)
	assert.Equal(t, map[string]interface{}{"cache_enabled": false}, noCache.sm.CacheStats(noCache.ctx))
}
