package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestContentService_CreateCourse(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)

	course := env.createCourse(t, teacher.ID, "Go Basics")
	assert.Regexp(t, `^COURSE_[0-9A-F]{8}$`, course.Code)
	assert.Equal(t, "beginner", course.Level)
	assert.True(t, course.IsActive)
	assert.False(t, course.IsApproved)

	_, err := content.CreateCourse(env.ctx, &CreateCourseRequest{Title: "Nope"}, student.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = content.CreateCourse(env.ctx, &CreateCourseRequest{}, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	private, err := content.CreateCourse(env.ctx, &CreateCourseRequest{Title: "Private", IsPublic: ptr(false)}, teacher.ID)
	require.NoError(t, err)
	assert.False(t, private.IsPublic)
	stored, err := content.GetCourse(env.ctx, private.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublic)

	var count int64
	require.NoError(t, env.db.Model(&models.Course{}).Where("id = ? AND is_public = ?", private.ID, false).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestContentService_CourseOwnership(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	owner := env.createUser(t, models.RoleTeacher)
	other := env.createUser(t, models.RoleTeacher)
	admin := env.createUser(t, models.RoleAdmin)
	course := env.createCourse(t, owner.ID, "Owned")

	_, err := content.UpdateCourse(env.ctx, course.ID, &UpdateCourseRequest{Title: ptr("Hijacked")}, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := content.UpdateCourse(env.ctx, course.ID, &UpdateCourseRequest{Title: ptr("Renamed")}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	assert.ErrorIs(t, content.DeleteCourse(env.ctx, course.ID, other.ID), ErrForbidden)
	require.NoError(t, content.DeleteCourse(env.ctx, course.ID, owner.ID))

	_, err = content.GetCourse(env.ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestContentService_ListCoursesByRole(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacherA := env.createUser(t, models.RoleTeacher)
	teacherB := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	admin := env.createUser(t, models.RoleAdmin)

	a := env.createCourse(t, teacherA.ID, "Course A")
	env.createCourse(t, teacherB.ID, "Course B")
	env.enroll(t, a.ID, student.ID)

	list, err := content.ListCourses(env.ctx, teacherA.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, a.ID, list.Data[0].ID)

	list, err = content.ListCourses(env.ctx, student.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, a.ID, list.Data[0].ID)

	list, err = content.ListCourses(env.ctx, admin.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, int64(2), list.Pagination.Total)
}

func TestContentService_CatalogSearch(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)

	env.createCourse(t, teacher.ID, "Intro to Go")
	env.createCourse(t, teacher.ID, "Linear Algebra")
	_, err := content.CreateCourse(env.ctx, &CreateCourseRequest{Title: "Hidden Go", IsPublic: ptr(false)}, teacher.ID)
	require.NoError(t, err)

	all, err := content.Catalog(env.ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)

	found, err := content.Catalog(env.ctx, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Intro to Go", found.Data[0].Title)
}

func TestContentService_TopicsAndMaterials(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)
	other := env.createUser(t, models.RoleTeacher)
	course := env.createCourse(t, teacher.ID, "Topics")

	topic := env.createTopic(t, course.ID, teacher.ID, "Variables")
	_, err := content.CreateTopic(env.ctx, course.ID, &TopicRequest{Title: "Sneaky"}, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	material, err := content.CreateMaterial(env.ctx, topic.ID, &MaterialRequest{
		Title:      "Slides",
		Type:       "presentation",
		IsRequired: ptr(false),
	}, teacher.ID)
	require.NoError(t, err)

	materials, err := content.ListMaterials(env.ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.False(t, materials[0].IsRequired)

	_, err = content.CreateMaterial(env.ctx, topic.ID, &MaterialRequest{Title: "Bad", Type: "hologram"}, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, content.DeleteMaterial(env.ctx, material.ID, teacher.ID))
	assert.ErrorIs(t, content.DeleteMaterial(env.ctx, material.ID, teacher.ID), ErrMaterialNotFound)

	require.NoError(t, content.DeleteTopic(env.ctx, topic.ID, teacher.ID))
	_, err = content.ListMaterials(env.ctx, topic.ID)
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestContentService_Enrollment(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Enrollable")

	_, err := content.Enroll(env.ctx, course.ID, teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	enrollment, err := content.Enroll(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, enrollment.IsActive)
	assert.Len(t, env.publisher.EventsOfType(events.TopicActivityCompleted), 1)

	_, err = content.Enroll(env.ctx, course.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	got, err := content.GetCourse(env.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.EnrolledCount)

	students, err := content.CourseStudents(env.ctx, course.ID, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	require.NoError(t, content.Unenroll(env.ctx, course.ID, student.ID))
	assert.ErrorIs(t, content.Unenroll(env.ctx, course.ID, student.ID), ErrNotEnrolled)

	again, err := content.Enroll(env.ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, again.ID)
}

func TestContentService_EnrollRespectsCapacity(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)
	course, err := content.CreateCourse(env.ctx, &CreateCourseRequest{Title: "Tiny", MaxStudents: 1}, teacher.ID)
	require.NoError(t, err)

	env.enroll(t, course.ID, env.createUser(t, models.RoleStudent).ID)
	_, err = content.Enroll(env.ctx, course.ID, env.createUser(t, models.RoleStudent).ID)
	assert.ErrorIs(t, err, ErrCourseFull)

	_, err = content.UpdateCourse(env.ctx, course.ID, &UpdateCourseRequest{IsActive: ptr(false), MaxStudents: ptr(10)}, teacher.ID)
	require.NoError(t, err)
	_, err = content.Enroll(env.ctx, course.ID, env.createUser(t, models.RoleStudent).ID)
	assert.ErrorIs(t, err, ErrCourseInactive)

	_, err = content.Enroll(env.ctx, 9999, env.createUser(t, models.RoleStudent).ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	locked, err := env.repo.Course().GetForUpdate(env.ctx, env.db, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, locked.MaxStudents)
}

func TestContentService_AssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	content := env.sm.Content()
	teacher := env.createUser(t, models.RoleTeacher)
	student := env.createUser(t, models.RoleStudent)
	outsider := env.createUser(t, models.RoleStudent)
	course := env.createCourse(t, teacher.ID, "Assignments")
	env.enroll(t, course.ID, student.ID)

	due := time.Now().Add(24 * time.Hour)
	assignment, err := content.CreateAssignment(env.ctx, course.ID, &CreateAssignmentRequest{
		Title:     "Essay",
		DueDate:   &due,
		MaxPoints: 50,
	}, teacher.ID)
	require.NoError(t, err)

	_, err = content.SubmitAssignment(env.ctx, assignment.ID, &SubmissionRequest{Content: "mine"}, outsider.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	first, err := content.SubmitAssignment(env.ctx, assignment.ID, &SubmissionRequest{Content: "draft"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, first.Status)

	second, err := content.SubmitAssignment(env.ctx, assignment.ID, &SubmissionRequest{Content: "final"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "final", second.Content)

	own, err := content.ListSubmissions(env.ctx, assignment.ID, student.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)
	none, err := content.ListSubmissions(env.ctx, assignment.ID, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = content.GradeSubmission(env.ctx, assignment.ID, second.ID, &GradeSubmissionRequest{Grade: 80}, teacher.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	graded, err := content.GradeSubmission(env.ctx, assignment.ID, second.ID, &GradeSubmissionRequest{Grade: 42, Feedback: "good"}, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, graded.Status)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 42.0, *graded.Grade)

	_, err = content.SubmitAssignment(env.ctx, assignment.ID, &SubmissionRequest{Content: "late edit"}, student.ID)
	assert.ErrorIs(t, err, ErrSubmissionGraded)
}
