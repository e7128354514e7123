package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	courseCodePrefix   = "COURSE_"
	courseCodeAttempts = 5
	defaultMaxStudents = 50
	defaultMaxPoints   = 100
)

type contentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewContentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ContentService {
	return &contentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *contentService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== COURSES =====

func (s *contentService) CreateCourse(ctx context.Context, req *CreateCourseRequest, userID string) (*models.Course, error) {
	s.logger.Info("Creating course", "instructor_id", userID, "title", req.Title)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, userID, "course", "create", models.RoleTeacher); err != nil {
		return nil, err
	}

	code, err := s.generateCourseCode(ctx)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:         req.Title,
		Description:   req.Description,
		Code:          code,
		InstructorID:  userID,
		Category:      req.Category,
		Level:         req.Level,
		DurationHours: req.DurationHours,
		MaxStudents:   req.MaxStudents,
		IsActive:      true,
		IsPublic:      true,
		Thumbnail:     req.Thumbnail,
	}
	if course.Level == "" {
		course.Level = "beginner"
	}
	if course.MaxStudents == 0 {
		course.MaxStudents = defaultMaxStudents
	}
	private := req.IsPublic != nil && !*req.IsPublic

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Course().Create(ctx, tx, course); err != nil {
			return fmt.Errorf("failed to create course: %w", err)
		}
		if !private {
			return nil
		}
		// Create reloads column defaults, so false has to be written separately
		course.IsPublic = false
		if err := s.repo.Course().Update(ctx, tx, course); err != nil {
			return fmt.Errorf("failed to update course visibility: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created", "course_id", course.ID, "code", course.Code)
	return course, nil
}

// generateCourseCode returns an unused COURSE_XXXXXXXX code
func (s *contentService) generateCourseCode(ctx context.Context) (string, error) {
	for i := 0; i < courseCodeAttempts; i++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		code := courseCodePrefix + suffix
		exists, err := s.repo.Course().ExistsByCode(ctx, nil, code)
		if err != nil {
			return "", fmt.Errorf("failed to check course code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique course code after %d attempts", courseCodeAttempts)
}

func (s *contentService) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := loadCourse(ctx, s.repo, nil, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Enrollment().CountActive(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrolledCount = count
	return course, nil
}

func (s *contentService) UpdateCourse(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error) {
	s.logger.Info("Updating course", "course_id", id, "user_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	course, err := requireCourseOwner(ctx, s.repo, id, userID, "course", "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.DurationHours != nil {
		course.DurationHours = *req.DurationHours
	}
	if req.MaxStudents != nil {
		course.MaxStudents = *req.MaxStudents
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		course.IsPublic = *req.IsPublic
	}
	if req.Thumbnail != nil {
		course.Thumbnail = *req.Thumbnail
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *contentService) DeleteCourse(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting course", "course_id", id, "user_id", userID)

	if _, err := requireCourseOwner(ctx, s.repo, id, userID, "course", "delete"); err != nil {
		return err
	}
	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// ListCourses scopes the list by role: admins see everything, teachers their own courses
// and students their active enrollments
func (s *contentService) ListCourses(ctx context.Context, userID string, page, size int) (*CourseListResponse, error) {
	role, err := getUserRole(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(page, size)
	filters := repositories.CourseFilters{Limit: size, Offset: offset, SortBy: "created_at", SortOrder: "desc"}
	switch role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		filters.InstructorID = &userID
	default:
		filters.StudentID = &userID
	}

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &CourseListResponse{Data: courses, Pagination: newPagination(page, size, total)}, nil
}

func (s *contentService) Catalog(ctx context.Context, query string, page, size int) (*CourseListResponse, error) {
	page, size, offset := normalizePage(page, size)
	courses, total, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{
		CatalogOnly: true,
		Query:       query,
		Limit:       size,
		Offset:      offset,
		SortBy:      "created_at",
		SortOrder:   "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to browse catalogue: %w", err)
	}
	return &CourseListResponse{Data: courses, Pagination: newPagination(page, size, total)}, nil
}

// ===== TOPICS =====

func (s *contentService) ListTopics(ctx context.Context, courseID uint) ([]*models.Topic, error) {
	if _, err := loadCourse(ctx, s.repo, nil, courseID); err != nil {
		return nil, err
	}
	topics, err := s.repo.Topic().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

func (s *contentService) CreateTopic(ctx context.Context, courseID uint, req *TopicRequest, userID string) (*models.Topic, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, courseID, userID, "topic", "create"); err != nil {
		return nil, err
	}

	topic := &models.Topic{
		CourseID:        courseID,
		Title:           req.Title,
		Description:     req.Description,
		OrderIndex:      req.OrderIndex,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := s.repo.Topic().Create(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	if req.IsActive != nil && !*req.IsActive {
		topic.IsActive = false
		if err := s.repo.Topic().Update(ctx, nil, topic); err != nil {
			return nil, fmt.Errorf("failed to update topic: %w", err)
		}
	}

	s.logger.Info("Topic created", "topic_id", topic.ID, "course_id", courseID)
	return topic, nil
}

func (s *contentService) UpdateTopic(ctx context.Context, id uint, req *TopicRequest, userID string) (*models.Topic, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	topic, err := loadTopic(ctx, s.repo, nil, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, topic.CourseID, userID, "topic", "update"); err != nil {
		return nil, err
	}

	topic.Title = req.Title
	topic.Description = req.Description
	topic.OrderIndex = req.OrderIndex
	topic.DurationMinutes = req.DurationMinutes
	if req.IsActive != nil {
		topic.IsActive = *req.IsActive
	}
	if err := s.repo.Topic().Update(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}
	return topic, nil
}

func (s *contentService) DeleteTopic(ctx context.Context, id uint, userID string) error {
	topic, err := loadTopic(ctx, s.repo, nil, id)
	if err != nil {
		return err
	}
	if _, err := requireCourseOwner(ctx, s.repo, topic.CourseID, userID, "topic", "delete"); err != nil {
		return err
	}
	if err := s.repo.Topic().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTopicNotFound
		}
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return nil
}

// ===== MATERIALS =====

func (s *contentService) loadMaterial(ctx context.Context, id uint) (*models.LearningMaterial, error) {
	material, err := s.repo.Material().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return material, nil
}

// requireTopicOwner checks management rights through the topic's course
func (s *contentService) requireTopicOwner(ctx context.Context, topicID uint, userID, action string) (*models.Topic, error) {
	topic, err := loadTopic(ctx, s.repo, nil, topicID)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, topic.CourseID, userID, "material", action); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *contentService) ListMaterials(ctx context.Context, topicID uint) ([]*models.LearningMaterial, error) {
	if _, err := loadTopic(ctx, s.repo, nil, topicID); err != nil {
		return nil, err
	}
	materials, err := s.repo.Material().ListByTopic(ctx, nil, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (s *contentService) CreateMaterial(ctx context.Context, topicID uint, req *MaterialRequest, userID string) (*models.LearningMaterial, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.requireTopicOwner(ctx, topicID, userID, "create"); err != nil {
		return nil, err
	}

	material := &models.LearningMaterial{
		TopicID:    topicID,
		Title:      req.Title,
		Type:       models.MaterialType(req.Type),
		Content:    req.Content,
		FileURL:    req.FileURL,
		OrderIndex: req.OrderIndex,
		IsRequired: true,
		IsActive:   true,
	}
	if err := s.repo.Material().Create(ctx, nil, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	if (req.IsRequired != nil && !*req.IsRequired) || (req.IsActive != nil && !*req.IsActive) {
		if req.IsRequired != nil {
			material.IsRequired = *req.IsRequired
		}
		if req.IsActive != nil {
			material.IsActive = *req.IsActive
		}
		if err := s.repo.Material().Update(ctx, nil, material); err != nil {
			return nil, fmt.Errorf("failed to update material: %w", err)
		}
	}

	s.logger.Info("Material created", "material_id", material.ID, "topic_id", topicID)
	return material, nil
}

func (s *contentService) UpdateMaterial(ctx context.Context, id uint, req *MaterialRequest, userID string) (*models.LearningMaterial, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	material, err := s.loadMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTopicOwner(ctx, material.TopicID, userID, "update"); err != nil {
		return nil, err
	}

	material.Title = req.Title
	material.Type = models.MaterialType(req.Type)
	material.Content = req.Content
	material.FileURL = req.FileURL
	material.OrderIndex = req.OrderIndex
	if req.IsRequired != nil {
		material.IsRequired = *req.IsRequired
	}
	if req.IsActive != nil {
		material.IsActive = *req.IsActive
	}
	if err := s.repo.Material().Update(ctx, nil, material); err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}
	return material, nil
}

func (s *contentService) DeleteMaterial(ctx context.Context, id uint, userID string) error {
	material, err := s.loadMaterial(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.requireTopicOwner(ctx, material.TopicID, userID, "delete"); err != nil {
		return err
	}
	if err := s.repo.Material().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

// ===== ASSIGNMENTS =====

func (s *contentService) loadAssignment(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

func (s *contentService) ListAssignments(ctx context.Context, courseID uint) ([]*models.Assignment, error) {
	if _, err := loadCourse(ctx, s.repo, nil, courseID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.Assignment().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (s *contentService) CreateAssignment(ctx context.Context, courseID uint, req *CreateAssignmentRequest, userID string) (*models.Assignment, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, courseID, userID, "assignment", "create"); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxPoints:   req.MaxPoints,
		IsActive:    true,
	}
	if assignment.MaxPoints == 0 {
		assignment.MaxPoints = defaultMaxPoints
	}
	if err := s.repo.Assignment().Create(ctx, nil, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info("Assignment created", "assignment_id", assignment.ID, "course_id", courseID)
	return assignment, nil
}

// SubmitAssignment stores or overwrites the student's submission until it is graded.
// Submissions after the due date are marked late.
func (s *contentService) SubmitAssignment(ctx context.Context, assignmentID uint, req *SubmissionRequest, userID string) (*models.AssignmentSubmission, error) {
	s.logger.Info("Submitting assignment", "assignment_id", assignmentID, "student_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var submission *models.AssignmentSubmission
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		assignment, err := s.loadAssignment(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if !assignment.IsActive || assignment.IsRemoved {
			return ErrAssignmentNotFound
		}

		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, tx, userID, assignment.CourseID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		existing, err := s.repo.Assignment().GetSubmission(ctx, tx, assignmentID, userID)
		switch {
		case err == nil:
			if existing.Status == models.SubmissionGraded {
				return ErrSubmissionGraded
			}
			submission = existing
		case repositories.IsNotFoundError(err):
			submission = &models.AssignmentSubmission{AssignmentID: assignmentID, StudentID: userID}
		default:
			return fmt.Errorf("failed to get submission: %w", err)
		}

		submittedAt := now()
		submission.Content = req.Content
		submission.FileURL = req.FileURL
		submission.SubmittedAt = submittedAt
		submission.Status = models.SubmissionSubmitted
		if assignment.DueDate != nil && submittedAt.After(*assignment.DueDate) {
			submission.Status = models.SubmissionLate
		}

		return s.repo.Assignment().SaveSubmission(ctx, tx, submission)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assignment submitted", "submission_id", submission.ID, "status", submission.Status)
	return submission, nil
}

// ListSubmissions returns every submission to course staff and only the caller's own to students
func (s *contentService) ListSubmissions(ctx context.Context, assignmentID uint, userID string) ([]*models.AssignmentSubmission, error) {
	assignment, err := s.loadAssignment(ctx, nil, assignmentID)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.repo, nil, assignment.CourseID)
	if err != nil {
		return nil, err
	}

	canManage, err := canManageCourse(ctx, s.repo, course, userID)
	if err != nil {
		return nil, err
	}
	if canManage {
		submissions, err := s.repo.Assignment().ListSubmissions(ctx, nil, assignmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		return submissions, nil
	}

	own, err := s.repo.Assignment().GetSubmission(ctx, nil, assignmentID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return []*models.AssignmentSubmission{}, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return []*models.AssignmentSubmission{own}, nil
}

func (s *contentService) GradeSubmission(ctx context.Context, assignmentID, submissionID uint, req *GradeSubmissionRequest, userID string) (*models.AssignmentSubmission, error) {
	s.logger.Info("Grading submission", "submission_id", submissionID, "grader_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	assignment, err := s.loadAssignment(ctx, nil, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, assignment.CourseID, userID, "submission", "grade"); err != nil {
		return nil, err
	}
	if err := validationFailure(s.validator.Business().ValidateGrade(req.Grade, assignment.MaxPoints)); err != nil {
		return nil, err
	}

	submission, err := s.repo.Assignment().GetSubmissionByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.AssignmentID != assignmentID {
		return nil, ErrSubmissionNotFound
	}

	gradedAt := now()
	grade := req.Grade
	submission.Grade = &grade
	submission.Feedback = &req.Feedback
	submission.GradedBy = &userID
	submission.GradedAt = &gradedAt
	submission.Status = models.SubmissionGraded

	if err := s.repo.Assignment().SaveSubmission(ctx, nil, submission); err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}
	return submission, nil
}

// ===== ENROLLMENT =====

func (s *contentService) Enroll(ctx context.Context, courseID uint, userID string) (*models.Enrollment, error) {
	s.logger.Info("Enrolling student", "course_id", courseID, "student_id", userID)

	role, err := getUserRole(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleStudent {
		return nil, NewPermissionError(userID, courseID, "course", "enroll", "only students can enroll")
	}

	var enrollment *models.Enrollment
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		// the course row lock keeps the capacity check and insert atomic
		course, err := s.repo.Course().GetForUpdate(ctx, tx, courseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to lock course: %w", err)
		}
		if !course.IsActive || course.IsRemoved {
			return ErrCourseInactive
		}

		existing, err := s.repo.Enrollment().Get(ctx, tx, userID, courseID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get enrollment: %w", err)
		}
		if existing != nil && existing.IsActive {
			return ErrAlreadyEnrolled
		}

		active, err := s.repo.Enrollment().CountActive(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}
		if course.MaxStudents > 0 && active >= int64(course.MaxStudents) {
			return ErrCourseFull
		}

		if existing != nil {
			existing.IsActive = true
			existing.EnrolledAt = now()
			enrollment = existing
			return s.repo.Enrollment().Update(ctx, tx, existing)
		}

		enrollment = &models.Enrollment{
			StudentID:  userID,
			CourseID:   courseID,
			EnrolledAt: now(),
			IsActive:   true,
		}
		return s.repo.Enrollment().Create(ctx, tx, enrollment)
	})
	if err != nil {
		return nil, err
	}

	payload := events.ActivityCompletedPayload{ActivityType: "enrollment", CourseID: uintPtr(courseID)}
	if err := events.Publish(ctx, s.publisher, events.TopicActivityCompleted, userID, payload); err != nil {
		s.logger.Warn("Failed to publish enrollment event", "course_id", courseID, "error", err)
	}

	s.logger.Info("Student enrolled", "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (s *contentService) Unenroll(ctx context.Context, courseID uint, userID string) error {
	s.logger.Info("Unenrolling student", "course_id", courseID, "student_id", userID)

	enrollment, err := s.repo.Enrollment().Get(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
	if !enrollment.IsActive {
		return ErrNotEnrolled
	}

	enrollment.IsActive = false
	if err := s.repo.Enrollment().Update(ctx, nil, enrollment); err != nil {
		return fmt.Errorf("failed to unenroll: %w", err)
	}
	return nil
}

func (s *contentService) CourseStudents(ctx context.Context, courseID uint, userID string) ([]*models.Enrollment, error) {
	if _, err := requireCourseOwner(ctx, s.repo, courseID, userID, "course", "list students"); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.Enrollment().ListStudents(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return enrollments, nil
}
