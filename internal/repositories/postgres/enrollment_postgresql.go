package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/cache"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	cache.InvalidateCourseCache(ctx, e.cacheManager, enrollment.CourseID)
	return nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"is_active":    enrollment.IsActive,
			"enrolled_at":  enrollment.EnrolledAt,
			"progress":     enrollment.Progress,
			"grade":        enrollment.Grade,
			"completed_at": enrollment.CompletedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	cache.InvalidateCourseCache(ctx, e.cacheManager, enrollment.CourseID)
	return nil
}

func (e *EnrollmentPostgreSQL) Get(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error) {
	return e.helpers.Exists(ctx, tx, &models.Enrollment{},
		"student_id = ? AND course_id = ? AND is_active = ?", studentID, courseID, true)
}

func (e *EnrollmentPostgreSQL) CountActive(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	return e.helpers.Count(ctx, tx, &models.Enrollment{}, "course_id = ? AND is_active = ?", courseID, true)
}

// ListStudents returns the active enrollments of a course with their students
func (e *EnrollmentPostgreSQL) ListStudents(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course students: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) CourseIDsForStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]uint, error) {
	var ids []uint
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	return ids, nil
}

func (e *EnrollmentPostgreSQL) PeerCourseCounts(ctx context.Context, tx *gorm.DB, studentID string) ([]repositories.CourseCount, error) {
	const query = `
SELECT e.course_id AS course_id, COUNT(*) AS count
FROM enrollments e
WHERE e.is_active = ?
  AND e.student_id <> ?
  AND e.student_id IN (
    SELECT peer.student_id FROM enrollments peer
    WHERE peer.is_active = ?
      AND peer.course_id IN (SELECT course_id FROM enrollments WHERE student_id = ? AND is_active = ?)
  )
  AND e.course_id NOT IN (SELECT course_id FROM enrollments WHERE student_id = ?)
GROUP BY e.course_id
ORDER BY count DESC, e.course_id ASC`

	var counts []repositories.CourseCount
	err := e.getDB(tx).WithContext(ctx).
		Raw(query, true, studentID, true, studentID, true, studentID).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count peer enrollments: %w", err)
	}
	return counts, nil
}

// ===== MODERATION =====

type ModerationPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewModerationPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ModerationRepository {
	return &ModerationPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (m *ModerationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

// modelFor returns a model pointer and a slice pointer for the content type
func modelFor(contentType string) (interface{}, interface{}, error) {
	switch contentType {
	case repositories.ContentCourse:
		return &models.Course{}, &[]*models.Course{}, nil
	case repositories.ContentMaterial:
		return &models.LearningMaterial{}, &[]*models.LearningMaterial{}, nil
	case repositories.ContentAssignment:
		return &models.Assignment{}, &[]*models.Assignment{}, nil
	}
	return nil, nil, fmt.Errorf("unknown content type %q", contentType)
}

func (m *ModerationPostgreSQL) find(ctx context.Context, tx *gorm.DB, contentType string, limit int, where string, args ...interface{}) (interface{}, error) {
	model, dest, err := modelFor(contentType)
	if err != nil {
		return nil, err
	}
	query := m.getDB(tx).WithContext(ctx).Model(model).Where(where, args...).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(dest).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s moderation queue: %w", contentType, err)
	}
	return dest, nil
}

// Pending returns content that is neither approved, rejected nor removed
func (m *ModerationPostgreSQL) Pending(ctx context.Context, tx *gorm.DB, contentType string, limit int) (interface{}, error) {
	return m.find(ctx, tx, contentType, limit,
		"is_approved = ? AND is_rejected = ? AND is_removed = ?", false, false, false)
}

func (m *ModerationPostgreSQL) Reported(ctx context.Context, tx *gorm.DB, contentType string, limit int) (interface{}, error) {
	return m.find(ctx, tx, contentType, limit, "is_reported = ?", true)
}

func (m *ModerationPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, contentType string, id uint) (bool, error) {
	model, _, err := modelFor(contentType)
	if err != nil {
		return false, err
	}
	return m.helpers.Exists(ctx, tx, model, "id = ?", id)
}

// Apply writes moderation columns on one content row
func (m *ModerationPostgreSQL) Apply(ctx context.Context, tx *gorm.DB, contentType string, id uint, updates map[string]interface{}) error {
	model, _, err := modelFor(contentType)
	if err != nil {
		return err
	}

	result := m.getDB(tx).WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s moderation: %w", contentType, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update %s moderation: %w", contentType, gorm.ErrRecordNotFound)
	}

	if contentType == repositories.ContentCourse {
		cache.InvalidateCourseCache(ctx, m.cacheManager, id)
	}
	return nil
}
