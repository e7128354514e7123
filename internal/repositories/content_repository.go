package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	// GetForUpdate locks the course row where the dialect supports it
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	ListAvailable(ctx context.Context, tx *gorm.DB, excludeIDs []uint) ([]*models.Course, error)
}

type TopicRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error)
	Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Topic, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

type MaterialRepository interface {
	Create(ctx context.Context, tx *gorm.DB, material *models.LearningMaterial) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningMaterial, error)
	Update(ctx context.Context, tx *gorm.DB, material *models.LearningMaterial) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.LearningMaterial, error)
	CountByTopic(ctx context.Context, tx *gorm.DB, topicID uint) (int64, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Assignment, error)

	// Submissions
	GetSubmission(ctx context.Context, tx *gorm.DB, assignmentID uint, studentID string) (*models.AssignmentSubmission, error)
	GetSubmissionByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentSubmission, error)
	SaveSubmission(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error
	ListSubmissions(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.AssignmentSubmission, error)
	CountStudentSubmissions(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (submitted int64, graded int64, err error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Get(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (*models.Enrollment, error)
	IsEnrolled(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error)
	CountActive(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
	ListStudents(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error)
	CourseIDsForStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]uint, error)

	// PeerCourseCounts counts active enrollments of students sharing a course with studentID,
	// excluding the courses studentID is already in
	PeerCourseCounts(ctx context.Context, tx *gorm.DB, studentID string) ([]CourseCount, error)
}

// ModerationRepository works on every moderated content table
type ModerationRepository interface {
	Pending(ctx context.Context, tx *gorm.DB, contentType string, limit int) (interface{}, error)
	Reported(ctx context.Context, tx *gorm.DB, contentType string, limit int) (interface{}, error)
	Exists(ctx context.Context, tx *gorm.DB, contentType string, id uint) (bool, error)
	Apply(ctx context.Context, tx *gorm.DB, contentType string, id uint, updates map[string]interface{}) error
}

// Moderated content types
const (
	ContentCourse     = "course"
	ContentMaterial   = "material"
	ContentAssignment = "assignment"
)
