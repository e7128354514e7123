package models

import (
	"time"

	"gorm.io/gorm"
)

type MaterialType string

const (
	MaterialVideo        MaterialType = "video"
	MaterialDocument     MaterialType = "document"
	MaterialPresentation MaterialType = "presentation"
	MaterialLink         MaterialType = "link"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionLate      SubmissionStatus = "late"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Moderation holds the review state shared by moderated content
type Moderation struct {
	IsApproved bool       `json:"is_approved" gorm:"default:false;index"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:36"`
	ApprovedAt *time.Time `json:"approved_at"`

	IsRejected      bool       `json:"is_rejected" gorm:"default:false;index"`
	RejectedBy      *string    `json:"rejected_by" gorm:"size:36"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason *string    `json:"rejection_reason" gorm:"type:text"`

	IsReported       bool       `json:"is_reported" gorm:"default:false;index"`
	ReportReason     *string    `json:"report_reason" gorm:"type:text"`
	ReportResolvedBy *string    `json:"report_resolved_by" gorm:"size:36"`
	ReportResolvedAt *time.Time `json:"report_resolved_at"`
	ReportResolution *string    `json:"report_resolution" gorm:"type:text"`

	IsRemoved     bool       `json:"is_removed" gorm:"default:false;index"`
	RemovedBy     *string    `json:"removed_by" gorm:"size:36"`
	RemovedAt     *time.Time `json:"removed_at"`
	RemovalReason *string    `json:"removal_reason" gorm:"type:text"`
}

type Course struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Title         string `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Description   string `json:"description" gorm:"type:text"`
	Code          string `json:"code" gorm:"uniqueIndex;not null;size:20"`
	InstructorID  string `json:"instructor_id" gorm:"not null;index;size:36"`
	Category      string `json:"category" gorm:"size:50;index"`
	Level         string `json:"level" gorm:"size:20;default:beginner"`
	DurationHours int    `json:"duration_hours"`
	MaxStudents   int    `json:"max_students" gorm:"default:50"`
	IsActive      bool   `json:"is_active" gorm:"default:true"`
	IsPublic      bool   `json:"is_public" gorm:"default:true"`
	Thumbnail     string `json:"thumbnail" gorm:"size:255"`

	Moderation `gorm:"embedded"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed
	EnrolledCount int64 `json:"enrolled_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

type Topic struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	CourseID        uint   `json:"course_id" gorm:"not null;index"`
	Title           string `json:"title" gorm:"not null;size:200"`
	Description     string `json:"description" gorm:"type:text"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"`
	DurationMinutes int    `json:"duration_minutes"`
	IsActive        bool   `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Topic) TableName() string {
	return "topics"
}

type LearningMaterial struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	TopicID    uint         `json:"topic_id" gorm:"not null;index"`
	Title      string       `json:"title" gorm:"not null;size:200"`
	Type       MaterialType `json:"type" gorm:"not null;size:20"`
	Content    string       `json:"content" gorm:"type:text"`
	FileURL    string       `json:"file_url" gorm:"size:500"`
	OrderIndex int          `json:"order_index" gorm:"default:0"`
	IsRequired bool         `json:"is_required" gorm:"default:true"`
	IsActive   bool         `json:"is_active" gorm:"default:true"`

	Moderation `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearningMaterial) TableName() string {
	return "learning_materials"
}

type Assignment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	CourseID    uint       `json:"course_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"not null;size:200"`
	Description string     `json:"description" gorm:"type:text"`
	DueDate     *time.Time `json:"due_date"`
	MaxPoints   int        `json:"max_points" gorm:"default:100"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`

	Moderation `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

type AssignmentSubmission struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	AssignmentID uint             `json:"assignment_id" gorm:"not null;uniqueIndex:idx_submission_student"`
	StudentID    string           `json:"student_id" gorm:"not null;size:36;uniqueIndex:idx_submission_student"`
	Content      string           `json:"content" gorm:"type:text"`
	FileURL      string           `json:"file_url" gorm:"size:500"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Status       SubmissionStatus `json:"status" gorm:"size:20;default:submitted;index"`

	Grade    *float64   `json:"grade"`
	Feedback *string    `json:"feedback" gorm:"type:text"`
	GradedBy *string    `json:"graded_by" gorm:"size:36"`
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

type Enrollment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	StudentID   string     `json:"student_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_student_course"`
	CourseID    uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course;index"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	IsActive    bool       `json:"is_active" gorm:"default:true;index"`
	Progress    float64    `json:"progress" gorm:"default:0"`
	Grade       *float64   `json:"grade"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Course  *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
