package repositories

import (
	"time"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role   *models.UserRole `json:"role"`
	Query  string           `json:"query"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type CourseFilters struct {
	InstructorID *string `json:"instructor_id"`
	StudentID    *string `json:"student_id"` // active enrollments of this student
	CatalogOnly  bool    `json:"catalog_only"`
	Category     *string `json:"category"`
	Query        string  `json:"query"`
	Limit        int     `json:"limit"`
	Offset       int     `json:"offset"`
	SortBy       string  `json:"sort_by"`
	SortOrder    string  `json:"sort_order"`
}

type AdaptiveQuestionFilters struct {
	CourseID     *uint                   `json:"course_id"`
	TopicID      *uint                   `json:"topic_id"`
	Difficulty   *models.DifficultyLevel `json:"difficulty"`
	QuestionType *models.QuestionType    `json:"question_type"`
	ActiveOnly   bool                    `json:"active_only"`
	Limit        int                     `json:"limit"`
	Offset       int                     `json:"offset"`
}

type AssessmentFilters struct {
	UserID   *string                  `json:"user_id"`
	CourseID *uint                    `json:"course_id"`
	Status   *models.AssessmentStatus `json:"status"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

type NotificationFilters struct {
	UnreadOnly bool      `json:"unread_only"`
	Now        time.Time `json:"-"`
	Limit      int       `json:"limit"`
}

// ===== SHARED STATISTICS STRUCTS =====

type AdaptiveStats struct {
	TotalQuestions       int64                            `json:"total_questions"`
	TotalAssessments     int64                            `json:"total_assessments"`
	CompletedAssessments int64                            `json:"completed_assessments"`
	TotalResponses       int64                            `json:"total_responses"`
	AverageFinalScore    float64                          `json:"average_final_score"`
	QuestionsByType      map[models.QuestionType]int64    `json:"questions_by_type"`
	QuestionsByDiff      map[models.DifficultyLevel]int64 `json:"questions_by_difficulty"`
}

type GradingStats struct {
	TotalGraded       int64             `json:"total_graded"`
	PendingReviews    int64             `json:"pending_reviews"`
	AverageConfidence float64           `json:"average_confidence"`
	ByModel           []ModelGradeStats `json:"by_model"`
}

type ModelGradeStats struct {
	ModelID           uint    `json:"model_id"`
	ModelName         string  `json:"model_name"`
	Count             int64   `json:"count"`
	AverageConfidence float64 `json:"average_confidence"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CourseCount struct {
	CourseID uint  `json:"course_id"`
	Count    int64 `json:"count"`
}
