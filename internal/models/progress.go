package models

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"
)

type SessionType string

const (
	SessionStudy      SessionType = "study"
	SessionQuiz       SessionType = "quiz"
	SessionAssignment SessionType = "assignment"
	SessionReview     SessionType = "review"
)

type ActivityStatus string

const (
	ActivityStarted    ActivityStatus = "started"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivityAbandoned  ActivityStatus = "abandoned"
)

// Activity types that feed period analytics
const (
	ActivityTypeQuizTake         = "quiz_take"
	ActivityTypeAssignmentSubmit = "assignment_submit"
	ActivityTypeMaterialView     = "material_view"
)

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

type LearningSession struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	UserID          string      `json:"user_id" gorm:"not null;size:36;index"`
	CourseID        *uint       `json:"course_id" gorm:"index"`
	TopicID         *uint       `json:"topic_id"`
	SessionStart    time.Time   `json:"session_start" gorm:"index"`
	SessionEnd      *time.Time  `json:"session_end"`
	DurationMinutes int         `json:"duration_minutes" gorm:"default:0"`
	SessionType     SessionType `json:"session_type" gorm:"size:20;default:study"`

	PagesViewed       int `json:"pages_viewed" gorm:"default:0"`
	MaterialsAccessed int `json:"materials_accessed" gorm:"default:0"`
	InteractionsCount int `json:"interactions_count" gorm:"default:0"`

	DeviceType string `json:"device_type" gorm:"size:20"`
	Browser    string `json:"browser" gorm:"size:100"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`

	IsActive     bool `json:"is_active" gorm:"default:true;index"`
	WasCompleted bool `json:"was_completed" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearningSession) TableName() string {
	return "learning_sessions"
}

type LearningActivity struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SessionID    uint   `json:"session_id" gorm:"not null;index"`
	UserID       string `json:"user_id" gorm:"not null;size:36;index"`
	CourseID     *uint  `json:"course_id" gorm:"index"`
	TopicID      *uint  `json:"topic_id" gorm:"index"`
	MaterialID   *uint  `json:"material_id" gorm:"index"`
	ActivityType string `json:"activity_type" gorm:"size:50;not null;index"`
	ActivityName string `json:"activity_name" gorm:"size:200"`
	Description  string `json:"description" gorm:"type:text"`

	StartedAt          time.Time  `json:"started_at" gorm:"index"`
	CompletedAt        *time.Time `json:"completed_at"`
	DurationSeconds    int        `json:"duration_seconds" gorm:"default:0"`
	ProgressPercentage float64    `json:"progress_percentage" gorm:"default:0"`
	Score              *float64   `json:"score"`
	MaxScore           *float64   `json:"max_score"`

	Status   ActivityStatus `json:"status" gorm:"size:20;default:started;index"`
	Metadata datatypes.JSON `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearningActivity) TableName() string {
	return "learning_activities"
}

type CourseProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_course_progress_user"`
	CourseID uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_course_progress_user"`

	OverallProgress    float64 `json:"overall_progress" gorm:"default:0"`
	TopicsCompleted    int     `json:"topics_completed" gorm:"default:0"`
	TotalTopics        int     `json:"total_topics" gorm:"default:0"`
	MaterialsCompleted int     `json:"materials_completed" gorm:"default:0"`
	TotalMaterials     int     `json:"total_materials" gorm:"default:0"`

	TotalTimeSpentMinutes int        `json:"total_time_spent_minutes" gorm:"default:0"`
	LastActivity          *time.Time `json:"last_activity"`
	FirstAccess           time.Time  `json:"first_access"`

	AverageQuizScore     float64 `json:"average_quiz_score" gorm:"default:0"`
	QuizzesTaken         int     `json:"quizzes_taken" gorm:"default:0"`
	AssignmentsSubmitted int     `json:"assignments_submitted" gorm:"default:0"`
	AssignmentsGraded    int     `json:"assignments_graded" gorm:"default:0"`

	IsActive       bool       `json:"is_active" gorm:"default:true"`
	CompletionDate *time.Time `json:"completion_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// Recalculate derives the overall progress from the topic and material counts
func (p *CourseProgress) Recalculate(now time.Time) {
	var topicPct, materialPct float64
	if p.TotalTopics > 0 {
		topicPct = float64(p.TopicsCompleted) / float64(p.TotalTopics) * 100
	}
	if p.TotalMaterials > 0 {
		materialPct = float64(p.MaterialsCompleted) / float64(p.TotalMaterials) * 100
	}
	p.OverallProgress = (topicPct + materialPct) / 2
	if p.OverallProgress >= 100 && p.CompletionDate == nil {
		p.CompletionDate = &now
	}
}

type TopicProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_topic_progress_user"`
	TopicID  uint   `json:"topic_id" gorm:"not null;uniqueIndex:idx_topic_progress_user"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`

	ProgressPercentage float64    `json:"progress_percentage" gorm:"default:0"`
	MaterialsCompleted int        `json:"materials_completed" gorm:"default:0"`
	TotalMaterials     int        `json:"total_materials" gorm:"default:0"`
	IsCompleted        bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt        *time.Time `json:"completed_at"`

	TimeSpentMinutes int        `json:"time_spent_minutes" gorm:"default:0"`
	FirstAccess      time.Time  `json:"first_access"`
	LastAccess       *time.Time `json:"last_access"`

	QuizScores       datatypes.JSON `json:"quiz_scores"` // []float64
	AverageQuizScore float64        `json:"average_quiz_score" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TopicProgress) TableName() string {
	return "topic_progress"
}

// Recalculate derives the percentage and the completion flag
func (p *TopicProgress) Recalculate(now time.Time) {
	if p.TotalMaterials > 0 {
		p.ProgressPercentage = float64(p.MaterialsCompleted) / float64(p.TotalMaterials) * 100
	} else {
		p.ProgressPercentage = 0
	}
	if p.ProgressPercentage >= 100 && !p.IsCompleted {
		p.IsCompleted = true
		p.CompletedAt = &now
	}
}

type LearningAnalytics struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"not null;size:36;index:idx_analytics_period"`
	PeriodType  PeriodType `json:"period_type" gorm:"size:10;not null;index:idx_analytics_period"`
	PeriodStart time.Time  `json:"period_start" gorm:"index:idx_analytics_period"`
	PeriodEnd   time.Time  `json:"period_end"`

	SessionsCount        int     `json:"sessions_count"`
	TotalTimeMinutes     int     `json:"total_time_minutes"`
	ActivitiesCompleted  int     `json:"activities_completed"`
	MaterialsAccessed    int     `json:"materials_accessed"`
	AverageScore         float64 `json:"average_score"`
	QuizzesTaken         int     `json:"quizzes_taken"`
	AssignmentsSubmitted int     `json:"assignments_submitted"`

	CreatedAt time.Time `json:"created_at"`
}

func (LearningAnalytics) TableName() string {
	return "learning_analytics"
}

type StudyStreak struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          string         `json:"user_id" gorm:"uniqueIndex;not null;size:36"`
	CurrentStreak   int            `json:"current_streak" gorm:"default:0"`
	LongestStreak   int            `json:"longest_streak" gorm:"default:0"`
	LastStudyDate   *time.Time     `json:"last_study_date"`
	StreakStartDate *time.Time     `json:"streak_start_date"`
	StudyDates      datatypes.JSON `json:"study_dates"` // sorted []"2006-01-02"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudyStreak) TableName() string {
	return "study_streaks"
}

const studyDateLayout = "2006-01-02"

// Dates returns the recorded study days, oldest first
func (s *StudyStreak) Dates() []string {
	var dates []string
	if len(s.StudyDates) > 0 {
		_ = json.Unmarshal(s.StudyDates, &dates)
	}
	return dates
}

// Record adds day to the study dates and recounts the streak ending today
func (s *StudyStreak) Record(day, today time.Time) {
	day = truncateDay(day)
	today = truncateDay(today)

	dates := s.Dates()
	key := day.Format(studyDateLayout)
	i := sort.SearchStrings(dates, key)
	if i == len(dates) || dates[i] != key {
		dates = append(dates, "")
		copy(dates[i+1:], dates[i:])
		dates[i] = key
	}
	raw, _ := json.Marshal(dates)
	s.StudyDates = datatypes.JSON(raw)

	streak := 0
	for j := len(dates) - 1; j >= 0; j-- {
		d, err := time.Parse(studyDateLayout, dates[j])
		if err != nil || d.After(today) {
			continue
		}
		if !d.Equal(today.AddDate(0, 0, -streak)) {
			break
		}
		streak++
	}

	s.CurrentStreak = streak
	if streak > 0 {
		start := today.AddDate(0, 0, -(streak - 1))
		s.StreakStartDate = &start
	} else {
		s.StreakStartDate = nil
	}
	if streak > s.LongestStreak {
		s.LongestStreak = streak
	}
	s.LastStudyDate = &day
}
