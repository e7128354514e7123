package models

import (
	"time"

	"gorm.io/datatypes"
)

type RecommendationType string

const (
	RecommendContentBased  RecommendationType = "content_based"
	RecommendCollaborative RecommendationType = "collaborative"
	RecommendGapFilling    RecommendationType = "gap_filling"
)

type UserPreference struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:36"`

	PreferredDifficulty  string `json:"preferred_difficulty" gorm:"size:20;default:intermediate"`
	LearningStyle        string `json:"learning_style" gorm:"size:20"`
	PreferredContentType string `json:"preferred_content_type" gorm:"size:20"`

	SubjectInterests datatypes.JSON `json:"subject_interests"` // []string
	TopicInterests   datatypes.JSON `json:"topic_interests"`   // []string

	PreferredStudyTime     string `json:"preferred_study_time" gorm:"size:20"`
	SessionDurationMinutes int    `json:"session_duration_minutes" gorm:"default:30"`
	DevicePreference       string `json:"device_preference" gorm:"size:20"`

	EmailNotifications      bool   `json:"email_notifications" gorm:"default:true"`
	PushNotifications       bool   `json:"push_notifications" gorm:"default:true"`
	RecommendationFrequency string `json:"recommendation_frequency" gorm:"size:20;default:weekly"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

type LearningPattern struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:36"`

	AverageSessionDuration float64 `json:"average_session_duration"`
	AverageScore           float64 `json:"average_score"`
	CompletionRate         float64 `json:"completion_rate"`
	ActivitiesPerWeek      float64 `json:"activities_per_week"`

	WeakSubjects   datatypes.JSON `json:"weak_subjects"`   // []string
	MissedConcepts datatypes.JSON `json:"missed_concepts"` // []string

	LastAnalyzed time.Time `json:"last_analyzed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LearningPattern) TableName() string {
	return "learning_patterns"
}

type UserRecommendation struct {
	ID                 uint               `json:"id" gorm:"primaryKey"`
	UserID             string             `json:"user_id" gorm:"not null;size:36;index"`
	ContentID          uint               `json:"content_id" gorm:"not null"`
	ContentType        string             `json:"content_type" gorm:"size:20;not null"`
	RecommendationType RecommendationType `json:"recommendation_type" gorm:"size:20;not null"`
	ConfidenceScore    float64            `json:"confidence_score"`
	Reasoning          string             `json:"reasoning" gorm:"type:text"`
	Priority           int                `json:"priority" gorm:"default:0"`

	IsViewed    bool       `json:"is_viewed" gorm:"default:false"`
	ViewedAt    *time.Time `json:"viewed_at"`
	IsClicked   bool       `json:"is_clicked" gorm:"default:false"`
	ClickedAt   *time.Time `json:"clicked_at"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`

	ExpiresAt *time.Time `json:"expires_at"`
	IsActive  bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time  `json:"created_at"`
}

func (UserRecommendation) TableName() string {
	return "user_recommendations"
}
