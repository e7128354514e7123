package models

import (
	"time"

	"gorm.io/datatypes"
)

type GradingModelType string

const (
	GradingModelHeuristic GradingModelType = "heuristic"
	GradingModelLLM       GradingModelType = "llm"
)

type GradingType string

const (
	GradingEssay       GradingType = "essay"
	GradingShortAnswer GradingType = "short_answer"
	GradingCode        GradingType = "code"
	GradingOpenEnded   GradingType = "open_ended"
)

type GradingModel struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Name        string           `json:"name" gorm:"not null;size:100"`
	ModelType   GradingModelType `json:"model_type" gorm:"size:20;not null"`
	GradingType GradingType      `json:"grading_type" gorm:"size:20;not null;index"`
	Config      datatypes.JSON   `json:"config"`
	Version     string           `json:"version" gorm:"size:20;default:1.0"`
	IsActive    bool             `json:"is_active" gorm:"default:true;index"`

	// Accuracy metrics
	Accuracy  *float64 `json:"accuracy"`
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`

	CreatedBy string    `json:"created_by" gorm:"size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GradingModel) TableName() string {
	return "grading_models"
}

type GradingCriteria struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	QuestionID   uint           `json:"question_id" gorm:"not null;index"`
	CriteriaType string         `json:"criteria_type" gorm:"size:50;not null"`
	Weight       float64        `json:"weight" gorm:"default:1.0"`
	MaxScore     float64        `json:"max_score" gorm:"default:10"`
	Description  string         `json:"description" gorm:"type:text"`
	RubricPoints datatypes.JSON `json:"rubric_points"`
	Keywords     datatypes.JSON `json:"keywords"` // []string

	CreatedAt time.Time `json:"created_at"`
}

func (GradingCriteria) TableName() string {
	return "grading_criteria"
}

type AutoGradingResult struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	ResponseID      uint    `json:"response_id" gorm:"not null;index"`
	ModelID         uint    `json:"model_id" gorm:"not null;index"`
	OverallScore    float64 `json:"overall_score"`
	ConfidenceScore float64 `json:"confidence_score"`

	CriteriaScores datatypes.JSON `json:"criteria_scores"` // map[string]float64
	FeedbackText   string         `json:"feedback_text" gorm:"type:text"`
	Suggestions    datatypes.JSON `json:"suggestions"`
	Strengths      datatypes.JSON `json:"strengths"`
	Weaknesses     datatypes.JSON `json:"weaknesses"`

	ProcessingTime float64   `json:"processing_time"` // seconds
	ModelVersion   string    `json:"model_version" gorm:"size:20"`
	GradedAt       time.Time `json:"graded_at"`

	NeedsHumanReview bool   `json:"needs_human_review" gorm:"default:false;index"`
	ReviewReason     string `json:"review_reason" gorm:"size:255"`

	Reviews []HumanReview `json:"reviews,omitempty" gorm:"foreignKey:GradingResultID"`
}

func (AutoGradingResult) TableName() string {
	return "auto_grading_results"
}

type HumanReview struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	GradingResultID       uint      `json:"grading_result_id" gorm:"not null;index"`
	ReviewerID            string    `json:"reviewer_id" gorm:"not null;size:36"`
	HumanScore            float64   `json:"human_score"`
	ScoreDifference       float64   `json:"score_difference"`
	ReviewNotes           string    `json:"review_notes" gorm:"type:text"`
	AIAccuracyRating      *int      `json:"ai_accuracy_rating"`
	FeedbackQualityRating *int      `json:"feedback_quality_rating"`
	ReviewedAt            time.Time `json:"reviewed_at"`
	ReviewDuration        *float64  `json:"review_duration"`
}

func (HumanReview) TableName() string {
	return "human_reviews"
}
