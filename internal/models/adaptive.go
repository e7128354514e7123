package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
	QuestionCode           QuestionType = "code"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyExpert DifficultyLevel = "expert"
)

type AssessmentType string

const (
	AssessmentAdaptive   AssessmentType = "adaptive"
	AssessmentDiagnostic AssessmentType = "diagnostic"
	AssessmentPractice   AssessmentType = "practice"
)

type AssessmentStatus string

const (
	AssessmentInProgress AssessmentStatus = "in_progress"
	AssessmentCompleted  AssessmentStatus = "completed"
	AssessmentAbandoned  AssessmentStatus = "abandoned"
)

type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
	ProficiencyExpert       ProficiencyLevel = "expert"
)

type AdaptiveQuestion struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	TopicID         *uint           `json:"topic_id" gorm:"index"`
	CourseID        uint            `json:"course_id" gorm:"not null;index"`
	QuestionText    string          `json:"question_text" gorm:"type:text;not null"`
	QuestionType    QuestionType    `json:"question_type" gorm:"size:20;not null;index"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level" gorm:"size:20;not null;index"`
	Points          int             `json:"points" gorm:"default:1"`

	Options       datatypes.JSON `json:"options"` // []string
	CorrectAnswer string         `json:"correct_answer" gorm:"type:text;not null"`
	Explanation   string         `json:"explanation" gorm:"type:text"`

	// IRT parameters
	InitialDifficulty float64 `json:"initial_difficulty" gorm:"default:0.5"`
	Discrimination    float64 `json:"discrimination" gorm:"default:1.0"`
	Guessing          float64 `json:"guessing" gorm:"default:0.25"`

	TimeLimitSeconds   int            `json:"time_limit_seconds" gorm:"default:60"`
	Tags               datatypes.JSON `json:"tags"`
	LearningObjectives datatypes.JSON `json:"learning_objectives"`

	CreatedBy string `json:"created_by" gorm:"not null;size:36;index"`
	IsActive  bool   `json:"is_active" gorm:"default:true;index"`

	// Usage statistics
	TimesUsed           int     `json:"times_used" gorm:"default:0"`
	CorrectResponses    int     `json:"correct_responses" gorm:"default:0"`
	AverageResponseTime float64 `json:"average_response_time" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdaptiveQuestion) TableName() string {
	return "adaptive_questions"
}

type AdaptiveAssessment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         string         `json:"user_id" gorm:"not null;size:36;index"`
	CourseID       uint           `json:"course_id" gorm:"not null;index"`
	TopicID        *uint          `json:"topic_id" gorm:"index"`
	Title          string         `json:"title" gorm:"not null;size:200"`
	Description    string         `json:"description" gorm:"type:text"`
	AssessmentType AssessmentType `json:"assessment_type" gorm:"size:20;default:adaptive"`

	MaxQuestions     int `json:"max_questions" gorm:"default:20"`
	TimeLimitMinutes int `json:"time_limit_minutes" gorm:"default:30"`

	// Adaptive parameters
	InitialDifficulty        float64 `json:"initial_difficulty" gorm:"default:0.5"`
	DifficultyAdjustmentRate float64 `json:"difficulty_adjustment_rate" gorm:"default:0.1"`
	ConfidenceThreshold      float64 `json:"confidence_threshold" gorm:"default:0.8"`

	// Runtime state
	CurrentQuestionIndex int     `json:"current_question_index" gorm:"default:0"`
	CurrentDifficulty    float64 `json:"current_difficulty"`
	QuestionsAnswered    int     `json:"questions_answered" gorm:"default:0"`
	CorrectAnswers       int     `json:"correct_answers" gorm:"default:0"`

	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	TimeSpentMinutes int        `json:"time_spent_minutes" gorm:"default:0"`

	// Results
	FinalScore         *float64          `json:"final_score"`
	ProficiencyLevel   *ProficiencyLevel `json:"proficiency_level" gorm:"size:20"`
	ConfidenceInterval *float64          `json:"confidence_interval"`

	Status AssessmentStatus `json:"status" gorm:"size:20;default:in_progress;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Responses []AssessmentResponse `json:"responses,omitempty" gorm:"foreignKey:AssessmentID"`
}

func (AdaptiveAssessment) TableName() string {
	return "adaptive_assessments"
}

type AssessmentResponse struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`
	QuestionID   uint   `json:"question_id" gorm:"not null;index"`
	UserID       string `json:"user_id" gorm:"not null;size:36;index"`

	UserAnswer   string  `json:"user_answer" gorm:"type:text"`
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned float64 `json:"points_earned" gorm:"default:0"`

	QuestionStartedAt   time.Time `json:"question_started_at"`
	AnsweredAt          time.Time `json:"answered_at"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`

	QuestionDifficulty  float64 `json:"question_difficulty"`
	UserAbilityEstimate float64 `json:"user_ability_estimate"`

	FeedbackGiven    string `json:"feedback_given" gorm:"type:text"`
	ExplanationShown bool   `json:"explanation_shown" gorm:"default:false"`

	Question *AdaptiveQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}

type AdaptiveAnalytics struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:36;index"`
	CourseID *uint  `json:"course_id" gorm:"index"`
	TopicID  *uint  `json:"topic_id" gorm:"index"`

	TotalAssessments     int     `json:"total_assessments" gorm:"default:0"`
	CompletedAssessments int     `json:"completed_assessments" gorm:"default:0"`
	AverageScore         float64 `json:"average_score" gorm:"default:0"`
	BestScore            float64 `json:"best_score" gorm:"default:0"`

	TotalQuestionsAnswered int     `json:"total_questions_answered" gorm:"default:0"`
	TotalCorrectAnswers    int     `json:"total_correct_answers" gorm:"default:0"`
	TotalTimeMinutes       int     `json:"total_time_minutes" gorm:"default:0"`
	AverageTimePerQuestion float64 `json:"average_time_per_question" gorm:"default:0"`

	CurrentProficiencyLevel ProficiencyLevel `json:"current_proficiency_level" gorm:"size:20;default:beginner"`
	DifficultyProgression   datatypes.JSON   `json:"difficulty_progression"` // []float64, last 10
	StrengthAreas           datatypes.JSON   `json:"strength_areas"`
	WeakAreas               datatypes.JSON   `json:"weak_areas"`

	LastAssessmentDate  *time.Time `json:"last_assessment_date"`
	AssessmentFrequency float64    `json:"assessment_frequency" gorm:"default:0"`
	ImprovementRate     float64    `json:"improvement_rate" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdaptiveAnalytics) TableName() string {
	return "adaptive_analytics"
}
