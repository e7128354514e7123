package models

import "time"

type QuizType string

const (
	QuizPractice QuizType = "practice"
	QuizGraded   QuizType = "graded"
	QuizSurvey   QuizType = "survey"
)

type QuizQuestionType string

const (
	QuizMultipleChoice QuizQuestionType = "multiple_choice"
	QuizTrueFalse      QuizQuestionType = "true_false"
	QuizShortAnswer    QuizQuestionType = "short_answer"
)

type Quiz struct {
	ID               uint     `json:"id" gorm:"primaryKey"`
	TopicID          uint     `json:"topic_id" gorm:"not null;index"`
	Title            string   `json:"title" gorm:"not null;size:200"`
	Description      string   `json:"description" gorm:"type:text"`
	QuizType         QuizType `json:"quiz_type" gorm:"size:20;default:practice"`
	TimeLimitMinutes *int     `json:"time_limit_minutes"`
	PassingScore     float64  `json:"passing_score" gorm:"default:70"`
	MaxAttempts      int      `json:"max_attempts" gorm:"default:3"`
	IsActive         bool     `json:"is_active" gorm:"default:true"`

	Moderation `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	QuizID       uint             `json:"quiz_id" gorm:"not null;index"`
	QuestionText string           `json:"question_text" gorm:"type:text;not null"`
	QuestionType QuizQuestionType `json:"question_type" gorm:"size:20;not null"`
	Points       int              `json:"points" gorm:"default:1"`
	OrderIndex   int              `json:"order_index" gorm:"default:0"`
	Explanation  string           `json:"explanation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	Options []QuizOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuizOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	OptionText string `json:"option_text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

type QuizAttempt struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	QuizID           uint       `json:"quiz_id" gorm:"not null;index"`
	StudentID        string     `json:"student_id" gorm:"not null;size:36;index"`
	AttemptNumber    int        `json:"attempt_number" gorm:"not null"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	Score            float64    `json:"score"`
	MaxScore         float64    `json:"max_score"`
	Percentage       float64    `json:"percentage"`
	Passed           bool       `json:"passed"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`

	Answers []QuizAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// IsSubmitted reports whether the attempt already has a result
func (a *QuizAttempt) IsSubmitted() bool {
	return a.CompletedAt != nil
}

type QuizAnswer struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	AttemptID    uint    `json:"attempt_id" gorm:"not null;index"`
	QuestionID   uint    `json:"question_id" gorm:"not null;index"`
	OptionID     *uint   `json:"option_id"`
	TextAnswer   *string `json:"text_answer" gorm:"type:text"`
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned float64 `json:"points_earned"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
