package validator

import "time"

// RegisterRequest represents the request structure for account registration
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,password_strength"`
	Role      string `json:"role"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// QuizCreateRequest represents a quiz with its questions
type QuizCreateRequest struct {
	Title            string                `json:"title" validate:"required,max=200"`
	Description      string                `json:"description"`
	QuizType         string                `json:"quiz_type" validate:"omitempty,oneof=practice graded survey"`
	TimeLimitMinutes *int                  `json:"time_limit_minutes" validate:"omitempty,min=1,max=600"`
	PassingScore     *float64              `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	MaxAttempts      *int                  `json:"max_attempts" validate:"omitempty,min=1,max=20"`
	Questions        []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type QuizQuestionRequest struct {
	QuestionText string              `json:"question_text" validate:"required"`
	QuestionType string              `json:"question_type" validate:"required,oneof=multiple_choice true_false short_answer"`
	Points       int                 `json:"points" validate:"omitempty,min=1,max=100"`
	Explanation  string              `json:"explanation"`
	Options      []QuizOptionRequest `json:"options" validate:"dive"`
}

type QuizOptionRequest struct {
	OptionText string `json:"option_text" validate:"required"`
	IsCorrect  bool   `json:"is_correct"`
}

// AdaptiveQuestionCreateRequest represents a new adaptive question
type AdaptiveQuestionCreateRequest struct {
	CourseID           uint     `json:"course_id" validate:"required"`
	TopicID            *uint    `json:"topic_id"`
	QuestionText       string   `json:"question_text" validate:"required"`
	QuestionType       string   `json:"question_type" validate:"required,question_type"`
	DifficultyLevel    string   `json:"difficulty_level" validate:"required,difficulty_level"`
	Points             int      `json:"points" validate:"omitempty,min=1,max=100"`
	Options            []string `json:"options"`
	CorrectAnswer      string   `json:"correct_answer" validate:"required"`
	Explanation        string   `json:"explanation"`
	InitialDifficulty  *float64 `json:"initial_difficulty" validate:"omitempty,difficulty_score"`
	Discrimination     *float64 `json:"discrimination" validate:"omitempty,gte=0,lte=5"`
	Guessing           *float64 `json:"guessing" validate:"omitempty,difficulty_score"`
	TimeLimitSeconds   int      `json:"time_limit_seconds" validate:"omitempty,min=5,max=3600"`
	Tags               []string `json:"tags" validate:"max=10"`
	LearningObjectives []string `json:"learning_objectives"`
}

// AdaptiveAssessmentCreateRequest represents a new adaptive assessment
type AdaptiveAssessmentCreateRequest struct {
	CourseID                 uint     `json:"course_id" validate:"required"`
	TopicID                  *uint    `json:"topic_id"`
	Title                    string   `json:"title" validate:"required,max=200"`
	Description              string   `json:"description"`
	AssessmentType           string   `json:"assessment_type" validate:"omitempty,oneof=adaptive diagnostic practice"`
	MaxQuestions             int      `json:"max_questions" validate:"omitempty,min=1,max=100"`
	TimeLimitMinutes         int      `json:"time_limit_minutes" validate:"omitempty,min=1,max=600"`
	InitialDifficulty        *float64 `json:"initial_difficulty" validate:"omitempty,difficulty_score"`
	DifficultyAdjustmentRate *float64 `json:"difficulty_adjustment_rate" validate:"omitempty,gt=0,lte=0.5"`
	ConfidenceThreshold      *float64 `json:"confidence_threshold" validate:"omitempty,difficulty_score"`
}

// ReminderCreateRequest is parsed before the time string is interpreted
type ReminderCreateRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time" validate:"required"`
}

// ===== CONTENT =====

type CourseCreateRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description"`
	Category      string `json:"category" validate:"max=50"`
	Level         string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationHours int    `json:"duration_hours" validate:"gte=0"`
	MaxStudents   int    `json:"max_students" validate:"omitempty,min=1,max=10000"`
	IsPublic      *bool  `json:"is_public"`
	Thumbnail     string `json:"thumbnail" validate:"max=255"`
}

type CourseUpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=200"`
	Description   *string `json:"description"`
	Category      *string `json:"category" validate:"omitempty,max=50"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationHours *int    `json:"duration_hours" validate:"omitempty,gte=0"`
	MaxStudents   *int    `json:"max_students" validate:"omitempty,min=1,max=10000"`
	IsActive      *bool   `json:"is_active"`
	IsPublic      *bool   `json:"is_public"`
	Thumbnail     *string `json:"thumbnail" validate:"omitempty,max=255"`
}

type TopicRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	IsActive        *bool  `json:"is_active"`
}

type MaterialRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Type       string `json:"type" validate:"required,oneof=video document presentation link"`
	Content    string `json:"content"`
	FileURL    string `json:"file_url" validate:"omitempty,max=500"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
	IsRequired *bool  `json:"is_required"`
	IsActive   *bool  `json:"is_active"`
}

type AssignmentCreateRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date" validate:"omitempty,future_time"`
	MaxPoints   int        `json:"max_points" validate:"omitempty,min=1,max=1000"`
}

type SubmissionRequest struct {
	Content string `json:"content" validate:"required_without=FileURL"`
	FileURL string `json:"file_url" validate:"omitempty,max=500"`
}

type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

// ReportRequest flags a course or material for review
type ReportRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ModerationActionRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ===== QUIZ =====

type QuizAnswerRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	OptionID   *uint   `json:"option_id"`
	TextAnswer *string `json:"text_answer"`
}

type QuizSubmitRequest struct {
	Answers []QuizAnswerRequest `json:"answers" validate:"dive"`
}

// ===== ADAPTIVE =====

type AdaptiveAnswerRequest struct {
	QuestionID   uint    `json:"question_id" validate:"required"`
	UserAnswer   string  `json:"user_answer"`
	ResponseTime float64 `json:"response_time" validate:"gte=0,lte=86400"`
}

// ===== GRADING =====

type GradingModelCreateRequest struct {
	Name        string                 `json:"name" validate:"required,max=100"`
	ModelType   string                 `json:"model_type" validate:"required,oneof=heuristic llm"`
	GradingType string                 `json:"grading_type" validate:"required,oneof=essay short_answer code open_ended"`
	Config      map[string]interface{} `json:"config"`
	Version     string                 `json:"version" validate:"max=20"`
}

type GradingCriteriaCreateRequest struct {
	QuestionID   uint     `json:"question_id" validate:"required"`
	CriteriaType string   `json:"criteria_type" validate:"required,max=50"`
	Weight       *float64 `json:"weight" validate:"omitempty,gt=0,lte=10"`
	MaxScore     *float64 `json:"max_score" validate:"omitempty,gt=0"`
	Description  string   `json:"description"`
	RubricPoints []string `json:"rubric_points"`
	Keywords     []string `json:"keywords"`
}

type GradeResponseRequest struct {
	ResponseID uint  `json:"response_id" validate:"required"`
	ModelID    *uint `json:"model_id"`
}

type HumanReviewRequest struct {
	GradingResultID       uint     `json:"grading_result_id" validate:"required"`
	HumanScore            float64  `json:"human_score" validate:"gte=0,lte=10"`
	ReviewNotes           string   `json:"review_notes"`
	AIAccuracyRating      *int     `json:"ai_accuracy_rating" validate:"omitempty,min=1,max=5"`
	FeedbackQualityRating *int     `json:"feedback_quality_rating" validate:"omitempty,min=1,max=5"`
	ReviewDuration        *float64 `json:"review_duration" validate:"omitempty,gte=0"`
}

// ===== GAMIFICATION =====

type BadgeCreateRequest struct {
	Name             string  `json:"name" validate:"required,max=100"`
	Description      string  `json:"description"`
	BadgeType        string  `json:"badge_type" validate:"max=50"`
	Category         string  `json:"category" validate:"max=50"`
	Icon             string  `json:"icon" validate:"max=100"`
	Color            string  `json:"color" validate:"max=20"`
	Rarity           string  `json:"rarity" validate:"omitempty,oneof=common uncommon rare epic legendary"`
	CriteriaType     string  `json:"criteria_type" validate:"required,oneof=points streak completion score"`
	CriteriaValue    float64 `json:"criteria_value" validate:"gte=0"`
	PointsReward     int     `json:"points_reward" validate:"gte=0"`
	ExperienceReward int     `json:"experience_reward" validate:"gte=0"`
}

type AddPointsRequest struct {
	UserID       string `json:"user_id"`
	Points       int    `json:"points" validate:"gte=0"`
	Experience   *int   `json:"experience" validate:"omitempty,gte=0"`
	ActivityType string `json:"activity_type" validate:"max=50"`
}

type LeaderboardCreateRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=50"`
	TimePeriod  string `json:"time_period" validate:"omitempty,oneof=daily weekly monthly all_time"`
	MaxEntries  int    `json:"max_entries" validate:"omitempty,min=1,max=1000"`
}

type LeaderboardEntryRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Score  float64 `json:"score"`
}

type AchievementUpdateRequest struct {
	AchievementType string  `json:"achievement_type" validate:"required,max=50"`
	Value           float64 `json:"value" validate:"gte=0"`
	Name            string  `json:"name" validate:"max=100"`
	Description     string  `json:"description"`
}

// ===== CHATBOT =====

type ChatSendRequest struct {
	Message string `json:"message"`
}

type FAQRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Category string `json:"category" validate:"max=50"`
	IsActive *bool  `json:"is_active"`
}

// ===== PROGRESS =====

type SessionStartRequest struct {
	CourseID    *uint  `json:"course_id"`
	TopicID     *uint  `json:"topic_id"`
	SessionType string `json:"session_type" validate:"omitempty,oneof=study quiz assignment review"`
	DeviceType  string `json:"device_type" validate:"max=20"`
}

type ActivityStartRequest struct {
	CourseID     *uint                  `json:"course_id"`
	TopicID      *uint                  `json:"topic_id"`
	MaterialID   *uint                  `json:"material_id"`
	ActivityType string                 `json:"activity_type" validate:"required,max=50"`
	ActivityName string                 `json:"activity_name" validate:"max=200"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type ActivityUpdateRequest struct {
	ProgressPercentage float64 `json:"progress_percentage"`
	Complete           bool    `json:"complete"`
}

type ActivityCompleteRequest struct {
	ProgressPercentage *float64 `json:"progress_percentage"`
	Score              *float64 `json:"score" validate:"omitempty,gte=0"`
	MaxScore           *float64 `json:"max_score" validate:"omitempty,gt=0"`
}

// ===== RECOMMENDATIONS =====

type PreferenceUpdateRequest struct {
	PreferredDifficulty     *string  `json:"preferred_difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	LearningStyle           *string  `json:"learning_style" validate:"omitempty,max=20"`
	PreferredContentType    *string  `json:"preferred_content_type" validate:"omitempty,max=20"`
	SubjectInterests        []string `json:"subject_interests" validate:"max=50"`
	TopicInterests          []string `json:"topic_interests" validate:"max=50"`
	PreferredStudyTime      *string  `json:"preferred_study_time" validate:"omitempty,max=20"`
	SessionDurationMinutes  *int     `json:"session_duration_minutes" validate:"omitempty,min=5,max=480"`
	DevicePreference        *string  `json:"device_preference" validate:"omitempty,max=20"`
	EmailNotifications      *bool    `json:"email_notifications"`
	PushNotifications       *bool    `json:"push_notifications"`
	RecommendationFrequency *string  `json:"recommendation_frequency" validate:"omitempty,oneof=daily weekly monthly"`
}
