package services

import (
	"context"
	"io"
	"time"

	"github.com/tusharsharma89566/Edu-Learn/internal/adaptive"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest

type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type TopicRequest = validator.TopicRequest
type MaterialRequest = validator.MaterialRequest
type CreateAssignmentRequest = validator.AssignmentCreateRequest
type SubmissionRequest = validator.SubmissionRequest
type GradeSubmissionRequest = validator.GradeSubmissionRequest
type ReportRequest = validator.ReportRequest
type ModerationActionRequest = validator.ModerationActionRequest

type CreateQuizRequest = validator.QuizCreateRequest
type SubmitQuizRequest = validator.QuizSubmitRequest

type CreateAdaptiveQuestionRequest = validator.AdaptiveQuestionCreateRequest
type CreateAdaptiveAssessmentRequest = validator.AdaptiveAssessmentCreateRequest
type SubmitAdaptiveAnswerRequest = validator.AdaptiveAnswerRequest

type CreateGradingModelRequest = validator.GradingModelCreateRequest
type CreateGradingCriteriaRequest = validator.GradingCriteriaCreateRequest
type GradeResponseRequest = validator.GradeResponseRequest
type HumanReviewRequest = validator.HumanReviewRequest

type CreateBadgeRequest = validator.BadgeCreateRequest
type AddPointsRequest = validator.AddPointsRequest
type CreateLeaderboardRequest = validator.LeaderboardCreateRequest
type LeaderboardEntryRequest = validator.LeaderboardEntryRequest
type UpdateAchievementRequest = validator.AchievementUpdateRequest

type ChatSendRequest = validator.ChatSendRequest
type FAQRequest = validator.FAQRequest
type CreateReminderRequest = validator.ReminderCreateRequest

type StartSessionRequest = validator.SessionStartRequest
type StartActivityRequest = validator.ActivityStartRequest
type UpdateActivityRequest = validator.ActivityUpdateRequest
type CompleteActivityRequest = validator.ActivityCompleteRequest

type UpdatePreferenceRequest = validator.PreferenceUpdateRequest

// Pagination accompanies every paged list
type Pagination struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func newPagination(page, size int, total int64) Pagination {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Pagination{Page: page, Size: size, Total: total, Pages: pages}
}

// normalizePage clamps page and size and returns the row offset
func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size, (page - 1) * size
}

// ===== AUTH DTOs =====

type LoginResponse struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ===== CONTENT DTOs =====

type CourseListResponse struct {
	Data       []*models.Course `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ===== QUIZ DTOs =====

// QuizView is a quiz as shown to a caller; students never see correct flags
type QuizView struct {
	*models.Quiz
	Questions []QuizQuestionView `json:"questions"`
	CanEdit   bool               `json:"can_edit"`
}

type QuizQuestionView struct {
	ID           uint                    `json:"id"`
	QuestionText string                  `json:"question_text"`
	QuestionType models.QuizQuestionType `json:"question_type"`
	Points       int                     `json:"points"`
	OrderIndex   int                     `json:"order_index"`
	Explanation  string                  `json:"explanation,omitempty"`
	Options      []QuizOptionView        `json:"options"`
}

type QuizOptionView struct {
	ID         uint   `json:"id"`
	OptionText string `json:"option_text"`
	OrderIndex int    `json:"order_index"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
}

type QuizResult struct {
	Attempt    *models.QuizAttempt `json:"attempt"`
	Score      float64             `json:"score"`
	MaxScore   float64             `json:"max_score"`
	Percentage float64             `json:"percentage"`
	Passed     bool                `json:"passed"`
}

// ===== ADAPTIVE DTOs =====

type AdaptiveQuestionListResponse struct {
	Data       []*models.AdaptiveQuestion `json:"data"`
	Pagination Pagination                 `json:"pagination"`
}

type AssessmentListResponse struct {
	Data       []*models.AdaptiveAssessment `json:"data"`
	Pagination Pagination                   `json:"pagination"`
}

// QuestionView hides the answer key of an adaptive question
type QuestionView struct {
	ID               uint                   `json:"id"`
	QuestionText     string                 `json:"question_text"`
	QuestionType     models.QuestionType    `json:"question_type"`
	DifficultyLevel  models.DifficultyLevel `json:"difficulty_level"`
	Points           int                    `json:"points"`
	Options          []string               `json:"options"`
	TimeLimitSeconds int                    `json:"time_limit_seconds"`
}

type StartAssessmentResponse struct {
	Assessment *models.AdaptiveAssessment `json:"assessment"`
	Question   *QuestionView              `json:"question"`
}

type CurrentQuestionResponse struct {
	AssessmentComplete bool                       `json:"assessment_complete"`
	Question           *QuestionView              `json:"question,omitempty"`
	Progress           float64                    `json:"progress"`
	CurrentDifficulty  float64                    `json:"current_difficulty"`
	Assessment         *models.AdaptiveAssessment `json:"assessment,omitempty"`
}

type SubmitAnswerResponse struct {
	AssessmentComplete bool                       `json:"assessment_complete"`
	Feedback           adaptive.Feedback          `json:"feedback"`
	Progress           float64                    `json:"progress"`
	CurrentDifficulty  float64                    `json:"current_difficulty"`
	Assessment         *models.AdaptiveAssessment `json:"assessment,omitempty"`
}

// BucketStats counts answers and correct answers in one group
type BucketStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

type AssessmentStatistics struct {
	ByQuestionType map[string]*BucketStats `json:"by_question_type"`
	ByDifficulty   map[string]*BucketStats `json:"by_difficulty"`
	ByTimeBand     map[string]*BucketStats `json:"by_time_band"`
	TotalQuestions int                     `json:"total_questions"`
	CorrectAnswers int                     `json:"correct_answers"`
	AverageTime    float64                 `json:"average_time"`
}

type AssessmentResultsResponse struct {
	Assessment *models.AdaptiveAssessment  `json:"assessment"`
	Responses  []models.AssessmentResponse `json:"responses"`
	Statistics AssessmentStatistics        `json:"statistics"`
}

type AdaptiveAdminAnalytics struct {
	TotalQuestions        int64            `json:"total_questions"`
	TotalAssessments      int64            `json:"total_assessments"`
	CompletedAssessments  int64            `json:"completed_assessments"`
	TotalResponses        int64            `json:"total_responses"`
	AverageFinalScore     float64          `json:"average_final_score"`
	CompletionRate        float64          `json:"completion_rate"`
	QuestionsByType       map[string]int64 `json:"questions_by_type"`
	QuestionsByDifficulty map[string]int64 `json:"questions_by_difficulty"`
}

type QuickStats struct {
	RecentAssessments  []*models.AdaptiveAssessment `json:"recent_assessments"`
	CurrentProficiency models.ProficiencyLevel      `json:"current_proficiency"`
	ImprovementTrend   float64                      `json:"improvement_trend"`
	TotalAssessments   int                          `json:"total_assessments"`
	AverageScore       float64                      `json:"average_score"`
}

// ImportResult reports a bulk import
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ===== GAMIFICATION DTOs =====

type UserStats struct {
	Points                *models.UserPoints `json:"points"`
	Level                 int                `json:"level"`
	BadgesCount           int64              `json:"badges_count"`
	CompletedAchievements int64              `json:"completed_achievements"`
	UnreadNotifications   int64              `json:"unread_notifications"`
}

type AddPointsResult struct {
	Points       *models.UserPoints `json:"points"`
	LeveledUp    bool               `json:"leveled_up"`
	BadgesEarned []*models.Badge    `json:"badges_earned"`
}

// ===== CHAT DTOs =====

type ChatReply struct {
	UserMessage *models.ChatMessage `json:"user_message"`
	BotMessage  *models.ChatMessage `json:"bot_message"`
}

// ===== PROGRESS DTOs =====

type ProgressOverview struct {
	Courses          []*models.CourseProgress   `json:"courses"`
	Streak           *models.StudyStreak        `json:"streak"`
	TotalCourses     int                        `json:"total_courses"`
	CompletedCourses int                        `json:"completed_courses"`
	AverageProgress  float64                    `json:"average_progress"`
	TotalTimeHours   float64                    `json:"total_time_hours"`
	RecentActivities []*models.LearningActivity `json:"recent_activities"`
}

// ===== ADMIN DTOs =====

type SystemAnalytics struct {
	UsersByRole       map[models.UserRole]int64 `json:"users_by_role"`
	TotalUsers        int64                     `json:"total_users"`
	TotalCourses      int64                     `json:"total_courses"`
	TotalEnrollments  int64                     `json:"total_enrollments"`
	TotalAssignments  int64                     `json:"total_assignments"`
	TotalSubmissions  int64                     `json:"total_submissions"`
	RecentSessions    int64                     `json:"recent_sessions"`
	RegistrationTrend []repositories.DailyCount `json:"registration_trend"`
	EnrollmentTrend   []repositories.DailyCount `json:"enrollment_trend"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)

	// Token handling for the HTTP middleware
	IssueToken(user *models.User) (string, time.Time, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)

	// EnsureUser creates the account unless the email already exists
	EnsureUser(ctx context.Context, req *RegisterRequest) (*models.User, bool, error)
}

type ContentService interface {
	// Courses
	CreateCourse(ctx context.Context, req *CreateCourseRequest, userID string) (*models.Course, error)
	GetCourse(ctx context.Context, id uint) (*models.Course, error)
	UpdateCourse(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error)
	DeleteCourse(ctx context.Context, id uint, userID string) error
	ListCourses(ctx context.Context, userID string, page, size int) (*CourseListResponse, error)
	Catalog(ctx context.Context, query string, page, size int) (*CourseListResponse, error)

	// Topics
	ListTopics(ctx context.Context, courseID uint) ([]*models.Topic, error)
	CreateTopic(ctx context.Context, courseID uint, req *TopicRequest, userID string) (*models.Topic, error)
	UpdateTopic(ctx context.Context, id uint, req *TopicRequest, userID string) (*models.Topic, error)
	DeleteTopic(ctx context.Context, id uint, userID string) error

	// Materials
	ListMaterials(ctx context.Context, topicID uint) ([]*models.LearningMaterial, error)
	CreateMaterial(ctx context.Context, topicID uint, req *MaterialRequest, userID string) (*models.LearningMaterial, error)
	UpdateMaterial(ctx context.Context, id uint, req *MaterialRequest, userID string) (*models.LearningMaterial, error)
	DeleteMaterial(ctx context.Context, id uint, userID string) error

	// Assignments
	ListAssignments(ctx context.Context, courseID uint) ([]*models.Assignment, error)
	CreateAssignment(ctx context.Context, courseID uint, req *CreateAssignmentRequest, userID string) (*models.Assignment, error)
	SubmitAssignment(ctx context.Context, assignmentID uint, req *SubmissionRequest, userID string) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, assignmentID uint, userID string) ([]*models.AssignmentSubmission, error)
	GradeSubmission(ctx context.Context, assignmentID, submissionID uint, req *GradeSubmissionRequest, userID string) (*models.AssignmentSubmission, error)

	// Enrollment
	Enroll(ctx context.Context, courseID uint, userID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, courseID uint, userID string) error
	CourseStudents(ctx context.Context, courseID uint, userID string) ([]*models.Enrollment, error)
}

type QuizService interface {
	Create(ctx context.Context, topicID uint, req *CreateQuizRequest, userID string) (*models.Quiz, error)
	Get(ctx context.Context, id uint, userID string) (*QuizView, error)
	ListByTopic(ctx context.Context, topicID uint) ([]*models.Quiz, error)
	StartAttempt(ctx context.Context, quizID uint, userID string) (*models.QuizAttempt, error)
	SubmitAttempt(ctx context.Context, quizID, attemptID uint, req *SubmitQuizRequest, userID string) (*QuizResult, error)
	ListAttempts(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error)
}

type AdaptiveService interface {
	// Question bank
	ListQuestions(ctx context.Context, filters repositories.AdaptiveQuestionFilters) ([]*models.AdaptiveQuestion, error)
	CreateQuestion(ctx context.Context, req *CreateAdaptiveQuestionRequest, userID string) (*models.AdaptiveQuestion, error)
	ImportQuestions(ctx context.Context, filename string, r io.Reader, userID string) (*ImportResult, error)
	ExportQuestions(ctx context.Context, filters repositories.AdaptiveQuestionFilters, w io.Writer) (int, error)

	// Assessments
	ListAssessments(ctx context.Context, userID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	CreateAssessment(ctx context.Context, req *CreateAdaptiveAssessmentRequest, userID string) (*models.AdaptiveAssessment, error)
	Start(ctx context.Context, id uint, userID string) (*StartAssessmentResponse, error)
	CurrentQuestion(ctx context.Context, id uint, userID string) (*CurrentQuestionResponse, error)
	SubmitAnswer(ctx context.Context, id uint, req *SubmitAdaptiveAnswerRequest, userID string) (*SubmitAnswerResponse, error)
	Abandon(ctx context.Context, id uint, userID string) (*models.AdaptiveAssessment, error)
	Results(ctx context.Context, id uint, userID string) (*AssessmentResultsResponse, error)

	// Analytics
	GetAnalytics(ctx context.Context, userID string, courseID, topicID *uint) (*models.AdaptiveAnalytics, error)
	UpdateAnalytics(ctx context.Context, assessmentID uint, userID string) (*models.AdaptiveAnalytics, error)
	QuickStats(ctx context.Context, userID string) (*QuickStats, error)

	// Admin
	AdminQuestions(ctx context.Context, userID string, page, size int) (*AdaptiveQuestionListResponse, error)
	AdminAnalytics(ctx context.Context, userID string) (*AdaptiveAdminAnalytics, error)
}

type GradingService interface {
	ListModels(ctx context.Context) ([]*models.GradingModel, error)
	CreateModel(ctx context.Context, req *CreateGradingModelRequest, userID string) (*models.GradingModel, error)
	CreateCriteria(ctx context.Context, req *CreateGradingCriteriaRequest, userID string) (*models.GradingCriteria, error)
	ListCriteria(ctx context.Context, questionID uint) ([]models.GradingCriteria, error)

	Grade(ctx context.Context, req *GradeResponseRequest, userID string) (*models.AutoGradingResult, error)
	GetResult(ctx context.Context, responseID uint, userID string) (*models.AutoGradingResult, error)
	Review(ctx context.Context, req *HumanReviewRequest, userID string) (*models.HumanReview, error)
	PendingReviews(ctx context.Context, userID string, limit int) ([]*models.AutoGradingResult, error)
	Analytics(ctx context.Context, userID string) (*repositories.GradingStats, error)
}

type GamificationService interface {
	// Badges
	ListBadges(ctx context.Context) ([]*models.Badge, error)
	UserBadges(ctx context.Context, userID string) ([]*models.UserBadge, error)
	CreateBadge(ctx context.Context, req *CreateBadgeRequest, userID string) (*models.Badge, error)
	CheckBadges(ctx context.Context, userID string, criteria models.BadgeCriteriaType, value float64) ([]*models.Badge, error)

	// Points
	GetPoints(ctx context.Context, userID string) (*models.UserPoints, error)
	AddPoints(ctx context.Context, req *AddPointsRequest, callerID string) (*AddPointsResult, error)

	// Leaderboards
	ListLeaderboards(ctx context.Context) ([]*models.Leaderboard, error)
	CreateLeaderboard(ctx context.Context, req *CreateLeaderboardRequest, userID string) (*models.Leaderboard, error)
	LeaderboardEntries(ctx context.Context, leaderboardID uint) ([]*models.LeaderboardEntry, error)
	UpdateLeaderboardEntry(ctx context.Context, leaderboardID uint, req *LeaderboardEntryRequest, callerID string) ([]*models.LeaderboardEntry, error)

	// Achievements
	ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)
	UpdateAchievement(ctx context.Context, req *UpdateAchievementRequest, userID string) (*models.Achievement, error)

	// Notifications
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uint, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)

	Stats(ctx context.Context, userID string) (*UserStats, error)

	// Event consumers
	HandleAssessmentCompleted(ctx context.Context, event *events.Event) error
	HandleQuizCompleted(ctx context.Context, event *events.Event) error
}

type ChatbotService interface {
	Send(ctx context.Context, req *ChatSendRequest, userID string) (*ChatReply, error)
	History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)

	ListReminders(ctx context.Context, userID string) ([]*models.StudyReminder, error)
	CreateReminder(ctx context.Context, req *CreateReminderRequest, userID string) (*models.StudyReminder, error)
	DeleteReminder(ctx context.Context, id uint, userID string) error

	ListFAQs(ctx context.Context) ([]*models.FAQ, error)
	CreateFAQ(ctx context.Context, req *FAQRequest, userID string) (*models.FAQ, error)
	UpdateFAQ(ctx context.Context, id uint, req *FAQRequest, userID string) (*models.FAQ, error)
	DeleteFAQ(ctx context.Context, id uint, userID string) error
}

type ProgressService interface {
	StartSession(ctx context.Context, req *StartSessionRequest, userID, userAgent, ip string) (*models.LearningSession, error)
	EndSession(ctx context.Context, id uint, userID string) (*models.LearningSession, error)
	ActiveSession(ctx context.Context, userID string) (*models.LearningSession, error)

	StartActivity(ctx context.Context, req *StartActivityRequest, userID string) (*models.LearningActivity, error)
	UpdateActivity(ctx context.Context, id uint, req *UpdateActivityRequest, userID string) (*models.LearningActivity, error)
	CompleteActivity(ctx context.Context, id uint, req *CompleteActivityRequest, userID string) (*models.LearningActivity, error)

	CourseProgress(ctx context.Context, courseID uint, userID string) (*models.CourseProgress, error)
	TopicProgress(ctx context.Context, topicID uint, userID string) (*models.TopicProgress, error)
	Overview(ctx context.Context, userID string) (*ProgressOverview, error)
	Analytics(ctx context.Context, userID string, period models.PeriodType) (*models.LearningAnalytics, error)

	// RecordStudyDay updates the study streak for the given day
	RecordStudyDay(ctx context.Context, userID string, day time.Time) (*models.StudyStreak, error)
	// HandleStudyEvent consumes completion events and records a study day
	HandleStudyEvent(ctx context.Context, event *events.Event) error
}

type RecommendationService interface {
	GetPreferences(ctx context.Context, userID string) (*models.UserPreference, error)
	UpdatePreferences(ctx context.Context, req *UpdatePreferenceRequest, userID string) (*models.UserPreference, error)
	Generate(ctx context.Context, userID string, limit int) ([]*models.UserRecommendation, error)
	ListActive(ctx context.Context, userID string, limit int) ([]*models.UserRecommendation, error)
	MarkViewed(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error)
	MarkClicked(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error)
	MarkCompleted(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error)
	RefreshPattern(ctx context.Context, userID string) (*models.LearningPattern, error)
}

type AdminService interface {
	// Moderation
	Pending(ctx context.Context, contentType string, userID string) (interface{}, error)
	Reported(ctx context.Context, contentType string, userID string) (interface{}, error)
	Approve(ctx context.Context, contentType string, id uint, userID string) error
	Reject(ctx context.Context, contentType string, id uint, reason string, userID string) error
	ResolveReport(ctx context.Context, contentType string, id uint, resolution string, userID string) error
	Remove(ctx context.Context, contentType string, id uint, reason string, userID string) error
	Report(ctx context.Context, contentType string, id uint, req *ReportRequest, userID string) error

	// Users
	BulkUploadUsers(ctx context.Context, filename string, r io.Reader, userID string) (*ImportResult, error)

	// Analytics
	SystemAnalytics(ctx context.Context, userID string) (*SystemAnalytics, error)
	ExportAnalytics(ctx context.Context, userID string, w io.Writer) error

	// Cache
	CacheStats(ctx context.Context, userID string) (map[string]interface{}, error)
	ClearCache(ctx context.Context, userID string) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	Content() ContentService
	Quiz() QuizService
	Adaptive() AdaptiveService
	Grading() GradingService
	Gamification() GamificationService
	Chatbot() ChatbotService
	Progress() ProgressService
	Recommendation() RecommendationService
	Admin() AdminService

	// RegisterConsumers subscribes the event-driven services to the bus
	RegisterConsumers(sub EventSubscriber)

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	// CacheStats reports cache key counts, or cache_enabled=false without Redis
	CacheStats(ctx context.Context) map[string]interface{}
	Shutdown(ctx context.Context) error
}
