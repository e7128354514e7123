package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tusharsharma89566/Edu-Learn/internal/cache"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type AdaptiveQuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAdaptiveQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AdaptiveQuestionRepository {
	return &AdaptiveQuestionPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (a *AdaptiveQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AdaptiveQuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.AdaptiveQuestion) error {
	if err := a.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create adaptive question: %w", err)
	}
	return nil
}

// CreateBatch inserts questions in chunks of 100
func (a *AdaptiveQuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.AdaptiveQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	if err := a.getDB(tx).WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to import adaptive questions: %w", err)
	}
	return nil
}

func (a *AdaptiveQuestionPostgreSQL) InvalidatePool(ctx context.Context, courseIDs ...uint) {
	seen := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		if !seen[id] {
			seen[id] = true
			cache.InvalidateQuestionPool(ctx, a.cacheManager, id)
		}
	}
}

func (a *AdaptiveQuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveQuestion, error) {
	var question models.AdaptiveQuestion
	if err := a.getDB(tx).WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get adaptive question: %w", err)
	}
	return &question, nil
}

// UpdateStatistics writes the usage counters of a question
func (a *AdaptiveQuestionPostgreSQL) UpdateStatistics(ctx context.Context, tx *gorm.DB, question *models.AdaptiveQuestion) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.AdaptiveQuestion{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"times_used":            question.TimesUsed,
			"correct_responses":     question.CorrectResponses,
			"average_response_time": question.AverageResponseTime,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update question statistics: %w", err)
	}
	return nil
}

func (a *AdaptiveQuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AdaptiveQuestionFilters) ([]*models.AdaptiveQuestion, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.AdaptiveQuestion{})
	query = a.helpers.ApplyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count adaptive questions: %w", err)
	}

	var questions []*models.AdaptiveQuestion
	query = a.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list adaptive questions: %w", err)
	}
	return questions, total, nil
}

// Pool returns the active question pool of a course or topic with caching
func (a *AdaptiveQuestionPostgreSQL) Pool(ctx context.Context, tx *gorm.DB, courseID uint, topicID *uint) ([]models.AdaptiveQuestion, error) {
	scope := "all"
	if topicID != nil {
		scope = fmt.Sprintf("%d", *topicID)
	}

	fetch := func() (interface{}, error) {
		query := a.getDB(tx).WithContext(ctx).Where("course_id = ? AND is_active = ?", courseID, true)
		if topicID != nil {
			query = query.Where("topic_id = ?", *topicID)
		}
		var pool []models.AdaptiveQuestion
		if err := query.Order("id ASC").Find(&pool).Error; err != nil {
			return nil, fmt.Errorf("failed to load question pool: %w", err)
		}
		return pool, nil
	}

	if tx != nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.([]models.AdaptiveQuestion), nil
	}

	var pool []models.AdaptiveQuestion
	key := fmt.Sprintf("pool:%d:%s", courseID, scope)
	if err := a.cacheManager.Question.CacheOrExecute(ctx, key, &pool, cache.QuestionCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return pool, nil
}

// ===== ASSESSMENTS =====

type AdaptiveAssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAdaptiveAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AdaptiveAssessmentRepository {
	return &AdaptiveAssessmentPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (a *AdaptiveAssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AdaptiveAssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.AdaptiveAssessment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create adaptive assessment: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, "adaptive:*")
	return nil
}

func (a *AdaptiveAssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveAssessment, error) {
	var assessment models.AdaptiveAssessment
	if err := a.getDB(tx).WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get adaptive assessment: %w", err)
	}
	return &assessment, nil
}

func (a *AdaptiveAssessmentPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveAssessment, error) {
	var assessment models.AdaptiveAssessment
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&assessment, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock adaptive assessment: %w", err)
	}
	return &assessment, nil
}

func (a *AdaptiveAssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.AdaptiveAssessment) error {
	if err := a.getDB(tx).WithContext(ctx).Omit("created_at", "Responses").Save(assessment).Error; err != nil {
		return fmt.Errorf("failed to update adaptive assessment: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, "adaptive:*")
	return nil
}

// List returns assessments ordered by started_at descending
func (a *AdaptiveAssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.AdaptiveAssessment, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.AdaptiveAssessment{})
	query = a.helpers.ApplyAssessmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count adaptive assessments: %w", err)
	}

	var assessments []*models.AdaptiveAssessment
	query = a.helpers.ApplyPaginationAndSort(query, "started_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list adaptive assessments: %w", err)
	}
	return assessments, total, nil
}

func (a *AdaptiveAssessmentPostgreSQL) Recent(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.AdaptiveAssessment, error) {
	assessments, _, err := a.List(ctx, tx, repositories.AssessmentFilters{UserID: &userID, Limit: limit})
	return assessments, err
}

func (a *AdaptiveAssessmentPostgreSQL) CreateResponse(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error {
	if err := a.getDB(tx).WithContext(ctx).Omit("Question").Create(response).Error; err != nil {
		return fmt.Errorf("failed to create assessment response: %w", err)
	}
	return nil
}

func (a *AdaptiveAssessmentPostgreSQL) GetResponse(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentResponse, error) {
	var response models.AssessmentResponse
	if err := a.getDB(tx).WithContext(ctx).Preload("Question").First(&response, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment response: %w", err)
	}
	return &response, nil
}

func (a *AdaptiveAssessmentPostgreSQL) UpdateResponse(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Where("id = ?", response.ID).
		Updates(map[string]interface{}{
			"is_correct":        response.IsCorrect,
			"points_earned":     response.PointsEarned,
			"feedback_given":    response.FeedbackGiven,
			"explanation_shown": response.ExplanationShown,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update assessment response: %w", err)
	}
	return nil
}

// ListResponses returns responses in answer order
func (a *AdaptiveAssessmentPostgreSQL) ListResponses(ctx context.Context, tx *gorm.DB, assessmentID uint, withQuestions bool) ([]models.AssessmentResponse, error) {
	query := a.getDB(tx).WithContext(ctx).Where("assessment_id = ?", assessmentID)
	if withQuestions {
		query = query.Preload("Question")
	}

	var responses []models.AssessmentResponse
	if err := query.Order("answered_at ASC, id ASC").Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessment responses: %w", err)
	}
	return responses, nil
}

func (a *AdaptiveAssessmentPostgreSQL) AnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, assessmentID uint) (map[uint]bool, error) {
	var ids []uint
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Where("assessment_id = ?", assessmentID).
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list answered questions: %w", err)
	}

	answered := make(map[uint]bool, len(ids))
	for _, id := range ids {
		answered[id] = true
	}
	return answered, nil
}

func (a *AdaptiveAssessmentPostgreSQL) HasResponse(ctx context.Context, tx *gorm.DB, assessmentID, questionID uint) (bool, error) {
	return a.helpers.Exists(ctx, tx, &models.AssessmentResponse{},
		"assessment_id = ? AND question_id = ?", assessmentID, questionID)
}

// CourseAccuracy returns the user's answer accuracy in percent per course title
func (a *AdaptiveAssessmentPostgreSQL) CourseAccuracy(ctx context.Context, tx *gorm.DB, userID string) (map[string]float64, error) {
	type row struct {
		Subject string
		Total   int64
		Correct int64
	}
	var rows []row
	err := a.getDB(tx).WithContext(ctx).
		Table("assessment_responses").
		Select("courses.title AS subject, COUNT(*) AS total, SUM(CASE WHEN assessment_responses.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN adaptive_questions ON adaptive_questions.id = assessment_responses.question_id").
		Joins("JOIN courses ON courses.id = adaptive_questions.course_id").
		Where("assessment_responses.user_id = ?", userID).
		Group("courses.title").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute course accuracy: %w", err)
	}

	accuracy := make(map[string]float64, len(rows))
	for _, r := range rows {
		if r.Total > 0 {
			accuracy[r.Subject] = float64(r.Correct) / float64(r.Total) * 100
		}
	}
	return accuracy, nil
}

// Stats returns platform-wide adaptive statistics, cached briefly
func (a *AdaptiveAssessmentPostgreSQL) Stats(ctx context.Context, tx *gorm.DB) (*repositories.AdaptiveStats, error) {
	var stats repositories.AdaptiveStats
	err := a.cacheManager.Stats.CacheOrExecute(ctx, "adaptive:summary", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return a.computeStats(ctx, a.getDB(tx))
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *AdaptiveAssessmentPostgreSQL) computeStats(ctx context.Context, db *gorm.DB) (*repositories.AdaptiveStats, error) {
	stats := &repositories.AdaptiveStats{
		QuestionsByType: make(map[models.QuestionType]int64),
		QuestionsByDiff: make(map[models.DifficultyLevel]int64),
	}

	db = db.WithContext(ctx)
	if err := db.Model(&models.AdaptiveQuestion{}).Count(&stats.TotalQuestions).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if err := db.Model(&models.AdaptiveAssessment{}).Count(&stats.TotalAssessments).Error; err != nil {
		return nil, fmt.Errorf("failed to count assessments: %w", err)
	}
	if err := db.Model(&models.AdaptiveAssessment{}).Where("status = ?", models.AssessmentCompleted).Count(&stats.CompletedAssessments).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed assessments: %w", err)
	}
	if err := db.Model(&models.AssessmentResponse{}).Count(&stats.TotalResponses).Error; err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	var avg *float64
	if err := db.Model(&models.AdaptiveAssessment{}).
		Where("final_score IS NOT NULL").
		Select("AVG(final_score)").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average final scores: %w", err)
	}
	if avg != nil {
		stats.AverageFinalScore = *avg
	}

	type group struct {
		Name  string
		Count int64
	}
	var byType, byDiff []group
	if err := db.Model(&models.AdaptiveQuestion{}).Select("question_type AS name, COUNT(*) AS count").Group("question_type").Scan(&byType).Error; err != nil {
		return nil, fmt.Errorf("failed to group questions by type: %w", err)
	}
	if err := db.Model(&models.AdaptiveQuestion{}).Select("difficulty_level AS name, COUNT(*) AS count").Group("difficulty_level").Scan(&byDiff).Error; err != nil {
		return nil, fmt.Errorf("failed to group questions by difficulty: %w", err)
	}
	for _, g := range byType {
		stats.QuestionsByType[models.QuestionType(g.Name)] = g.Count
	}
	for _, g := range byDiff {
		stats.QuestionsByDiff[models.DifficultyLevel(g.Name)] = g.Count
	}
	return stats, nil
}

// ===== ANALYTICS =====

type AdaptiveAnalyticsPostgreSQL struct {
	db *gorm.DB
}

func NewAdaptiveAnalyticsPostgreSQL(db *gorm.DB) repositories.AdaptiveAnalyticsRepository {
	return &AdaptiveAnalyticsPostgreSQL{db: db}
}

func (a *AdaptiveAnalyticsPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AdaptiveAnalyticsPostgreSQL) GetOrCreate(ctx context.Context, tx *gorm.DB, userID string, courseID, topicID *uint) (*models.AdaptiveAnalytics, error) {
	query := a.getDB(tx).WithContext(ctx).Where("user_id = ?", userID)
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	} else {
		query = query.Where("course_id IS NULL")
	}
	if topicID != nil {
		query = query.Where("topic_id = ?", *topicID)
	} else {
		query = query.Where("topic_id IS NULL")
	}

	var analytics models.AdaptiveAnalytics
	err := query.First(&analytics).Error
	if err == nil {
		return &analytics, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get adaptive analytics: %w", err)
	}

	analytics = models.AdaptiveAnalytics{
		UserID:                  userID,
		CourseID:                courseID,
		TopicID:                 topicID,
		CurrentProficiencyLevel: models.ProficiencyBeginner,
	}
	if err := a.getDB(tx).WithContext(ctx).Create(&analytics).Error; err != nil {
		return nil, fmt.Errorf("failed to create adaptive analytics: %w", err)
	}
	return &analytics, nil
}

func (a *AdaptiveAnalyticsPostgreSQL) Save(ctx context.Context, tx *gorm.DB, analytics *models.AdaptiveAnalytics) error {
	if err := a.getDB(tx).WithContext(ctx).Save(analytics).Error; err != nil {
		return fmt.Errorf("failed to save adaptive analytics: %w", err)
	}
	return nil
}

func (a *AdaptiveAnalyticsPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.AdaptiveAnalytics, error) {
	var list []*models.AdaptiveAnalytics
	if err := a.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list adaptive analytics: %w", err)
	}
	return list, nil
}
