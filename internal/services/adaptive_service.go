package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/adaptive"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/observability"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	defaultQuestionLimit   = 10
	defaultAssessmentLimit = 20
	progressionWindow      = 10
	quickStatsRecent       = 5
)

// question bank spreadsheet columns, shared by import and export
var questionColumns = []interface{}{
	"id", "course_id", "topic_id", "question_text", "question_type", "difficulty_level",
	"points", "options", "correct_answer", "explanation", "initial_difficulty",
	"discrimination", "guessing", "time_limit_seconds", "tags", "learning_objectives",
	"is_active", "times_used", "correct_responses", "average_response_time",
}

type adaptiveService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	engine    *adaptive.Engine
}

func NewAdaptiveService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, engine *adaptive.Engine) AdaptiveService {
	if engine == nil {
		engine = adaptive.NewEngine(nil)
	}
	return &adaptiveService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		engine:    engine,
	}
}

func (s *adaptiveService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== QUESTION BANK =====

func (s *adaptiveService) ListQuestions(ctx context.Context, filters repositories.AdaptiveQuestionFilters) ([]*models.AdaptiveQuestion, error) {
	filters.ActiveOnly = true
	if filters.Limit <= 0 {
		filters.Limit = defaultQuestionLimit
	}

	questions, _, err := s.repo.AdaptiveQuestion().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (s *adaptiveService) CreateQuestion(ctx context.Context, req *CreateAdaptiveQuestionRequest, userID string) (*models.AdaptiveQuestion, error) {
	s.logger.Info("Creating adaptive question", "course_id", req.CourseID, "creator_id", userID)

	if _, err := requireRole(ctx, s.repo, userID, "adaptive_question", "create", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, req.CourseID, req.TopicID); err != nil {
		return nil, err
	}

	question, zeros := newAdaptiveQuestion(req, userID)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.AdaptiveQuestion().Create(ctx, tx, question); err != nil {
			return err
		}
		return restoreZeroValues(ctx, tx, question, zeros)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.repo.AdaptiveQuestion().InvalidatePool(ctx, question.CourseID)

	s.logger.Info("Adaptive question created", "question_id", question.ID)
	return question, nil
}

// checkScope verifies the course exists and the topic, if any, belongs to it
func (s *adaptiveService) checkScope(ctx context.Context, courseID uint, topicID *uint) error {
	if _, err := loadCourse(ctx, s.repo, nil, courseID); err != nil {
		return err
	}
	if topicID == nil {
		return nil
	}
	topic, err := loadTopic(ctx, s.repo, nil, *topicID)
	if err != nil {
		return err
	}
	if topic.CourseID != courseID {
		return NewValidationError("topic_id", "topic does not belong to the course", *topicID)
	}
	return nil
}

func newAdaptiveQuestion(req *CreateAdaptiveQuestionRequest, userID string) (*models.AdaptiveQuestion, map[string]interface{}) {
	q := &models.AdaptiveQuestion{
		CourseID:           req.CourseID,
		TopicID:            req.TopicID,
		QuestionText:       strings.TrimSpace(req.QuestionText),
		QuestionType:       models.QuestionType(req.QuestionType),
		DifficultyLevel:    models.DifficultyLevel(req.DifficultyLevel),
		Points:             req.Points,
		Options:            toJSON(nonNilStrings(req.Options)),
		CorrectAnswer:      req.CorrectAnswer,
		Explanation:        req.Explanation,
		InitialDifficulty:  0.5,
		Discrimination:     1.0,
		Guessing:           0.25,
		TimeLimitSeconds:   req.TimeLimitSeconds,
		Tags:               toJSON(nonNilStrings(req.Tags)),
		LearningObjectives: toJSON(nonNilStrings(req.LearningObjectives)),
		CreatedBy:          userID,
		IsActive:           true,
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if q.TimeLimitSeconds == 0 {
		q.TimeLimitSeconds = 60
	}

	zeros := map[string]interface{}{}
	if req.InitialDifficulty != nil {
		q.InitialDifficulty = *req.InitialDifficulty
		if q.InitialDifficulty == 0 {
			zeros["initial_difficulty"] = 0.0
		}
	}
	if req.Discrimination != nil {
		q.Discrimination = *req.Discrimination
		if q.Discrimination == 0 {
			zeros["discrimination"] = 0.0
		}
	}
	if req.Guessing != nil {
		q.Guessing = *req.Guessing
		if q.Guessing == 0 {
			zeros["guessing"] = 0.0
		}
	}
	return q, zeros
}

// ImportQuestions creates questions from a .csv or .xlsx sheet. Invalid rows are skipped and reported.
func (s *adaptiveService) ImportQuestions(ctx context.Context, filename string, r io.Reader, userID string) (*ImportResult, error) {
	s.logger.Info("Importing adaptive questions", "filename", filename, "user_id", userID)

	if _, err := requireRole(ctx, s.repo, userID, "adaptive_question", "import", models.RoleTeacher); err != nil {
		return nil, err
	}

	tbl, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	courses := map[uint]bool{}
	var (
		questions []*models.AdaptiveQuestion
		zeros     []map[string]interface{}
	)
	for i, row := range tbl.rows {
		line := i + 2
		if blank(row) {
			continue
		}

		req := questionRequestFromRow(tbl, row)
		if err := validate(s.validator, req); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		exists, seen := courses[req.CourseID]
		if !seen {
			_, err := loadCourse(ctx, s.repo, nil, req.CourseID)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, ErrCourseNotFound):
				exists = false
			default:
				return nil, err
			}
			courses[req.CourseID] = exists
		}
		if !exists {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: course %d not found", line, req.CourseID))
			continue
		}

		q, z := newAdaptiveQuestion(req, userID)
		questions = append(questions, q)
		zeros = append(zeros, z)
	}

	if len(questions) > 0 {
		err := s.withTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.AdaptiveQuestion().CreateBatch(ctx, tx, questions); err != nil {
				return err
			}
			for i, q := range questions {
				if err := restoreZeroValues(ctx, tx, q, zeros[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		courseIDs := make([]uint, 0, len(questions))
		for _, q := range questions {
			courseIDs = append(courseIDs, q.CourseID)
		}
		s.repo.AdaptiveQuestion().InvalidatePool(ctx, courseIDs...)
	}
	result.Created = len(questions)

	s.logger.Info("Adaptive questions imported", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func questionRequestFromRow(t *table, row []string) *CreateAdaptiveQuestionRequest {
	req := &CreateAdaptiveQuestionRequest{
		QuestionText:       t.get(row, "question_text"),
		QuestionType:       strings.ToLower(t.get(row, "question_type")),
		DifficultyLevel:    strings.ToLower(t.get(row, "difficulty_level")),
		CorrectAnswer:      t.get(row, "correct_answer"),
		Explanation:        t.get(row, "explanation"),
		Options:            t.getList(row, "options"),
		Tags:               t.getList(row, "tags"),
		LearningObjectives: t.getList(row, "learning_objectives"),
	}
	if v, ok := t.getInt(row, "course_id"); ok && v > 0 {
		req.CourseID = uint(v)
	}
	if v, ok := t.getInt(row, "topic_id"); ok && v > 0 {
		req.TopicID = uintPtr(uint(v))
	}
	if v, ok := t.getInt(row, "points"); ok {
		req.Points = v
	}
	if v, ok := t.getInt(row, "time_limit_seconds"); ok {
		req.TimeLimitSeconds = v
	}
	if v, ok := t.getFloat(row, "initial_difficulty"); ok {
		req.InitialDifficulty = &v
	}
	if v, ok := t.getFloat(row, "discrimination"); ok {
		req.Discrimination = &v
	}
	if v, ok := t.getFloat(row, "guessing"); ok {
		req.Guessing = &v
	}
	return req
}

// ExportQuestions writes the matching questions to an .xlsx workbook and returns the row count
func (s *adaptiveService) ExportQuestions(ctx context.Context, filters repositories.AdaptiveQuestionFilters, w io.Writer) (int, error) {
	questions, _, err := s.repo.AdaptiveQuestion().List(ctx, nil, filters)
	if err != nil {
		return 0, fmt.Errorf("failed to list questions: %w", err)
	}

	rows := make([][]interface{}, 0, len(questions))
	for _, q := range questions {
		var topic interface{} = ""
		if q.TopicID != nil {
			topic = *q.TopicID
		}
		rows = append(rows, []interface{}{
			q.ID, q.CourseID, topic, q.QuestionText, string(q.QuestionType), string(q.DifficultyLevel),
			q.Points, strings.Join(stringList(q.Options), "|"), q.CorrectAnswer, q.Explanation, q.InitialDifficulty,
			q.Discrimination, q.Guessing, q.TimeLimitSeconds, strings.Join(stringList(q.Tags), "|"),
			strings.Join(stringList(q.LearningObjectives), "|"), q.IsActive, q.TimesUsed, q.CorrectResponses,
			q.AverageResponseTime,
		})
	}

	if err := writeWorkbook(w, sheet{name: "Questions", header: questionColumns, rows: rows}); err != nil {
		return 0, err
	}
	s.logger.Info("Adaptive questions exported", "count", len(rows))
	return len(rows), nil
}

// ===== ASSESSMENTS =====

func (s *adaptiveService) ListAssessments(ctx context.Context, userID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	filters.UserID = &userID
	if filters.Limit <= 0 {
		filters.Limit = defaultAssessmentLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	assessments, total, err := s.repo.AdaptiveAssessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return &AssessmentListResponse{
		Data:       assessments,
		Pagination: newPagination(filters.Offset/filters.Limit+1, filters.Limit, total),
	}, nil
}

func (s *adaptiveService) CreateAssessment(ctx context.Context, req *CreateAdaptiveAssessmentRequest, userID string) (*models.AdaptiveAssessment, error) {
	s.logger.Info("Creating adaptive assessment", "course_id", req.CourseID, "user_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.repo, nil, userID); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, req.CourseID, req.TopicID); err != nil {
		return nil, err
	}

	a := &models.AdaptiveAssessment{
		UserID:                   userID,
		CourseID:                 req.CourseID,
		TopicID:                  req.TopicID,
		Title:                    req.Title,
		Description:              req.Description,
		AssessmentType:           models.AssessmentAdaptive,
		MaxQuestions:             20,
		TimeLimitMinutes:         30,
		InitialDifficulty:        0.5,
		DifficultyAdjustmentRate: 0.1,
		ConfidenceThreshold:      0.8,
		StartedAt:                now(),
		Status:                   models.AssessmentInProgress,
	}
	if req.AssessmentType != "" {
		a.AssessmentType = models.AssessmentType(req.AssessmentType)
	}
	if req.MaxQuestions > 0 {
		a.MaxQuestions = req.MaxQuestions
	}
	if req.TimeLimitMinutes > 0 {
		a.TimeLimitMinutes = req.TimeLimitMinutes
	}

	zeros := map[string]interface{}{}
	if req.InitialDifficulty != nil {
		a.InitialDifficulty = *req.InitialDifficulty
		if a.InitialDifficulty == 0 {
			zeros["initial_difficulty"] = 0.0
		}
	}
	if req.DifficultyAdjustmentRate != nil {
		a.DifficultyAdjustmentRate = *req.DifficultyAdjustmentRate
	}
	if req.ConfidenceThreshold != nil {
		a.ConfidenceThreshold = *req.ConfidenceThreshold
		if a.ConfidenceThreshold == 0 {
			zeros["confidence_threshold"] = 0.0
		}
	}
	a.CurrentDifficulty = a.InitialDifficulty

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.AdaptiveAssessment().Create(ctx, tx, a); err != nil {
			return err
		}
		return restoreZeroValues(ctx, tx, a, zeros)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Adaptive assessment created", "assessment_id", a.ID)
	return a, nil
}

// loadOwnAssessment hides assessments of other users behind ErrAssessmentNotFound
func (s *adaptiveService) loadOwnAssessment(ctx context.Context, tx *gorm.DB, id uint, userID string, forUpdate bool) (*models.AdaptiveAssessment, error) {
	var (
		a   *models.AdaptiveAssessment
		err error
	)
	if forUpdate {
		a, err = s.repo.AdaptiveAssessment().GetForUpdate(ctx, tx, id)
	} else {
		a, err = s.repo.AdaptiveAssessment().GetByID(ctx, tx, id)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if a.UserID != userID {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

func (s *adaptiveService) loadInProgress(ctx context.Context, tx *gorm.DB, id uint, userID string, forUpdate bool) (*models.AdaptiveAssessment, error) {
	a, err := s.loadOwnAssessment(ctx, tx, id, userID, forUpdate)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AssessmentInProgress {
		return nil, ErrAssessmentNotInProgress
	}
	return a, nil
}

func (s *adaptiveService) nextQuestion(ctx context.Context, tx *gorm.DB, a *models.AdaptiveAssessment) (*models.AdaptiveQuestion, error) {
	pool, err := s.repo.AdaptiveQuestion().Pool(ctx, tx, a.CourseID, a.TopicID)
	if err != nil {
		return nil, err
	}
	answered, err := s.repo.AdaptiveAssessment().AnsweredQuestionIDs(ctx, tx, a.ID)
	if err != nil {
		return nil, err
	}
	return s.engine.SelectNextQuestion(a, pool, answered), nil
}

func (s *adaptiveService) Start(ctx context.Context, id uint, userID string) (*StartAssessmentResponse, error) {
	s.logger.Info("Starting adaptive assessment", "assessment_id", id, "user_id", userID)

	a, err := s.loadInProgress(ctx, nil, id, userID, false)
	if err != nil {
		return nil, err
	}
	q, err := s.nextQuestion(ctx, nil, a)
	if err != nil {
		return nil, fmt.Errorf("failed to select question: %w", err)
	}
	if q == nil {
		return nil, ErrNoQuestionsAvailable
	}
	return &StartAssessmentResponse{Assessment: a, Question: newQuestionView(q)}, nil
}

func (s *adaptiveService) CurrentQuestion(ctx context.Context, id uint, userID string) (*CurrentQuestionResponse, error) {
	a, err := s.loadInProgress(ctx, nil, id, userID, false)
	if err != nil {
		return nil, err
	}
	q, err := s.nextQuestion(ctx, nil, a)
	if err != nil {
		return nil, fmt.Errorf("failed to select question: %w", err)
	}

	if q == nil {
		completed, err := s.completeAssessment(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return &CurrentQuestionResponse{
			AssessmentComplete: true,
			Progress:           adaptive.Progress(completed),
			CurrentDifficulty:  completed.CurrentDifficulty,
			Assessment:         completed,
		}, nil
	}

	return &CurrentQuestionResponse{
		Question:          newQuestionView(q),
		Progress:          adaptive.Progress(a),
		CurrentDifficulty: a.CurrentDifficulty,
	}, nil
}

// completeAssessment closes an in-progress assessment once and announces it
func (s *adaptiveService) completeAssessment(ctx context.Context, id uint) (*models.AdaptiveAssessment, error) {
	var (
		a         *models.AdaptiveAssessment
		completed bool
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.AdaptiveAssessment().GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to get assessment: %w", err)
		}
		a = locked
		if a.Status != models.AssessmentInProgress {
			return nil
		}
		adaptive.Complete(a, now())
		completed = true
		return s.repo.AdaptiveAssessment().Update(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	if completed {
		s.publishCompleted(ctx, a)
	}
	return a, nil
}

func (s *adaptiveService) publishCompleted(ctx context.Context, a *models.AdaptiveAssessment) {
	payload := events.AssessmentCompletedPayload{
		AssessmentID:      a.ID,
		CourseID:          a.CourseID,
		QuestionsAnswered: a.QuestionsAnswered,
	}
	if a.FinalScore != nil {
		payload.FinalScore = *a.FinalScore
	}
	if a.ProficiencyLevel != nil {
		payload.ProficiencyLevel = string(*a.ProficiencyLevel)
	}
	if err := events.Publish(ctx, s.publisher, events.TopicAssessmentCompleted, a.UserID, payload); err != nil {
		s.logger.Warn("Failed to publish assessment completion", "assessment_id", a.ID, "error", err)
	}
	s.logger.Info("Adaptive assessment completed", "assessment_id", a.ID, "final_score", payload.FinalScore)
}

// SubmitAnswer records one answer and moves the assessment state forward in a single transaction
func (s *adaptiveService) SubmitAnswer(ctx context.Context, id uint, req *SubmitAdaptiveAnswerRequest, userID string) (*SubmitAnswerResponse, error) {
	s.logger.Info("Submitting adaptive answer", "assessment_id", id, "question_id", req.QuestionID, "user_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var (
		resp       *SubmitAnswerResponse
		assessment *models.AdaptiveAssessment
		poolCourse uint
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		a, err := s.loadInProgress(ctx, tx, id, userID, true)
		if err != nil {
			return err
		}

		q, err := s.repo.AdaptiveQuestion().GetByID(ctx, tx, req.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if q.CourseID != a.CourseID {
			return ErrQuestionNotFound
		}

		answered, err := s.repo.AdaptiveAssessment().HasResponse(ctx, tx, a.ID, q.ID)
		if err != nil {
			return fmt.Errorf("failed to check response: %w", err)
		}
		if answered {
			return ErrQuestionAlreadyAnswered
		}

		prior, err := s.repo.AdaptiveAssessment().ListResponses(ctx, tx, a.ID, false)
		if err != nil {
			return err
		}

		correct := normalizeAnswer(req.UserAnswer) == normalizeAnswer(q.CorrectAnswer)
		answeredAt := now()
		response := &models.AssessmentResponse{
			AssessmentID:        a.ID,
			QuestionID:          q.ID,
			UserID:              userID,
			UserAnswer:          req.UserAnswer,
			IsCorrect:           correct,
			QuestionStartedAt:   answeredAt.Add(-time.Duration(req.ResponseTime * float64(time.Second))),
			AnsweredAt:          answeredAt,
			ResponseTimeSeconds: req.ResponseTime,
			QuestionDifficulty:  adaptive.DifficultyScore(q),
			UserAbilityEstimate: adaptive.EstimateAbility(prior),
		}
		if correct {
			response.PointsEarned = float64(q.Points)
		}

		feedback := adaptive.BuildFeedback(response, q.Explanation)
		response.FeedbackGiven = strings.Join(feedback.Suggestions, " ")
		response.ExplanationShown = feedback.Explanation != nil

		if err := s.repo.AdaptiveAssessment().CreateResponse(ctx, tx, response); err != nil {
			return err
		}

		a.QuestionsAnswered++
		a.CurrentQuestionIndex++
		if correct {
			a.CorrectAnswers++
		}
		adaptive.AdjustDifficulty(a, correct)

		adaptive.RecordUsage(q, correct, req.ResponseTime)
		if err := s.repo.AdaptiveQuestion().UpdateStatistics(ctx, tx, q); err != nil {
			return err
		}
		poolCourse = q.CourseID

		done := adaptive.ShouldTerminate(a, append(prior, *response)) || a.QuestionsAnswered >= a.MaxQuestions
		if done {
			adaptive.Complete(a, answeredAt)
		}
		if err := s.repo.AdaptiveAssessment().Update(ctx, tx, a); err != nil {
			return err
		}

		resp = &SubmitAnswerResponse{
			AssessmentComplete: done,
			Feedback:           feedback,
			Progress:           adaptive.Progress(a),
			CurrentDifficulty:  a.CurrentDifficulty,
		}
		if done {
			resp.Assessment = a
		}
		assessment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.AdaptiveQuestion().InvalidatePool(ctx, poolCourse)
	observability.AdaptiveAnswers.WithLabelValues(strconv.FormatBool(resp.Feedback.IsCorrect)).Inc()
	if resp.AssessmentComplete {
		s.publishCompleted(ctx, assessment)
	}
	return resp, nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *adaptiveService) Abandon(ctx context.Context, id uint, userID string) (*models.AdaptiveAssessment, error) {
	s.logger.Info("Abandoning adaptive assessment", "assessment_id", id, "user_id", userID)

	var a *models.AdaptiveAssessment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.loadOwnAssessment(ctx, tx, id, userID, true)
		if err != nil {
			return err
		}
		if errs := s.validator.Business().ValidateStatusTransition(locked.Status, models.AssessmentAbandoned); len(errs) > 0 {
			return ErrAssessmentNotInProgress
		}

		locked.Status = models.AssessmentAbandoned
		locked.TimeSpentMinutes = int(now().Sub(locked.StartedAt).Minutes())
		a = locked
		return s.repo.AdaptiveAssessment().Update(ctx, tx, locked)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *adaptiveService) Results(ctx context.Context, id uint, userID string) (*AssessmentResultsResponse, error) {
	a, err := s.loadOwnAssessment(ctx, nil, id, userID, false)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AssessmentCompleted {
		return nil, ErrAssessmentNotCompleted
	}

	responses, err := s.repo.AdaptiveAssessment().ListResponses(ctx, nil, a.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return &AssessmentResultsResponse{
		Assessment: a,
		Responses:  responses,
		Statistics: buildStatistics(responses),
	}, nil
}

func timeBand(seconds float64) string {
	switch {
	case seconds < 30:
		return "fast"
	case seconds < 60:
		return "medium"
	default:
		return "slow"
	}
}

func tally(buckets map[string]*BucketStats, key string, correct bool) {
	b, ok := buckets[key]
	if !ok {
		b = &BucketStats{}
		buckets[key] = b
	}
	b.Total++
	if correct {
		b.Correct++
	}
}

func buildStatistics(responses []models.AssessmentResponse) AssessmentStatistics {
	stats := AssessmentStatistics{
		ByQuestionType: map[string]*BucketStats{},
		ByDifficulty:   map[string]*BucketStats{},
		ByTimeBand: map[string]*BucketStats{
			"fast":   {},
			"medium": {},
			"slow":   {},
		},
		TotalQuestions: len(responses),
	}

	var totalTime float64
	for _, r := range responses {
		questionType, difficulty := "unknown", "unknown"
		if r.Question != nil {
			questionType = string(r.Question.QuestionType)
			difficulty = string(r.Question.DifficultyLevel)
		}
		tally(stats.ByQuestionType, questionType, r.IsCorrect)
		tally(stats.ByDifficulty, difficulty, r.IsCorrect)
		tally(stats.ByTimeBand, timeBand(r.ResponseTimeSeconds), r.IsCorrect)

		if r.IsCorrect {
			stats.CorrectAnswers++
		}
		totalTime += r.ResponseTimeSeconds
	}
	if len(responses) > 0 {
		stats.AverageTime = round(totalTime/float64(len(responses)), 2)
	}
	return stats
}

func newQuestionView(q *models.AdaptiveQuestion) *QuestionView {
	return &QuestionView{
		ID:               q.ID,
		QuestionText:     q.QuestionText,
		QuestionType:     q.QuestionType,
		DifficultyLevel:  q.DifficultyLevel,
		Points:           q.Points,
		Options:          nonNilStrings(stringList(q.Options)),
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// ===== ANALYTICS =====

func (s *adaptiveService) GetAnalytics(ctx context.Context, userID string, courseID, topicID *uint) (*models.AdaptiveAnalytics, error) {
	analytics, err := s.repo.AdaptiveAnalytics().GetOrCreate(ctx, nil, userID, courseID, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return analytics, nil
}

// UpdateAnalytics folds one assessment into the user's analytics for its course and topic
func (s *adaptiveService) UpdateAnalytics(ctx context.Context, assessmentID uint, userID string) (*models.AdaptiveAnalytics, error) {
	s.logger.Info("Updating adaptive analytics", "assessment_id", assessmentID, "user_id", userID)

	var analytics *models.AdaptiveAnalytics
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		a, err := s.loadOwnAssessment(ctx, tx, assessmentID, userID, false)
		if err != nil {
			return err
		}
		responses, err := s.repo.AdaptiveAssessment().ListResponses(ctx, tx, a.ID, false)
		if err != nil {
			return err
		}

		record, err := s.repo.AdaptiveAnalytics().GetOrCreate(ctx, tx, userID, &a.CourseID, a.TopicID)
		if err != nil {
			return err
		}
		applyAssessment(record, a, responses, now())
		if err := s.repo.AdaptiveAnalytics().Save(ctx, tx, record); err != nil {
			return err
		}
		analytics = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

func applyAssessment(an *models.AdaptiveAnalytics, a *models.AdaptiveAssessment, responses []models.AssessmentResponse, at time.Time) {
	previousAverage := an.AverageScore

	an.TotalAssessments++
	if a.Status == models.AssessmentCompleted {
		an.CompletedAssessments++
		an.LastAssessmentDate = &at
	}

	if a.FinalScore != nil && *a.FinalScore > 0 {
		score := *a.FinalScore
		n := an.CompletedAssessments
		if n < 1 {
			n = 1
		}
		if previousAverage == 0 {
			an.AverageScore = score
		} else {
			an.AverageScore = (previousAverage*float64(n-1) + score) / float64(n)
		}
		if score > an.BestScore {
			an.BestScore = score
		}
		an.ImprovementRate = round(score-previousAverage, 2)
	}

	var correct int
	var totalTime float64
	for _, r := range responses {
		if r.IsCorrect {
			correct++
		}
		totalTime += r.ResponseTimeSeconds
	}
	previousQuestions := an.TotalQuestionsAnswered
	an.TotalQuestionsAnswered += len(responses)
	an.TotalCorrectAnswers += correct
	if an.TotalQuestionsAnswered > 0 {
		an.AverageTimePerQuestion = (an.AverageTimePerQuestion*float64(previousQuestions) + totalTime) / float64(an.TotalQuestionsAnswered)
	}
	an.TotalTimeMinutes += a.TimeSpentMinutes

	if a.ProficiencyLevel != nil {
		an.CurrentProficiencyLevel = *a.ProficiencyLevel
	}

	progression := append(floatList(an.DifficultyProgression), a.CurrentDifficulty)
	if len(progression) > progressionWindow {
		progression = progression[len(progression)-progressionWindow:]
	}
	an.DifficultyProgression = toJSON(progression)

	// assessments per week since the record was created
	if !an.CreatedAt.IsZero() {
		weeks := at.Sub(an.CreatedAt).Hours() / (24 * 7)
		if weeks < 1 {
			weeks = 1
		}
		an.AssessmentFrequency = round(float64(an.TotalAssessments)/weeks, 2)
	}
}

func (s *adaptiveService) QuickStats(ctx context.Context, userID string) (*QuickStats, error) {
	recent, err := s.repo.AdaptiveAssessment().Recent(ctx, nil, userID, quickStatsRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent assessments: %w", err)
	}

	stats := &QuickStats{
		RecentAssessments:  recent,
		CurrentProficiency: models.ProficiencyBeginner,
	}

	records, err := s.repo.AdaptiveAnalytics().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	if len(records) > 0 {
		latest := records[0]
		if latest.CurrentProficiencyLevel != "" {
			stats.CurrentProficiency = latest.CurrentProficiencyLevel
		}
		stats.ImprovementTrend = latest.ImprovementRate
		stats.TotalAssessments = latest.TotalAssessments
		stats.AverageScore = round(latest.AverageScore, 2)
	}
	return stats, nil
}

// ===== ADMIN =====

func (s *adaptiveService) AdminQuestions(ctx context.Context, userID string, page, size int) (*AdaptiveQuestionListResponse, error) {
	if _, err := requireRole(ctx, s.repo, userID, "adaptive_question", "administer"); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(page, size)
	questions, total, err := s.repo.AdaptiveQuestion().List(ctx, nil, repositories.AdaptiveQuestionFilters{Limit: size, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return &AdaptiveQuestionListResponse{Data: questions, Pagination: newPagination(page, size, total)}, nil
}

func (s *adaptiveService) AdminAnalytics(ctx context.Context, userID string) (*AdaptiveAdminAnalytics, error) {
	if _, err := requireRole(ctx, s.repo, userID, "adaptive_analytics", "view"); err != nil {
		return nil, err
	}

	stats, err := s.repo.AdaptiveAssessment().Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load adaptive statistics: %w", err)
	}

	out := &AdaptiveAdminAnalytics{
		TotalQuestions:        stats.TotalQuestions,
		TotalAssessments:      stats.TotalAssessments,
		CompletedAssessments:  stats.CompletedAssessments,
		TotalResponses:        stats.TotalResponses,
		AverageFinalScore:     round(stats.AverageFinalScore, 2),
		QuestionsByType:       make(map[string]int64, len(stats.QuestionsByType)),
		QuestionsByDifficulty: make(map[string]int64, len(stats.QuestionsByDiff)),
	}
	if stats.TotalAssessments > 0 {
		out.CompletionRate = round(float64(stats.CompletedAssessments)/float64(stats.TotalAssessments)*100, 2)
	}
	for k, v := range stats.QuestionsByType {
		out.QuestionsByType[string(k)] = v
	}
	for k, v := range stats.QuestionsByDiff {
		out.QuestionsByDifficulty[string(k)] = v
	}
	return out, nil
}
