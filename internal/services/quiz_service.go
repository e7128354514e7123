package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	defaultPassingScore = 70.0
	defaultMaxAttempts  = 3
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *quizService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== QUIZZES =====

func (s *quizService) Create(ctx context.Context, topicID uint, req *CreateQuizRequest, userID string) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "topic_id", topicID, "creator_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if err := validationFailure(s.validator.Business().ValidateQuizQuestions(req.Questions)); err != nil {
		return nil, err
	}

	topic, err := loadTopic(ctx, s.repo, nil, topicID)
	if err != nil {
		return nil, err
	}
	if _, err := requireCourseOwner(ctx, s.repo, topic.CourseID, userID, "quiz", "create"); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		TopicID:          topicID,
		Title:            req.Title,
		Description:      req.Description,
		QuizType:         models.QuizPractice,
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassingScore:     defaultPassingScore,
		MaxAttempts:      defaultMaxAttempts,
		IsActive:         true,
	}
	if req.QuizType != "" {
		quiz.QuizType = models.QuizType(req.QuizType)
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}

	for i, q := range req.Questions {
		question := models.QuizQuestion{
			QuestionText: q.QuestionText,
			QuestionType: models.QuizQuestionType(q.QuestionType),
			Points:       q.Points,
			OrderIndex:   i,
			Explanation:  q.Explanation,
		}
		if question.Points == 0 {
			question.Points = 1
		}
		for j, o := range q.Options {
			question.Options = append(question.Options, models.QuizOption{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
				OrderIndex: j,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return quiz, nil
}

// Get returns the quiz with its questions. Only course staff see the answer key.
func (s *quizService) Get(ctx context.Context, id uint, userID string) (*QuizView, error) {
	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	return buildQuizView(quiz, canEdit), nil
}

func buildQuizView(quiz *models.Quiz, showAnswers bool) *QuizView {
	view := &QuizView{Quiz: quiz, CanEdit: showAnswers, Questions: make([]QuizQuestionView, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		qv := QuizQuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Points:       q.Points,
			OrderIndex:   q.OrderIndex,
			Options:      make([]QuizOptionView, 0, len(q.Options)),
		}
		if showAnswers {
			qv.Explanation = q.Explanation
		}
		for _, o := range q.Options {
			// short answer options are the accepted answers
			if !showAnswers && q.QuestionType == models.QuizShortAnswer {
				continue
			}
			ov := QuizOptionView{ID: o.ID, OptionText: o.OptionText, OrderIndex: o.OrderIndex}
			if showAnswers {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

func (s *quizService) canManageQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	topic, err := loadTopic(ctx, s.repo, nil, quiz.TopicID)
	if err != nil {
		return false, err
	}
	course, err := loadCourse(ctx, s.repo, nil, topic.CourseID)
	if err != nil {
		return false, err
	}
	return canManageCourse(ctx, s.repo, course, userID)
}

func (s *quizService) ListByTopic(ctx context.Context, topicID uint) ([]*models.Quiz, error) {
	if _, err := loadTopic(ctx, s.repo, nil, topicID); err != nil {
		return nil, err
	}
	quizzes, err := s.repo.Quiz().ListByTopic(ctx, nil, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

// ===== ATTEMPTS =====

func (s *quizService) StartAttempt(ctx context.Context, quizID uint, userID string) (*models.QuizAttempt, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "student_id", userID)

	var attempt *models.QuizAttempt
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		// the quiz row lock serialises attempt numbering
		quiz, err := s.repo.Quiz().GetForUpdate(ctx, tx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if !quiz.IsActive || quiz.IsRemoved {
			return ErrQuizNotFound
		}

		topic, err := loadTopic(ctx, s.repo, tx, quiz.TopicID)
		if err != nil {
			return err
		}
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, tx, userID, topic.CourseID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		prior, err := s.repo.Quiz().CountAttempts(ctx, tx, quizID, userID)
		if err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		if quiz.MaxAttempts > 0 && prior >= int64(quiz.MaxAttempts) {
			return ErrMaxAttemptsReached
		}

		attempt = &models.QuizAttempt{
			QuizID:        quizID,
			StudentID:     userID,
			AttemptNumber: int(prior) + 1,
			StartedAt:     now(),
		}
		return s.repo.Quiz().CreateAttempt(ctx, tx, attempt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz attempt started", "attempt_id", attempt.ID, "attempt_number", attempt.AttemptNumber)
	return attempt, nil
}

// SubmitAttempt scores the answers once. Unanswered questions earn nothing.
func (s *quizService) SubmitAttempt(ctx context.Context, quizID, attemptID uint, req *SubmitQuizRequest, userID string) (*QuizResult, error) {
	s.logger.Info("Submitting quiz attempt", "quiz_id", quizID, "attempt_id", attemptID, "student_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var result *QuizResult
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		attempt, err := s.repo.Quiz().GetAttemptForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.QuizID != quizID || attempt.StudentID != userID {
			return ErrAttemptNotFound
		}
		if attempt.IsSubmitted() {
			return ErrAttemptAlreadySubmitted
		}

		quiz, err := s.repo.Quiz().GetWithQuestions(ctx, tx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}

		answers, score, maxScore := scoreQuiz(quiz, attempt.ID, req.Answers)

		completedAt := now()
		attempt.CompletedAt = &completedAt
		attempt.Score = score
		attempt.MaxScore = maxScore
		if maxScore > 0 {
			attempt.Percentage = round(score/maxScore*100, 2)
		}
		attempt.Passed = attempt.Percentage >= quiz.PassingScore
		attempt.TimeTakenSeconds = int(completedAt.Sub(attempt.StartedAt).Seconds())

		if err := s.repo.Quiz().SaveAttempt(ctx, tx, attempt); err != nil {
			if errors.Is(err, repositories.ErrConditionFailed) {
				return ErrAttemptAlreadySubmitted
			}
			return err
		}
		if err := s.repo.Quiz().CreateAnswers(ctx, tx, answers); err != nil {
			return err
		}
		attempt.Answers = answers

		result = &QuizResult{
			Attempt:    attempt,
			Score:      score,
			MaxScore:   maxScore,
			Percentage: attempt.Percentage,
			Passed:     attempt.Passed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := events.QuizCompletedPayload{
		QuizID:     quizID,
		AttemptID:  attemptID,
		Percentage: result.Percentage,
		Passed:     result.Passed,
	}
	if err := events.Publish(ctx, s.publisher, events.TopicQuizCompleted, userID, payload); err != nil {
		s.logger.Warn("Failed to publish quiz completion", "attempt_id", attemptID, "error", err)
	}

	s.logger.Info("Quiz attempt submitted", "attempt_id", attemptID, "percentage", result.Percentage, "passed", result.Passed)
	return result, nil
}

// scoreQuiz grades every submitted answer against the quiz questions
func scoreQuiz(quiz *models.Quiz, attemptID uint, submitted []validator.QuizAnswerRequest) ([]models.QuizAnswer, float64, float64) {
	byQuestion := make(map[uint]validator.QuizAnswerRequest, len(submitted))
	for _, a := range submitted {
		byQuestion[a.QuestionID] = a
	}

	var (
		answers  []models.QuizAnswer
		score    float64
		maxScore float64
	)
	for _, q := range quiz.Questions {
		maxScore += float64(q.Points)

		in, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		answer := models.QuizAnswer{
			AttemptID:  attemptID,
			QuestionID: q.ID,
			OptionID:   in.OptionID,
			TextAnswer: in.TextAnswer,
			IsCorrect:  isQuizAnswerCorrect(q, in),
		}
		if answer.IsCorrect {
			answer.PointsEarned = float64(q.Points)
			score += answer.PointsEarned
		}
		answers = append(answers, answer)
	}
	return answers, score, maxScore
}

func isQuizAnswerCorrect(q models.QuizQuestion, in validator.QuizAnswerRequest) bool {
	switch q.QuestionType {
	case models.QuizShortAnswer:
		if in.TextAnswer == nil {
			return false
		}
		given := strings.ToLower(strings.TrimSpace(*in.TextAnswer))
		for _, o := range q.Options {
			if o.IsCorrect && strings.ToLower(strings.TrimSpace(o.OptionText)) == given {
				return true
			}
		}
		return false
	default:
		if in.OptionID == nil {
			return false
		}
		for _, o := range q.Options {
			if o.ID == *in.OptionID {
				return o.IsCorrect
			}
		}
		return false
	}
}

func (s *quizService) ListAttempts(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error) {
	if _, err := s.repo.Quiz().GetByID(ctx, nil, quizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	attempts, err := s.repo.Quiz().ListAttempts(ctx, nil, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}
