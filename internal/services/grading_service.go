package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/grading"
	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const defaultPendingReviews = 20

type gradingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	llmGrader *grading.LLMGrader
}

// NewGradingService builds the grading service. A nil provider limits grading to the heuristic graders.
func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, provider llm.Provider) GradingService {
	s := &gradingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
	if provider != nil {
		s.llmGrader = grading.NewLLMGrader(provider)
	}
	return s
}

func (s *gradingService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== MODELS AND CRITERIA =====

func (s *gradingService) ListModels(ctx context.Context) ([]*models.GradingModel, error) {
	list, err := s.repo.Grading().ListModels(ctx, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list grading models: %w", err)
	}
	return list, nil
}

func (s *gradingService) CreateModel(ctx context.Context, req *CreateGradingModelRequest, userID string) (*models.GradingModel, error) {
	s.logger.Info("Creating grading model", "name", req.Name, "creator_id", userID)

	if _, err := requireRole(ctx, s.repo, userID, "grading_model", "create", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	model := &models.GradingModel{
		Name:        req.Name,
		ModelType:   models.GradingModelType(req.ModelType),
		GradingType: models.GradingType(req.GradingType),
		Config:      toJSON(req.Config),
		Version:     req.Version,
		IsActive:    true,
		CreatedBy:   userID,
	}
	if model.Version == "" {
		model.Version = "1.0"
	}
	if req.Config == nil {
		model.Config = toJSON(map[string]interface{}{})
	}

	if err := s.repo.Grading().CreateModel(ctx, nil, model); err != nil {
		return nil, fmt.Errorf("failed to create grading model: %w", err)
	}
	return model, nil
}

func (s *gradingService) CreateCriteria(ctx context.Context, req *CreateGradingCriteriaRequest, userID string) (*models.GradingCriteria, error) {
	if _, err := requireRole(ctx, s.repo, userID, "grading_criteria", "create", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.loadQuestion(ctx, nil, req.QuestionID); err != nil {
		return nil, err
	}

	criteria := &models.GradingCriteria{
		QuestionID:   req.QuestionID,
		CriteriaType: req.CriteriaType,
		Weight:       1.0,
		MaxScore:     10,
		Description:  req.Description,
		RubricPoints: toJSON(nonNilStrings(req.RubricPoints)),
		Keywords:     toJSON(nonNilStrings(req.Keywords)),
	}
	if req.Weight != nil {
		criteria.Weight = *req.Weight
	}
	if req.MaxScore != nil {
		criteria.MaxScore = *req.MaxScore
	}

	if err := s.repo.Grading().CreateCriteria(ctx, nil, criteria); err != nil {
		return nil, fmt.Errorf("failed to create grading criteria: %w", err)
	}
	return criteria, nil
}

func (s *gradingService) ListCriteria(ctx context.Context, questionID uint) ([]models.GradingCriteria, error) {
	list, err := s.repo.Grading().ListCriteria(ctx, nil, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grading criteria: %w", err)
	}
	return list, nil
}

func (s *gradingService) loadQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.AdaptiveQuestion, error) {
	q, err := s.repo.AdaptiveQuestion().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// ===== GRADING =====

// gradingTypeFor maps a question type onto the grader family that handles it
func gradingTypeFor(t models.QuestionType) models.GradingType {
	switch t {
	case models.QuestionEssay:
		return models.GradingEssay
	case models.QuestionShortAnswer:
		return models.GradingShortAnswer
	case models.QuestionCode:
		return models.GradingCode
	default:
		return models.GradingOpenEnded
	}
}

func toCriteria(rows []models.GradingCriteria) []grading.Criterion {
	out := make([]grading.Criterion, 0, len(rows))
	for _, c := range rows {
		out = append(out, grading.Criterion{
			Type:         c.CriteriaType,
			Weight:       c.Weight,
			MaxScore:     c.MaxScore,
			RubricPoints: stringList(c.RubricPoints),
			Keywords:     stringList(c.Keywords),
		})
	}
	return out
}

// Grade scores a stored response and writes the outcome back onto it
func (s *gradingService) Grade(ctx context.Context, req *GradeResponseRequest, userID string) (*models.AutoGradingResult, error) {
	s.logger.Info("Grading response", "response_id", req.ResponseID, "user_id", userID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	response, err := s.repo.AdaptiveAssessment().GetResponse(ctx, nil, req.ResponseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if response.UserID != userID {
		if _, err := requireRole(ctx, s.repo, userID, "response", "grade", models.RoleTeacher); err != nil {
			return nil, err
		}
	}

	question := response.Question
	if question == nil {
		if question, err = s.loadQuestion(ctx, nil, response.QuestionID); err != nil {
			return nil, err
		}
	}

	model, err := s.pickModel(ctx, req.ModelID, gradingTypeFor(question.QuestionType))
	if err != nil {
		return nil, err
	}

	criteriaRows, err := s.repo.Grading().ListCriteria(ctx, nil, question.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grading criteria: %w", err)
	}
	criteria := toCriteria(criteriaRows)

	start := time.Now()
	outcome := s.score(ctx, model, question, response.UserAnswer, criteria)
	elapsed := time.Since(start).Seconds()

	result := &models.AutoGradingResult{
		ResponseID:       response.ID,
		ModelID:          model.ID,
		OverallScore:     round(outcome.OverallScore, 2),
		ConfidenceScore:  outcome.Confidence,
		CriteriaScores:   toJSON(outcome.CriteriaScores),
		FeedbackText:     outcome.FeedbackText,
		Suggestions:      toJSON(nonNilStrings(outcome.Suggestions)),
		Strengths:        toJSON(nonNilStrings(outcome.Strengths)),
		Weaknesses:       toJSON(nonNilStrings(outcome.Weaknesses)),
		ProcessingTime:   elapsed,
		ModelVersion:     model.Version,
		GradedAt:         now(),
		NeedsHumanReview: outcome.NeedsReview(),
	}
	if result.NeedsHumanReview {
		result.ReviewReason = fmt.Sprintf("low confidence score %.2f", outcome.Confidence)
	}

	response.PointsEarned = result.OverallScore
	response.IsCorrect = result.OverallScore >= grading.PassingScore

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Grading().CreateResult(ctx, tx, result); err != nil {
			return err
		}
		return s.repo.AdaptiveAssessment().UpdateResponse(ctx, tx, response)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store grading result: %w", err)
	}

	s.logger.Info("Response graded", "response_id", response.ID, "score", result.OverallScore, "needs_review", result.NeedsHumanReview)
	return result, nil
}

func (s *gradingService) pickModel(ctx context.Context, modelID *uint, gradingType models.GradingType) (*models.GradingModel, error) {
	if modelID != nil {
		model, err := s.repo.Grading().GetModel(ctx, nil, *modelID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrGradingModelNotFound
			}
			return nil, fmt.Errorf("failed to get grading model: %w", err)
		}
		return model, nil
	}

	model, err := s.repo.Grading().FirstActiveModel(ctx, nil, gradingType)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoGradingModel
		}
		return nil, fmt.Errorf("failed to find grading model: %w", err)
	}
	return model, nil
}

// score uses the LLM grader for llm models when available and the heuristics otherwise
func (s *gradingService) score(ctx context.Context, model *models.GradingModel, question *models.AdaptiveQuestion, answer string, criteria []grading.Criterion) *grading.Result {
	if model.ModelType == models.GradingModelLLM && s.llmGrader != nil {
		result, err := s.llmGrader.Grade(ctx, question.QuestionText, answer, criteria)
		if err == nil {
			return result
		}
		s.logger.Warn("LLM grading failed, using heuristic grader", "model_id", model.ID, "error", err)
	}
	return grading.Heuristic(model.GradingType, answer, criteria)
}

func (s *gradingService) GetResult(ctx context.Context, responseID uint, userID string) (*models.AutoGradingResult, error) {
	response, err := s.repo.AdaptiveAssessment().GetResponse(ctx, nil, responseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if response.UserID != userID {
		if _, err := requireRole(ctx, s.repo, userID, "grading_result", "view", models.RoleTeacher); err != nil {
			return nil, err
		}
	}

	result, err := s.repo.Grading().GetLatestResultForResponse(ctx, nil, responseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGradingResultNotFound
		}
		return nil, fmt.Errorf("failed to get grading result: %w", err)
	}
	return result, nil
}

// ===== HUMAN REVIEW =====

func (s *gradingService) Review(ctx context.Context, req *HumanReviewRequest, userID string) (*models.HumanReview, error) {
	s.logger.Info("Reviewing grading result", "grading_result_id", req.GradingResultID, "reviewer_id", userID)

	if _, err := requireRole(ctx, s.repo, userID, "grading_result", "review", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	result, err := s.repo.Grading().GetResult(ctx, nil, req.GradingResultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGradingResultNotFound
		}
		return nil, fmt.Errorf("failed to get grading result: %w", err)
	}

	review := &models.HumanReview{
		GradingResultID:       result.ID,
		ReviewerID:            userID,
		HumanScore:            req.HumanScore,
		ScoreDifference:       round(math.Abs(req.HumanScore-result.OverallScore), 2),
		ReviewNotes:           req.ReviewNotes,
		AIAccuracyRating:      req.AIAccuracyRating,
		FeedbackQualityRating: req.FeedbackQualityRating,
		ReviewedAt:            now(),
		ReviewDuration:        req.ReviewDuration,
	}
	if err := s.repo.Grading().CreateReview(ctx, nil, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (s *gradingService) PendingReviews(ctx context.Context, userID string, limit int) ([]*models.AutoGradingResult, error) {
	if _, err := requireRole(ctx, s.repo, userID, "grading_result", "review", models.RoleTeacher); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPendingReviews
	}
	results, err := s.repo.Grading().PendingReviews(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return results, nil
}

func (s *gradingService) Analytics(ctx context.Context, userID string) (*repositories.GradingStats, error) {
	if _, err := requireRole(ctx, s.repo, userID, "grading_analytics", "view", models.RoleTeacher); err != nil {
		return nil, err
	}
	stats, err := s.repo.Grading().Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load grading statistics: %w", err)
	}
	return stats, nil
}
