package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/observability"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	defaultLeaderboardEntries = 100
	defaultTimePeriod         = "all_time"
	defaultNotificationLimit  = 50

	achievementScore90 = "assessment_score_90"
	achievementPerfect = "perfect_assessment"
)

var achievementNames = map[string]string{
	"login_streak":      "Consistent Learner",
	achievementScore90:  "High Achiever",
	"courses_completed": "Course Finisher",
	"total_points":      "Point Collector",
	achievementPerfect:  "Perfectionist",
}

type gamificationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewGamificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) GamificationService {
	return &gamificationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *gamificationService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// reward collects what one credit changed so events go out after commit
type reward struct {
	userID    string
	points    *models.UserPoints
	leveledUp bool
	badges    []*models.Badge
}

// ===== BADGES =====

func (s *gamificationService) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	badges, err := s.repo.Gamification().ListBadges(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *gamificationService) UserBadges(ctx context.Context, userID string) ([]*models.UserBadge, error) {
	badges, err := s.repo.Gamification().ListUserBadges(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return badges, nil
}

func (s *gamificationService) CreateBadge(ctx context.Context, req *CreateBadgeRequest, userID string) (*models.Badge, error) {
	s.logger.Info("Creating badge", "name", req.Name, "creator_id", userID)

	if _, err := requireRole(ctx, s.repo, userID, "badge", "create"); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Gamification().GetBadgeByName(ctx, nil, req.Name); err == nil {
		return nil, NewValidationError("name", "badge name already exists", req.Name)
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check badge name: %w", err)
	}

	badge := &models.Badge{
		Name:             req.Name,
		Description:      req.Description,
		BadgeType:        req.BadgeType,
		Category:         req.Category,
		Icon:             req.Icon,
		Color:            req.Color,
		Rarity:           req.Rarity,
		CriteriaType:     models.BadgeCriteriaType(req.CriteriaType),
		CriteriaValue:    req.CriteriaValue,
		PointsReward:     req.PointsReward,
		ExperienceReward: req.ExperienceReward,
		IsActive:         true,
	}
	if badge.Rarity == "" {
		badge.Rarity = "common"
	}
	if err := s.repo.Gamification().CreateBadge(ctx, nil, badge); err != nil {
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}

	s.logger.Info("Badge created", "badge_id", badge.ID, "criteria", badge.CriteriaType)
	return badge, nil
}

// CheckBadges awards every badge of the criteria type that value now reaches
func (s *gamificationService) CheckBadges(ctx context.Context, userID string, criteria models.BadgeCriteriaType, value float64) ([]*models.Badge, error) {
	var r *reward
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		points, err := s.loadPoints(ctx, tx, userID)
		if err != nil {
			return err
		}
		r = &reward{userID: userID, points: points}
		if err := s.awardBadges(ctx, tx, r, criteria, value); err != nil {
			return err
		}
		return s.settle(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, r)
	return r.badges, nil
}

// awardBadges grants eligible badges and credits their rewards to r.points
func (s *gamificationService) awardBadges(ctx context.Context, tx *gorm.DB, r *reward, criteria models.BadgeCriteriaType, value float64) error {
	eligible, err := s.repo.Gamification().EligibleBadges(ctx, tx, r.userID, criteria, value)
	if err != nil {
		return fmt.Errorf("failed to find eligible badges: %w", err)
	}

	for _, badge := range eligible {
		userBadge := &models.UserBadge{
			UserID:   r.userID,
			BadgeID:  badge.ID,
			EarnedAt: now(),
			Progress: 100,
		}
		if err := s.repo.Gamification().AwardBadge(ctx, tx, userBadge); err != nil {
			return err
		}
		if r.points.AddPoints(badge.PointsReward, badge.ExperienceReward) {
			r.leveledUp = true
		}
		if err := s.notify(ctx, tx, r.userID, models.NotificationBadgeEarned,
			"Badge Earned: "+badge.Name, badge.Description,
			events.BadgeEarnedPayload{BadgeID: badge.ID, BadgeName: badge.Name, Points: badge.PointsReward}); err != nil {
			return err
		}
		r.badges = append(r.badges, badge)
	}
	return nil
}

// settle saves the points record and writes the level-up notification
func (s *gamificationService) settle(ctx context.Context, tx *gorm.DB, r *reward) error {
	if err := s.repo.Gamification().SavePoints(ctx, tx, r.points); err != nil {
		return fmt.Errorf("failed to save points: %w", err)
	}
	if !r.leveledUp {
		return nil
	}
	return s.notify(ctx, tx, r.userID, models.NotificationLevelUp, "Level Up!",
		fmt.Sprintf("Congratulations! You reached level %d.", r.points.Level),
		events.LevelUpPayload{Level: r.points.Level})
}

// announce publishes the badge and level events of a committed reward
func (s *gamificationService) announce(ctx context.Context, r *reward) {
	for _, badge := range r.badges {
		observability.BadgeAwards.Inc()
		payload := events.BadgeEarnedPayload{BadgeID: badge.ID, BadgeName: badge.Name, Points: badge.PointsReward}
		if err := events.Publish(ctx, s.publisher, events.TopicBadgeEarned, r.userID, payload); err != nil {
			s.logger.Warn("Failed to publish badge event", "user_id", r.userID, "badge_id", badge.ID, "error", err)
		}
		s.logger.Info("Badge awarded", "user_id", r.userID, "badge", badge.Name)
	}
	if r.leveledUp {
		if err := events.Publish(ctx, s.publisher, events.TopicLevelUp, r.userID, events.LevelUpPayload{Level: r.points.Level}); err != nil {
			s.logger.Warn("Failed to publish level event", "user_id", r.userID, "error", err)
		}
		s.logger.Info("User leveled up", "user_id", r.userID, "level", r.points.Level)
	}
}

func (s *gamificationService) notify(ctx context.Context, tx *gorm.DB, userID string, kind models.NotificationType, title, message string, data interface{}) error {
	n := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    toJSON(data),
	}
	if err := s.repo.Notification().Create(ctx, tx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ===== POINTS =====

// loadPoints returns the user's points record, creating it on first use
func (s *gamificationService) loadPoints(ctx context.Context, tx *gorm.DB, userID string) (*models.UserPoints, error) {
	points, err := s.repo.Gamification().GetPoints(ctx, tx, userID)
	if err == nil {
		return points, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get points: %w", err)
	}
	points = models.NewUserPoints(userID)
	if err := s.repo.Gamification().SavePoints(ctx, tx, points); err != nil {
		return nil, fmt.Errorf("failed to create points: %w", err)
	}
	return points, nil
}

func (s *gamificationService) GetPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	var points *models.UserPoints
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		points, err = s.loadPoints(ctx, tx, userID)
		return err
	})
	return points, err
}

// AddPoints credits points to the caller, or to any user when the caller is staff
func (s *gamificationService) AddPoints(ctx context.Context, req *AddPointsRequest, callerID string) (*AddPointsResult, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	target := req.UserID
	if target == "" {
		target = callerID
	}
	if target != callerID {
		if _, err := requireRole(ctx, s.repo, callerID, "points", "award", models.RoleTeacher); err != nil {
			return nil, err
		}
	}
	if _, err := loadUser(ctx, s.repo, nil, target); err != nil {
		return nil, err
	}

	experience := req.Points
	if req.Experience != nil {
		experience = *req.Experience
	}

	s.logger.Info("Adding points", "user_id", target, "points", req.Points, "activity", req.ActivityType)

	var r *reward
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		points, err := s.loadPoints(ctx, tx, target)
		if err != nil {
			return err
		}
		r = &reward{userID: target, points: points}
		r.leveledUp = points.AddPoints(req.Points, experience)
		points.UpdateStreak(now())

		if err := s.awardBadges(ctx, tx, r, models.CriteriaPoints, float64(points.TotalPoints)); err != nil {
			return err
		}
		if err := s.awardBadges(ctx, tx, r, models.CriteriaStreak, float64(points.CurrentStreak)); err != nil {
			return err
		}
		return s.settle(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, r)
	return &AddPointsResult{
		Points:       r.points,
		LeveledUp:    r.leveledUp,
		BadgesEarned: nonNilBadges(r.badges),
	}, nil
}

func nonNilBadges(in []*models.Badge) []*models.Badge {
	if in == nil {
		return []*models.Badge{}
	}
	return in
}

// ===== LEADERBOARDS =====

func (s *gamificationService) ListLeaderboards(ctx context.Context) ([]*models.Leaderboard, error) {
	boards, err := s.repo.Gamification().ListLeaderboards(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboards: %w", err)
	}
	return boards, nil
}

func (s *gamificationService) CreateLeaderboard(ctx context.Context, req *CreateLeaderboardRequest, userID string) (*models.Leaderboard, error) {
	if _, err := requireRole(ctx, s.repo, userID, "leaderboard", "create"); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	board := &models.Leaderboard{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		TimePeriod:  req.TimePeriod,
		MaxEntries:  req.MaxEntries,
		IsActive:    true,
	}
	if board.TimePeriod == "" {
		board.TimePeriod = defaultTimePeriod
	}
	if board.MaxEntries == 0 {
		board.MaxEntries = defaultLeaderboardEntries
	}
	if err := s.repo.Gamification().CreateLeaderboard(ctx, nil, board); err != nil {
		return nil, fmt.Errorf("failed to create leaderboard: %w", err)
	}

	s.logger.Info("Leaderboard created", "leaderboard_id", board.ID, "name", board.Name)
	return board, nil
}

func (s *gamificationService) loadLeaderboard(ctx context.Context, id uint) (*models.Leaderboard, error) {
	board, err := s.repo.Gamification().GetLeaderboard(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLeaderboardNotFound
		}
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return board, nil
}

// LeaderboardEntries returns the ranked entries up to the board's max_entries
func (s *gamificationService) LeaderboardEntries(ctx context.Context, leaderboardID uint) ([]*models.LeaderboardEntry, error) {
	board, err := s.loadLeaderboard(ctx, leaderboardID)
	if err != nil {
		return nil, err
	}
	limit := board.MaxEntries
	if limit <= 0 {
		limit = defaultLeaderboardEntries
	}
	entries, err := s.repo.Gamification().ListEntries(ctx, nil, board.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}
	return entries, nil
}

func (s *gamificationService) UpdateLeaderboardEntry(ctx context.Context, leaderboardID uint, req *LeaderboardEntryRequest, callerID string) ([]*models.LeaderboardEntry, error) {
	if _, err := requireRole(ctx, s.repo, callerID, "leaderboard", "update", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.loadLeaderboard(ctx, leaderboardID); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.repo, nil, req.UserID); err != nil {
		return nil, err
	}

	if err := s.repo.Gamification().UpsertEntry(ctx, nil, leaderboardID, req.UserID, req.Score); err != nil {
		return nil, fmt.Errorf("failed to update leaderboard entry: %w", err)
	}
	s.logger.Info("Leaderboard entry updated", "leaderboard_id", leaderboardID, "user_id", req.UserID, "score", req.Score)
	return s.LeaderboardEntries(ctx, leaderboardID)
}

// ===== ACHIEVEMENTS =====

func (s *gamificationService) ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	list, err := s.repo.Gamification().ListAchievements(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	for _, a := range list {
		a.ProgressPercentage = a.Progress()
	}
	return list, nil
}

func (s *gamificationService) UpdateAchievement(ctx context.Context, req *UpdateAchievementRequest, userID string) (*models.Achievement, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var achievement *models.Achievement
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		achievement, err = s.setAchievement(ctx, tx, userID, req.AchievementType, func(a *models.Achievement) float64 {
			if req.Name != "" {
				a.Name = req.Name
			}
			if req.Description != "" {
				a.Description = req.Description
			}
			return req.Value
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return achievement, nil
}

// setAchievement loads or starts the achievement, applies next to compute its
// new value, and notifies the user when it completes
func (s *gamificationService) setAchievement(ctx context.Context, tx *gorm.DB, userID, achievementType string, next func(*models.Achievement) float64) (*models.Achievement, error) {
	a, err := s.repo.Gamification().GetAchievement(ctx, tx, userID, achievementType)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get achievement: %w", err)
		}
		a = &models.Achievement{
			UserID:          userID,
			AchievementType: achievementType,
			Name:            achievementName(achievementType),
			TargetValue:     models.AchievementTarget(achievementType),
		}
	}

	completed := a.SetValue(next(a), now())
	if err := s.repo.Gamification().SaveAchievement(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("failed to save achievement: %w", err)
	}
	if completed {
		s.logger.Info("Achievement completed", "user_id", userID, "type", achievementType)
		if err := s.notify(ctx, tx, userID, models.NotificationAchievement,
			"Achievement Unlocked: "+a.Name, a.Description,
			map[string]interface{}{"achievement_id": a.ID, "achievement_type": achievementType}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func achievementName(achievementType string) string {
	if name, ok := achievementNames[achievementType]; ok {
		return name
	}
	return achievementType
}

// ===== NOTIFICATIONS =====

func (s *gamificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	list, err := s.repo.Notification().List(ctx, nil, userID, repositories.NotificationFilters{
		UnreadOnly: unreadOnly,
		Now:        now(),
		Limit:      defaultNotificationLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (s *gamificationService) MarkNotificationRead(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Notification().MarkRead(ctx, nil, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *gamificationService) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification().MarkAllRead(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Stats summarizes the user's gamification state
func (s *gamificationService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	points, err := s.GetPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.Gamification().CountUserBadges(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count badges: %w", err)
	}
	achievements, err := s.repo.Gamification().CountCompletedAchievements(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count achievements: %w", err)
	}
	unread, err := s.repo.Notification().CountUnread(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &UserStats{
		Points:                points,
		Level:                 points.Level,
		BadgesCount:           badges,
		CompletedAchievements: achievements,
		UnreadNotifications:   unread,
	}, nil
}

// ===== EVENT CONSUMERS =====

// HandleAssessmentCompleted rewards a finished adaptive assessment
func (s *gamificationService) HandleAssessmentCompleted(ctx context.Context, event *events.Event) error {
	var payload events.AssessmentCompletedPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	earned := int(math.Floor(payload.FinalScore))

	var r *reward
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		points, err := s.loadPoints(ctx, tx, event.UserID)
		if err != nil {
			return err
		}
		r = &reward{userID: event.UserID, points: points}
		r.leveledUp = points.AddPoints(earned, earned)

		if err := s.awardBadges(ctx, tx, r, models.CriteriaScore, payload.FinalScore); err != nil {
			return err
		}
		if payload.FinalScore >= 90 {
			if _, err := s.setAchievement(ctx, tx, event.UserID, achievementScore90, func(a *models.Achievement) float64 {
				return a.CurrentValue + 1
			}); err != nil {
				return err
			}
		}
		if payload.FinalScore >= 100 {
			if _, err := s.setAchievement(ctx, tx, event.UserID, achievementPerfect, func(a *models.Achievement) float64 {
				return a.CurrentValue + 1
			}); err != nil {
				return err
			}
		}
		return s.settle(ctx, tx, r)
	})
	if err != nil {
		return fmt.Errorf("failed to reward assessment %d: %w", payload.AssessmentID, err)
	}

	s.announce(ctx, r)
	s.logger.Info("Assessment rewarded", "user_id", event.UserID, "assessment_id", payload.AssessmentID, "points", earned)
	return nil
}

// HandleQuizCompleted rewards a submitted quiz attempt
func (s *gamificationService) HandleQuizCompleted(ctx context.Context, event *events.Event) error {
	var payload events.QuizCompletedPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	earned := int(math.Round(payload.Percentage / 10))

	var r *reward
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		points, err := s.loadPoints(ctx, tx, event.UserID)
		if err != nil {
			return err
		}
		r = &reward{userID: event.UserID, points: points}
		r.leveledUp = points.AddPoints(earned, earned)

		completed, err := s.repo.Quiz().CountCompletedAttempts(ctx, tx, event.UserID)
		if err != nil {
			return fmt.Errorf("failed to count completed quizzes: %w", err)
		}
		if err := s.awardBadges(ctx, tx, r, models.CriteriaCompletion, float64(completed)); err != nil {
			return err
		}
		return s.settle(ctx, tx, r)
	})
	if err != nil {
		return fmt.Errorf("failed to reward quiz attempt %d: %w", payload.AttemptID, err)
	}

	s.announce(ctx, r)
	s.logger.Info("Quiz rewarded", "user_id", event.UserID, "attempt_id", payload.AttemptID, "points", earned)
	return nil
}
