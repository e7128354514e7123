package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/cache"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type GamificationPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewGamificationPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.GamificationRepository {
	return &GamificationPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (g *GamificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return g.db
}

// ===== BADGES =====

// ListBadges returns the active badge catalogue with caching
func (g *GamificationPostgreSQL) ListBadges(ctx context.Context, tx *gorm.DB) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := g.cacheManager.Badge.CacheOrExecute(ctx, "list", &badges, cache.BadgeCacheConfig.TTL, func() (interface{}, error) {
		var dbBadges []*models.Badge
		err := g.getDB(tx).WithContext(ctx).
			Where("is_active = ?", true).
			Order("criteria_type ASC, criteria_value ASC").
			Find(&dbBadges).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list badges: %w", err)
		}
		return dbBadges, nil
	})
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (g *GamificationPostgreSQL) CreateBadge(ctx context.Context, tx *gorm.DB, badge *models.Badge) error {
	if err := g.getDB(tx).WithContext(ctx).Create(badge).Error; err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	cache.SafeDelete(ctx, g.cacheManager.Badge, "list")
	return nil
}

func (g *GamificationPostgreSQL) GetBadgeByName(ctx context.Context, tx *gorm.DB, name string) (*models.Badge, error) {
	var badge models.Badge
	if err := g.getDB(tx).WithContext(ctx).Where("name = ?", name).First(&badge).Error; err != nil {
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	return &badge, nil
}

func (g *GamificationPostgreSQL) EligibleBadges(ctx context.Context, tx *gorm.DB, userID string, criteria models.BadgeCriteriaType, value float64) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := g.getDB(tx).WithContext(ctx).
		Where("is_active = ? AND criteria_type = ? AND criteria_value <= ?", true, criteria, value).
		Where("id NOT IN (SELECT badge_id FROM user_badges WHERE user_id = ?)", userID).
		Order("criteria_value ASC").
		Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find eligible badges: %w", err)
	}
	return badges, nil
}

// AwardBadge stores the user badge and bumps the badge counter
func (g *GamificationPostgreSQL) AwardBadge(ctx context.Context, tx *gorm.DB, userBadge *models.UserBadge) error {
	db := g.getDB(tx).WithContext(ctx)
	if err := db.Omit("Badge").Create(userBadge).Error; err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}
	err := db.Model(&models.Badge{}).
		Where("id = ?", userBadge.BadgeID).
		UpdateColumn("times_awarded", gorm.Expr("times_awarded + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to increment badge counter: %w", err)
	}
	cache.SafeDelete(ctx, g.cacheManager.Badge, "list")
	return nil
}

func (g *GamificationPostgreSQL) ListUserBadges(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserBadge, error) {
	var badges []*models.UserBadge
	err := g.getDB(tx).WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return badges, nil
}

func (g *GamificationPostgreSQL) CountUserBadges(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	return g.helpers.Count(ctx, tx, &models.UserBadge{}, "user_id = ?", userID)
}

// ===== POINTS =====

func (g *GamificationPostgreSQL) GetPoints(ctx context.Context, tx *gorm.DB, userID string) (*models.UserPoints, error) {
	var points models.UserPoints
	if err := g.getDB(tx).WithContext(ctx).Where("user_id = ?", userID).First(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to get user points: %w", err)
	}
	return &points, nil
}

func (g *GamificationPostgreSQL) SavePoints(ctx context.Context, tx *gorm.DB, points *models.UserPoints) error {
	if err := g.getDB(tx).WithContext(ctx).Save(points).Error; err != nil {
		return fmt.Errorf("failed to save user points: %w", err)
	}
	return nil
}

// ===== LEADERBOARDS =====

func (g *GamificationPostgreSQL) ListLeaderboards(ctx context.Context, tx *gorm.DB) ([]*models.Leaderboard, error) {
	var boards []*models.Leaderboard
	err := g.cacheManager.Leaderboard.CacheOrExecute(ctx, "list", &boards, cache.LeaderboardCacheConfig.TTL, func() (interface{}, error) {
		var dbBoards []*models.Leaderboard
		if err := g.getDB(tx).WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&dbBoards).Error; err != nil {
			return nil, fmt.Errorf("failed to list leaderboards: %w", err)
		}
		return dbBoards, nil
	})
	if err != nil {
		return nil, err
	}
	return boards, nil
}

func (g *GamificationPostgreSQL) CreateLeaderboard(ctx context.Context, tx *gorm.DB, board *models.Leaderboard) error {
	if err := g.getDB(tx).WithContext(ctx).Create(board).Error; err != nil {
		return fmt.Errorf("failed to create leaderboard: %w", err)
	}
	cache.SafeDelete(ctx, g.cacheManager.Leaderboard, "list")
	return nil
}

func (g *GamificationPostgreSQL) GetLeaderboard(ctx context.Context, tx *gorm.DB, id uint) (*models.Leaderboard, error) {
	var board models.Leaderboard
	if err := g.getDB(tx).WithContext(ctx).First(&board, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return &board, nil
}

// ListEntries returns ranked entries with caching
func (g *GamificationPostgreSQL) ListEntries(ctx context.Context, tx *gorm.DB, leaderboardID uint, limit int) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	key := fmt.Sprintf("%d:entries:%d", leaderboardID, limit)
	err := g.cacheManager.Leaderboard.CacheOrExecute(ctx, key, &entries, cache.LeaderboardCacheConfig.TTL, func() (interface{}, error) {
		query := g.getDB(tx).WithContext(ctx).
			Where("leaderboard_id = ?", leaderboardID).
			Order("rank ASC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		var dbEntries []*models.LeaderboardEntry
		if err := query.Find(&dbEntries).Error; err != nil {
			return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
		}
		return dbEntries, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpsertEntry writes the score then rewrites every rank of the board
func (g *GamificationPostgreSQL) UpsertEntry(ctx context.Context, tx *gorm.DB, leaderboardID uint, userID string, score float64) error {
	apply := func(db *gorm.DB) error {
		var entry models.LeaderboardEntry
		err := db.Where("leaderboard_id = ? AND user_id = ?", leaderboardID, userID).First(&entry).Error
		switch {
		case err == nil:
			entry.Score = score
			entry.UpdatedAt = time.Now().UTC()
			if err := db.Save(&entry).Error; err != nil {
				return fmt.Errorf("failed to update leaderboard entry: %w", err)
			}
		case repositories.IsNotFoundError(err):
			entry = models.LeaderboardEntry{LeaderboardID: leaderboardID, UserID: userID, Score: score}
			if err := db.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create leaderboard entry: %w", err)
			}
		default:
			return fmt.Errorf("failed to get leaderboard entry: %w", err)
		}

		var entries []models.LeaderboardEntry
		if err := db.Where("leaderboard_id = ?", leaderboardID).Order("score DESC, updated_at ASC, id ASC").Find(&entries).Error; err != nil {
			return fmt.Errorf("failed to load leaderboard entries: %w", err)
		}
		for i := range entries {
			rank := i + 1
			if entries[i].Rank == rank {
				continue
			}
			if err := db.Model(&models.LeaderboardEntry{}).Where("id = ?", entries[i].ID).UpdateColumn("rank", rank).Error; err != nil {
				return fmt.Errorf("failed to rank leaderboard entry: %w", err)
			}
		}
		return nil
	}

	var err error
	if tx != nil {
		err = apply(tx.WithContext(ctx))
	} else {
		err = g.db.WithContext(ctx).Transaction(apply)
	}
	if err != nil {
		return err
	}
	cache.InvalidateLeaderboard(ctx, g.cacheManager, leaderboardID)
	return nil
}

// ===== ACHIEVEMENTS =====

func (g *GamificationPostgreSQL) ListAchievements(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	err := g.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_completed ASC, achievement_type ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	for _, a := range achievements {
		a.ProgressPercentage = a.Progress()
	}
	return achievements, nil
}

func (g *GamificationPostgreSQL) GetAchievement(ctx context.Context, tx *gorm.DB, userID, achievementType string) (*models.Achievement, error) {
	var achievement models.Achievement
	err := g.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND achievement_type = ?", userID, achievementType).
		First(&achievement).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	achievement.ProgressPercentage = achievement.Progress()
	return &achievement, nil
}

func (g *GamificationPostgreSQL) SaveAchievement(ctx context.Context, tx *gorm.DB, achievement *models.Achievement) error {
	if err := g.getDB(tx).WithContext(ctx).Save(achievement).Error; err != nil {
		return fmt.Errorf("failed to save achievement: %w", err)
	}
	return nil
}

func (g *GamificationPostgreSQL) CountCompletedAchievements(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	return g.helpers.Count(ctx, tx, &models.Achievement{}, "user_id = ? AND is_completed = ?", userID, true)
}

// ===== NOTIFICATIONS =====

type NotificationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (n *NotificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if err := n.getDB(tx).WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns unexpired notifications, newest first
func (n *NotificationPostgreSQL) List(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, error) {
	now := filters.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	query := n.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", now)
	if filters.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var notifications []*models.Notification
	if err := query.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string) error {
	result := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to mark notification read: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (n *NotificationPostgreSQL) MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	result := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	return n.helpers.Count(ctx, tx, &models.Notification{}, "user_id = ? AND is_read = ?", userID, false)
}
