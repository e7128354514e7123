package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

type GamificationRepository interface {
	// Badges
	ListBadges(ctx context.Context, tx *gorm.DB) ([]*models.Badge, error)
	CreateBadge(ctx context.Context, tx *gorm.DB, badge *models.Badge) error
	GetBadgeByName(ctx context.Context, tx *gorm.DB, name string) (*models.Badge, error)
	// EligibleBadges returns active badges of the criteria type reachable with value that userID lacks
	EligibleBadges(ctx context.Context, tx *gorm.DB, userID string, criteria models.BadgeCriteriaType, value float64) ([]*models.Badge, error)
	AwardBadge(ctx context.Context, tx *gorm.DB, userBadge *models.UserBadge) error
	ListUserBadges(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserBadge, error)
	CountUserBadges(ctx context.Context, tx *gorm.DB, userID string) (int64, error)

	// Points
	GetPoints(ctx context.Context, tx *gorm.DB, userID string) (*models.UserPoints, error)
	SavePoints(ctx context.Context, tx *gorm.DB, points *models.UserPoints) error

	// Leaderboards
	ListLeaderboards(ctx context.Context, tx *gorm.DB) ([]*models.Leaderboard, error)
	CreateLeaderboard(ctx context.Context, tx *gorm.DB, board *models.Leaderboard) error
	GetLeaderboard(ctx context.Context, tx *gorm.DB, id uint) (*models.Leaderboard, error)
	ListEntries(ctx context.Context, tx *gorm.DB, leaderboardID uint, limit int) ([]*models.LeaderboardEntry, error)
	// UpsertEntry sets the user's score and recomputes every rank of the board
	UpsertEntry(ctx context.Context, tx *gorm.DB, leaderboardID uint, userID string, score float64) error

	// Achievements
	ListAchievements(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Achievement, error)
	GetAchievement(ctx context.Context, tx *gorm.DB, userID, achievementType string) (*models.Achievement, error)
	SaveAchievement(ctx context.Context, tx *gorm.DB, achievement *models.Achievement) error
	CountCompletedAchievements(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	List(ctx context.Context, tx *gorm.DB, userID string, filters NotificationFilters) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string) error
	MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}
