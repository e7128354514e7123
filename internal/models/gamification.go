package models

import (
	"time"

	"gorm.io/datatypes"
)

type BadgeCriteriaType string

const (
	CriteriaPoints     BadgeCriteriaType = "points"
	CriteriaStreak     BadgeCriteriaType = "streak"
	CriteriaCompletion BadgeCriteriaType = "completion"
	CriteriaScore      BadgeCriteriaType = "score"
)

type NotificationType string

const (
	NotificationBadgeEarned NotificationType = "badge_earned"
	NotificationLevelUp     NotificationType = "level_up"
	NotificationAchievement NotificationType = "achievement"
	NotificationReminder    NotificationType = "reminder"
)

type Badge struct {
	ID               uint              `json:"id" gorm:"primaryKey"`
	Name             string            `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description      string            `json:"description" gorm:"type:text"`
	BadgeType        string            `json:"badge_type" gorm:"size:50"`
	Category         string            `json:"category" gorm:"size:50"`
	Icon             string            `json:"icon" gorm:"size:100"`
	Color            string            `json:"color" gorm:"size:20"`
	Rarity           string            `json:"rarity" gorm:"size:20;default:common"`
	CriteriaType     BadgeCriteriaType `json:"criteria_type" gorm:"size:20;not null;index"`
	CriteriaValue    float64           `json:"criteria_value"`
	PointsReward     int               `json:"points_reward" gorm:"default:0"`
	ExperienceReward int               `json:"experience_reward" gorm:"default:0"`
	IsActive         bool              `json:"is_active" gorm:"default:true"`
	TimesAwarded     int               `json:"times_awarded" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Badge) TableName() string {
	return "badges"
}

type UserBadge struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   string    `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_user_badge"`
	BadgeID  uint      `json:"badge_id" gorm:"not null;uniqueIndex:idx_user_badge"`
	EarnedAt time.Time `json:"earned_at"`
	Progress float64   `json:"progress" gorm:"default:100"`

	Badge *Badge `json:"badge,omitempty" gorm:"foreignKey:BadgeID"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

type UserPoints struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	UserID                string     `json:"user_id" gorm:"uniqueIndex;not null;size:36"`
	TotalPoints           int        `json:"total_points" gorm:"default:0"`
	CurrentPoints         int        `json:"current_points" gorm:"default:0"`
	Level                 int        `json:"level" gorm:"default:1"`
	ExperiencePoints      int        `json:"experience_points" gorm:"default:0"`
	ExperienceToNextLevel int        `json:"experience_to_next_level" gorm:"default:100"`
	CurrentStreak         int        `json:"current_streak" gorm:"default:0"`
	LongestStreak         int        `json:"longest_streak" gorm:"default:0"`
	LastActivityDate      *time.Time `json:"last_activity_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPoints) TableName() string {
	return "user_points"
}

// NewUserPoints returns a fresh level-1 record
func NewUserPoints(userID string) *UserPoints {
	return &UserPoints{UserID: userID, Level: 1, ExperienceToNextLevel: 100}
}

// AddPoints credits points and experience and reports whether the level rose
func (p *UserPoints) AddPoints(points, experience int) bool {
	p.TotalPoints += points
	p.CurrentPoints += points
	p.ExperiencePoints += experience

	leveledUp := false
	if p.ExperienceToNextLevel <= 0 {
		p.ExperienceToNextLevel = 100
	}
	for p.ExperiencePoints >= p.ExperienceToNextLevel {
		p.ExperiencePoints -= p.ExperienceToNextLevel
		p.Level++
		p.ExperienceToNextLevel = int(float64(p.ExperienceToNextLevel) * 1.2)
		leveledUp = true
	}
	return leveledUp
}

// UpdateStreak records activity on the given day
func (p *UserPoints) UpdateStreak(today time.Time) {
	day := truncateDay(today)
	if p.LastActivityDate != nil {
		last := truncateDay(*p.LastActivityDate)
		switch {
		case last.Equal(day):
			return
		case last.AddDate(0, 0, 1).Equal(day):
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	} else {
		p.CurrentStreak = 1
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastActivityDate = &day
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Leaderboard struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:50"`
	TimePeriod  string    `json:"time_period" gorm:"size:20;default:all_time"`
	MaxEntries  int       `json:"max_entries" gorm:"default:100"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Leaderboard) TableName() string {
	return "leaderboards"
}

type LeaderboardEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	LeaderboardID uint      `json:"leaderboard_id" gorm:"not null;uniqueIndex:idx_leaderboard_user"`
	UserID        string    `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_leaderboard_user"`
	Score         float64   `json:"score"`
	Rank          int       `json:"rank"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

type Achievement struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"not null;size:36;index"`
	AchievementType string     `json:"achievement_type" gorm:"size:50;not null;index"`
	Name            string     `json:"name" gorm:"size:100"`
	Description     string     `json:"description" gorm:"type:text"`
	CurrentValue    float64    `json:"current_value" gorm:"default:0"`
	TargetValue     float64    `json:"target_value"`
	IsCompleted     bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt     *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProgressPercentage float64 `json:"progress_percentage" gorm:"-"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementTarget returns the default target for an achievement type
func AchievementTarget(achievementType string) float64 {
	switch achievementType {
	case "login_streak":
		return 7
	case "assessment_score_90":
		return 5
	case "courses_completed":
		return 3
	case "total_points":
		return 1000
	case "perfect_assessment":
		return 1
	default:
		return 10
	}
}

// Progress returns the completion percentage capped at 100
func (a *Achievement) Progress() float64 {
	if a.TargetValue <= 0 {
		return 0
	}
	p := a.CurrentValue / a.TargetValue * 100
	if p > 100 {
		return 100
	}
	return p
}

// SetValue stores the new value and reports whether it just completed
func (a *Achievement) SetValue(value float64, now time.Time) bool {
	a.CurrentValue = value
	a.ProgressPercentage = a.Progress()
	if !a.IsCompleted && a.CurrentValue >= a.TargetValue {
		a.IsCompleted = true
		a.CompletedAt = &now
		return true
	}
	return false
}

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    string           `json:"user_id" gorm:"not null;size:36;index"`
	Type      NotificationType `json:"type" gorm:"size:30;not null"`
	Title     string           `json:"title" gorm:"size:200;not null"`
	Message   string           `json:"message" gorm:"type:text"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt    *time.Time       `json:"read_at"`
	ExpiresAt *time.Time       `json:"expires_at"`
	Data      datatypes.JSON   `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
