package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

// AnalyticsPostgreSQL implements the admin dashboard counters
type AnalyticsPostgreSQL struct {
	db *gorm.DB
}

func NewAnalyticsPostgreSQL(db *gorm.DB) repositories.AnalyticsRepository {
	return &AnalyticsPostgreSQL{db: db}
}

func (a *AnalyticsPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AnalyticsPostgreSQL) CountUsersByRole(ctx context.Context, tx *gorm.DB) (map[models.UserRole]int64, error) {
	var rows []struct {
		Role  models.UserRole
		Count int64
	}
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}

	counts := map[models.UserRole]int64{
		models.RoleStudent: 0,
		models.RoleTeacher: 0,
		models.RoleAdmin:   0,
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (a *AnalyticsPostgreSQL) CountTable(ctx context.Context, tx *gorm.DB, model interface{}) (int64, error) {
	var count int64
	if err := a.getDB(tx).WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

func (a *AnalyticsPostgreSQL) CountSessionsSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.LearningSession{}).
		Where("session_start >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// DailyCounts runs one ranged count per day so the query stays dialect neutral
func (a *AnalyticsPostgreSQL) DailyCounts(ctx context.Context, tx *gorm.DB, model interface{}, column string, days int, now time.Time) ([]repositories.DailyCount, error) {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	counts := make([]repositories.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)

		var count int64
		err := a.getDB(tx).WithContext(ctx).
			Model(model).
			Where(fmt.Sprintf("%s >= ? AND %s < ?", column, column), start, end).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count rows for %s: %w", start.Format("2006-01-02"), err)
		}
		counts = append(counts, repositories.DailyCount{Date: start.Format("2006-01-02"), Count: count})
	}
	return counts, nil
}
