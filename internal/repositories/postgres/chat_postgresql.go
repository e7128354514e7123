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

type ChatPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewChatPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ChatRepository {
	return &ChatPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (c *ChatPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// ===== MESSAGES =====

func (c *ChatPostgreSQL) CreateMessage(ctx context.Context, tx *gorm.DB, message *models.ChatMessage) error {
	if err := c.getDB(tx).WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to store chat message: %w", err)
	}
	return nil
}

func (c *ChatPostgreSQL) History(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.ChatMessage, error) {
	query := c.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []*models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ===== FAQ =====

// ListFAQs returns active FAQs with caching
func (c *ChatPostgreSQL) ListFAQs(ctx context.Context, tx *gorm.DB) ([]*models.FAQ, error) {
	var faqs []*models.FAQ
	err := c.cacheManager.FAQ.CacheOrExecute(ctx, "list", &faqs, cache.FAQCacheConfig.TTL, func() (interface{}, error) {
		var dbFAQs []*models.FAQ
		if err := c.getDB(tx).WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&dbFAQs).Error; err != nil {
			return nil, fmt.Errorf("failed to list faqs: %w", err)
		}
		return dbFAQs, nil
	})
	if err != nil {
		return nil, err
	}
	return faqs, nil
}

func (c *ChatPostgreSQL) GetFAQ(ctx context.Context, tx *gorm.DB, id uint) (*models.FAQ, error) {
	var faq models.FAQ
	if err := c.getDB(tx).WithContext(ctx).First(&faq, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get faq: %w", err)
	}
	return &faq, nil
}

func (c *ChatPostgreSQL) CreateFAQ(ctx context.Context, tx *gorm.DB, faq *models.FAQ) error {
	if err := c.getDB(tx).WithContext(ctx).Create(faq).Error; err != nil {
		return fmt.Errorf("failed to create faq: %w", err)
	}
	cache.SafeDelete(ctx, c.cacheManager.FAQ, "list")
	return nil
}

func (c *ChatPostgreSQL) UpdateFAQ(ctx context.Context, tx *gorm.DB, faq *models.FAQ) error {
	if err := c.getDB(tx).WithContext(ctx).Omit("created_at").Save(faq).Error; err != nil {
		return fmt.Errorf("failed to update faq: %w", err)
	}
	cache.SafeDelete(ctx, c.cacheManager.FAQ, "list")
	return nil
}

func (c *ChatPostgreSQL) DeleteFAQ(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).Delete(&models.FAQ{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete faq: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete faq: %w", gorm.ErrRecordNotFound)
	}
	cache.SafeDelete(ctx, c.cacheManager.FAQ, "list")
	return nil
}

func (c *ChatPostgreSQL) CountFAQs(ctx context.Context, tx *gorm.DB) (int64, error) {
	return c.helpers.Count(ctx, tx, &models.FAQ{}, "")
}

// ===== REMINDERS =====

func (c *ChatPostgreSQL) CreateReminder(ctx context.Context, tx *gorm.DB, reminder *models.StudyReminder) error {
	if err := c.getDB(tx).WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (c *ChatPostgreSQL) UpcomingReminders(ctx context.Context, tx *gorm.DB, userID string, now time.Time) ([]*models.StudyReminder, error) {
	var reminders []*models.StudyReminder
	err := c.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND reminder_time >= ?", userID, true, now).
		Order("reminder_time ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (c *ChatPostgreSQL) DeleteReminder(ctx context.Context, tx *gorm.DB, id uint, userID string) error {
	result := c.getDB(tx).WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.StudyReminder{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reminder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete reminder: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
