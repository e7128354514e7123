package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

// UserRepository interface for user operations
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.User, error)
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	HasRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error)

	UpdateLastLogin(ctx context.Context, tx *gorm.DB, id string, at time.Time) error
}
