package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

// ===== USER HELPERS =====

func loadUser(ctx context.Context, repo repositories.Repository, tx *gorm.DB, userID string) (*models.User, error) {
	user, err := repo.User().GetByID(ctx, tx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func getUserRole(ctx context.Context, repo repositories.Repository, userID string) (models.UserRole, error) {
	user, err := loadUser(ctx, repo, nil, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// isStaff reports whether the role may author content
func isStaff(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleAdmin
}

// requireRole returns a PermissionError unless the user holds one of roles. Admin always passes.
func requireRole(ctx context.Context, repo repositories.Repository, userID, resource, action string, roles ...models.UserRole) (models.UserRole, error) {
	role, err := getUserRole(ctx, repo, userID)
	if err != nil {
		return "", err
	}
	if role == models.RoleAdmin {
		return role, nil
	}
	for _, r := range roles {
		if role == r {
			return role, nil
		}
	}
	return role, NewPermissionError(userID, 0, resource, action, "insufficient role permissions")
}

// ===== CONTENT HELPERS =====

func loadCourse(ctx context.Context, repo repositories.Repository, tx *gorm.DB, id uint) (*models.Course, error) {
	course, err := repo.Course().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func loadTopic(ctx context.Context, repo repositories.Repository, tx *gorm.DB, id uint) (*models.Topic, error) {
	topic, err := repo.Topic().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

// canManageCourse reports whether userID owns the course or is an admin
func canManageCourse(ctx context.Context, repo repositories.Repository, course *models.Course, userID string) (bool, error) {
	if course.InstructorID == userID {
		return true, nil
	}
	role, err := getUserRole(ctx, repo, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// requireCourseOwner loads the course and checks management rights
func requireCourseOwner(ctx context.Context, repo repositories.Repository, courseID uint, userID, resource, action string) (*models.Course, error) {
	course, err := loadCourse(ctx, repo, nil, courseID)
	if err != nil {
		return nil, err
	}
	ok, err := canManageCourse(ctx, repo, course, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewPermissionError(userID, courseID, resource, action, "not course owner")
	}
	return course, nil
}

// ===== JSON HELPERS =====

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

func stringList(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func floatList(raw datatypes.JSON) []float64 {
	var out []float64
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// restoreZeroValues writes columns whose zero value was replaced by a column default on insert
func restoreZeroValues(ctx context.Context, tx *gorm.DB, model interface{}, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Model(model).Updates(columns).Error; err != nil {
		return fmt.Errorf("failed to store zero values: %w", err)
	}
	return nil
}

// ===== MISC =====

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func now() time.Time {
	return time.Now().UTC()
}

func uintPtr(v uint) *uint { return &v }

func stringPtr(v string) *string { return &v }
