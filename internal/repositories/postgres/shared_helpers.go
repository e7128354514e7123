package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

// SharedHelpers contains common query building used across repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// pick returns the transaction DB if provided, otherwise the default DB
func (h *SharedHelpers) pick(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// ApplyCourseFilters applies role scoping and search filters to course queries
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.InstructorID != nil {
		query = query.Where("courses.instructor_id = ?", *filters.InstructorID)
	}
	if filters.StudentID != nil {
		query = query.Where("courses.id IN (?)",
			h.db.Session(&gorm.Session{NewDB: true}).
				Table("enrollments").
				Select("course_id").
				Where("student_id = ? AND is_active = ?", *filters.StudentID, true))
	}
	if filters.CatalogOnly {
		query = query.Where("courses.is_active = ? AND courses.is_public = ? AND courses.is_removed = ?", true, true, false)
	}
	if filters.Category != nil {
		query = query.Where("courses.category = ?", *filters.Category)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ?", like, like)
	}
	return query
}

// ApplyQuestionFilters applies adaptive question filters
func (h *SharedHelpers) ApplyQuestionFilters(query *gorm.DB, filters repositories.AdaptiveQuestionFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.TopicID != nil {
		query = query.Where("topic_id = ?", *filters.TopicID)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty_level = ?", *filters.Difficulty)
	}
	if filters.QuestionType != nil {
		query = query.Where("question_type = ?", *filters.QuestionType)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	return query
}

// ApplyAssessmentFilters applies adaptive assessment filters
func (h *SharedHelpers) ApplyAssessmentFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"started_at": true,
		"code":       true,
		"category":   true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// Exists reports whether any row of model matches the condition
func (h *SharedHelpers) Exists(ctx context.Context, tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	err := h.pick(tx).WithContext(ctx).
		Model(model).
		Where(query, args...).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Count counts the rows of model matching the condition
func (h *SharedHelpers) Count(ctx context.Context, tx *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var count int64
	q := h.pick(tx).WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&count).Error
	return count, err
}
