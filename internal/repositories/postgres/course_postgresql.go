package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tusharsharma89566/Edu-Learn/internal/cache"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// coursePage is the cached shape of a catalogue page
type coursePage struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
}

// Create creates a new course and invalidates course lists
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	if tx != nil {
		return c.load(ctx, tx, id)
	}

	var course models.Course
	err := c.cacheManager.Course.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		return c.load(ctx, c.db, id)
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) load(ctx context.Context, db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := c.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&course, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock course: %w", err)
	}
	return &course, nil
}

// Update saves every course column and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Omit("created_at").Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	return nil
}

// Delete soft deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete course: %w", gorm.ErrRecordNotFound)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
	return nil
}

// List retrieves courses with filters and pagination. Catalogue pages are cached.
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	cacheable := tx == nil && filters.CatalogOnly && filters.InstructorID == nil && filters.StudentID == nil &&
		filters.Category == nil && filters.Query == ""
	if !cacheable {
		return c.list(ctx, c.getDB(tx), filters)
	}

	var page coursePage
	key := fmt.Sprintf("catalog:%d:%d:%s:%s", filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)
	err := c.cacheManager.Course.CacheOrExecute(ctx, key, &page, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		courses, total, err := c.list(ctx, c.db, filters)
		if err != nil {
			return nil, err
		}
		return coursePage{Courses: courses, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Courses, page.Total, nil
}

func (c *CoursePostgreSQL) list(ctx context.Context, db *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := db.WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []*models.Course
	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	if err := c.fillEnrolledCounts(ctx, db, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// fillEnrolledCounts sets the computed enrolled_count of each course
func (c *CoursePostgreSQL) fillEnrolledCounts(ctx context.Context, db *gorm.DB, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]uint, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}

	var counts []repositories.CourseCount
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS count").
		Where("course_id IN ? AND is_active = ?", ids, true).
		Group("course_id").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}

	byCourse := make(map[uint]int64, len(counts))
	for _, cc := range counts {
		byCourse[cc.CourseID] = cc.Count
	}
	for _, course := range courses {
		course.EnrolledCount = byCourse[course.ID]
	}
	return nil
}

func (c *CoursePostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	return c.helpers.Exists(ctx, tx, &models.Course{}, "code = ?", code)
}

// ListAvailable returns catalogue courses not in excludeIDs
func (c *CoursePostgreSQL) ListAvailable(ctx context.Context, tx *gorm.DB, excludeIDs []uint) ([]*models.Course, error) {
	query := c.helpers.ApplyCourseFilters(
		c.getDB(tx).WithContext(ctx).Model(&models.Course{}),
		repositories.CourseFilters{CatalogOnly: true},
	)
	if len(excludeIDs) > 0 {
		query = query.Where("courses.id NOT IN ?", excludeIDs)
	}

	var courses []*models.Course
	if err := query.Order("courses.id ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list available courses: %w", err)
	}
	return courses, nil
}

// ===== TOPICS =====

type TopicPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTopicPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TopicRepository {
	return &TopicPostgreSQL{db: db, helpers: NewSharedHelpers(db), cacheManager: cacheManager}
}

func (t *TopicPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TopicPostgreSQL) Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	if err := t.getDB(tx).WithContext(ctx).Create(topic).Error; err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (t *TopicPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := t.getDB(tx).WithContext(ctx).First(&topic, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

func (t *TopicPostgreSQL) Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	if err := t.getDB(tx).WithContext(ctx).Omit("created_at").Save(topic).Error; err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	cache.InvalidateQuestionPool(ctx, t.cacheManager, topic.CourseID)
	return nil
}

func (t *TopicPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := t.getDB(tx).WithContext(ctx).Delete(&models.Topic{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete topic: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete topic: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByCourse returns active topics ordered by order_index
func (t *TopicPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Topic, error) {
	var topics []*models.Topic
	err := t.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index ASC, id ASC").
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

func (t *TopicPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	return t.helpers.Count(ctx, tx, &models.Topic{}, "course_id = ? AND is_active = ?", courseID, true)
}

// ===== MATERIALS =====

type MaterialPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewMaterialPostgreSQL(db *gorm.DB) repositories.MaterialRepository {
	return &MaterialPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (m *MaterialPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

func (m *MaterialPostgreSQL) Create(ctx context.Context, tx *gorm.DB, material *models.LearningMaterial) error {
	if err := m.getDB(tx).WithContext(ctx).Create(material).Error; err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}
	return nil
}

func (m *MaterialPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningMaterial, error) {
	var material models.LearningMaterial
	if err := m.getDB(tx).WithContext(ctx).First(&material, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return &material, nil
}

func (m *MaterialPostgreSQL) Update(ctx context.Context, tx *gorm.DB, material *models.LearningMaterial) error {
	if err := m.getDB(tx).WithContext(ctx).Omit("created_at").Save(material).Error; err != nil {
		return fmt.Errorf("failed to update material: %w", err)
	}
	return nil
}

func (m *MaterialPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := m.getDB(tx).WithContext(ctx).Delete(&models.LearningMaterial{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete material: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete material: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByTopic returns visible materials ordered by order_index
func (m *MaterialPostgreSQL) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.LearningMaterial, error) {
	var materials []*models.LearningMaterial
	err := m.getDB(tx).WithContext(ctx).
		Where("topic_id = ? AND is_active = ? AND is_removed = ?", topicID, true, false).
		Order("order_index ASC, id ASC").
		Find(&materials).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (m *MaterialPostgreSQL) CountByTopic(ctx context.Context, tx *gorm.DB, topicID uint) (int64, error) {
	return m.helpers.Count(ctx, tx, &models.LearningMaterial{},
		"topic_id = ? AND is_active = ? AND is_removed = ?", topicID, true, false)
}

func (m *MaterialPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := m.getDB(tx).WithContext(ctx).
		Model(&models.LearningMaterial{}).
		Joins("JOIN topics ON topics.id = learning_materials.topic_id").
		Where("topics.course_id = ? AND topics.is_active = ?", courseID, true).
		Where("learning_materials.is_active = ? AND learning_materials.is_removed = ?", true, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count course materials: %w", err)
	}
	return count, nil
}

// ===== ASSIGNMENTS =====

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.getDB(tx).WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND is_active = ? AND is_removed = ?", courseID, true, false).
		Order("due_date ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) GetSubmission(ctx context.Context, tx *gorm.DB, assignmentID uint, studentID string) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := a.getDB(tx).WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (a *AssignmentPostgreSQL) GetSubmissionByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := a.getDB(tx).WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// SaveSubmission inserts or updates a submission
func (a *AssignmentPostgreSQL) SaveSubmission(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error {
	if err := a.getDB(tx).WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (a *AssignmentPostgreSQL) ListSubmissions(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.AssignmentSubmission, error) {
	var submissions []*models.AssignmentSubmission
	err := a.getDB(tx).WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// CountStudentSubmissions counts a student's submissions in a course and how many are graded
func (a *AssignmentPostgreSQL) CountStudentSubmissions(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (int64, int64, error) {
	base := func() *gorm.DB {
		return a.getDB(tx).WithContext(ctx).
			Model(&models.AssignmentSubmission{}).
			Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
			Where("assignments.course_id = ? AND assignment_submissions.student_id = ?", courseID, studentID)
	}

	var submitted, graded int64
	if err := base().Count(&submitted).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	if err := base().Where("assignment_submissions.status = ?", models.SubmissionGraded).Count(&graded).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count graded submissions: %w", err)
	}
	return submitted, graded, nil
}
