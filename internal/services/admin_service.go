package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	moderationQueueLimit = 100
	bulkDefaultPassword  = "Password123!"
	trendDays            = 7
	recentSessionDays    = 30

	defaultRejectionReason  = "Content did not meet platform standards"
	defaultResolutionReason = "Report resolved after review"
	defaultRemovalReason    = "Content violates platform policies"
)

type adminService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	auth      AuthService
}

func NewAdminService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, auth AuthService) AdminService {
	return &adminService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		auth:      auth,
	}
}

// ===== MODERATION =====

func checkContentType(contentType string, allowed ...string) error {
	if len(allowed) == 0 {
		allowed = []string{repositories.ContentCourse, repositories.ContentMaterial, repositories.ContentAssignment}
	}
	for _, t := range allowed {
		if contentType == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidContentType, contentType)
}

func contentNotFound(contentType string) error {
	switch contentType {
	case repositories.ContentCourse:
		return ErrCourseNotFound
	case repositories.ContentMaterial:
		return ErrMaterialNotFound
	default:
		return ErrAssignmentNotFound
	}
}

func (s *adminService) Pending(ctx context.Context, contentType string, userID string) (interface{}, error) {
	if _, err := requireRole(ctx, s.repo, userID, "moderation", "read"); err != nil {
		return nil, err
	}
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	return s.repo.Moderation().Pending(ctx, nil, contentType, moderationQueueLimit)
}

func (s *adminService) Reported(ctx context.Context, contentType string, userID string) (interface{}, error) {
	if _, err := requireRole(ctx, s.repo, userID, "moderation", "read"); err != nil {
		return nil, err
	}
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	return s.repo.Moderation().Reported(ctx, nil, contentType, moderationQueueLimit)
}

// moderate checks admin rights and the content type, then writes updates
func (s *adminService) moderate(ctx context.Context, contentType string, id uint, userID, action string, updates map[string]interface{}, allowed ...string) error {
	if _, err := requireRole(ctx, s.repo, userID, "moderation", action); err != nil {
		return err
	}
	if err := checkContentType(contentType, allowed...); err != nil {
		return err
	}
	if err := s.repo.Moderation().Apply(ctx, nil, contentType, id, updates); err != nil {
		if repositories.IsNotFoundError(err) {
			return contentNotFound(contentType)
		}
		return err
	}
	s.logger.Info("Content moderated", "action", action, "content_type", contentType, "content_id", id, "moderator_id", userID)
	return nil
}

func (s *adminService) Approve(ctx context.Context, contentType string, id uint, userID string) error {
	return s.moderate(ctx, contentType, id, userID, "approve", map[string]interface{}{
		"is_approved": true,
		"approved_by": userID,
		"approved_at": now(),
	})
}

func (s *adminService) Reject(ctx context.Context, contentType string, id uint, reason string, userID string) error {
	if reason == "" {
		reason = defaultRejectionReason
	}
	return s.moderate(ctx, contentType, id, userID, "reject", map[string]interface{}{
		"is_approved":      false,
		"is_rejected":      true,
		"rejected_by":      userID,
		"rejected_at":      now(),
		"rejection_reason": reason,
	})
}

// ResolveReport clears the report flag; assignments cannot be reported
func (s *adminService) ResolveReport(ctx context.Context, contentType string, id uint, resolution string, userID string) error {
	if resolution == "" {
		resolution = defaultResolutionReason
	}
	return s.moderate(ctx, contentType, id, userID, "resolve", map[string]interface{}{
		"is_reported":        false,
		"report_resolved_by": userID,
		"report_resolved_at": now(),
		"report_resolution":  resolution,
	}, repositories.ContentCourse, repositories.ContentMaterial)
}

func (s *adminService) Remove(ctx context.Context, contentType string, id uint, reason string, userID string) error {
	if reason == "" {
		reason = defaultRemovalReason
	}
	return s.moderate(ctx, contentType, id, userID, "remove", map[string]interface{}{
		"is_removed":     true,
		"removed_by":     userID,
		"removed_at":     now(),
		"removal_reason": reason,
	})
}

// Report flags a course or material for moderator review
func (s *adminService) Report(ctx context.Context, contentType string, id uint, req *ReportRequest, userID string) error {
	if err := checkContentType(contentType, repositories.ContentCourse, repositories.ContentMaterial); err != nil {
		return err
	}
	if err := validate(s.validator, req); err != nil {
		return err
	}
	if _, err := loadUser(ctx, s.repo, nil, userID); err != nil {
		return err
	}

	err := s.repo.Moderation().Apply(ctx, nil, contentType, id, map[string]interface{}{
		"is_reported":   true,
		"report_reason": req.Reason,
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return contentNotFound(contentType)
		}
		return err
	}
	s.logger.Info("Content reported", "content_type", contentType, "content_id", id, "reporter_id", userID)
	return nil
}

// ===== USERS =====

// BulkUploadUsers creates accounts from a CSV or XLSX sheet, skipping emails already registered
func (s *adminService) BulkUploadUsers(ctx context.Context, filename string, r io.Reader, userID string) (*ImportResult, error) {
	if _, err := requireRole(ctx, s.repo, userID, "users", "import"); err != nil {
		return nil, err
	}
	t, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		line := i + 2
		req := &RegisterRequest{
			Username:  t.get(row, "username"),
			Email:     t.get(row, "email"),
			Password:  bulkDefaultPassword,
			Role:      string(models.NormalizeRole(t.get(row, "role"))),
			FirstName: t.get(row, "first_name"),
			LastName:  t.get(row, "last_name"),
		}

		_, created, err := s.auth.EnsureUser(ctx, req)
		switch {
		case err == nil && created:
			result.Created++
		case err == nil:
			result.Skipped++
		case isRowError(err):
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
		default:
			return nil, err
		}
	}

	s.logger.Info("Bulk user upload finished", "file", filename, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// isRowError reports whether err rejects one row without aborting the import
func isRowError(err error) bool {
	return errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrDuplicateEmail)
}

// ===== ANALYTICS =====

// SystemAnalytics gathers the dashboard counters concurrently
func (s *adminService) SystemAnalytics(ctx context.Context, userID string) (*SystemAnalytics, error) {
	if _, err := requireRole(ctx, s.repo, userID, "analytics", "read"); err != nil {
		return nil, err
	}

	out := &SystemAnalytics{}
	at := now()
	analytics := s.repo.Analytics()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byRole, err := analytics.CountUsersByRole(gctx, nil)
		if err != nil {
			return err
		}
		out.UsersByRole = byRole
		for _, n := range byRole {
			out.TotalUsers += n
		}
		return nil
	})
	count := func(dest *int64, model interface{}) func() error {
		return func() error {
			n, err := analytics.CountTable(gctx, nil, model)
			*dest = n
			return err
		}
	}
	g.Go(count(&out.TotalCourses, &models.Course{}))
	g.Go(count(&out.TotalEnrollments, &models.Enrollment{}))
	g.Go(count(&out.TotalAssignments, &models.Assignment{}))
	g.Go(count(&out.TotalSubmissions, &models.AssignmentSubmission{}))
	g.Go(func() error {
		n, err := analytics.CountSessionsSince(gctx, nil, at.AddDate(0, 0, -recentSessionDays))
		out.RecentSessions = n
		return err
	})
	g.Go(func() error {
		trend, err := analytics.DailyCounts(gctx, nil, &models.User{}, "created_at", trendDays, at)
		out.RegistrationTrend = trend
		return err
	})
	g.Go(func() error {
		trend, err := analytics.DailyCounts(gctx, nil, &models.Enrollment{}, "enrolled_at", trendDays, at)
		out.EnrollmentTrend = trend
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute system analytics: %w", err)
	}
	return out, nil
}

// ExportAnalytics writes the system analytics as an .xlsx workbook
func (s *adminService) ExportAnalytics(ctx context.Context, userID string, w io.Writer) error {
	stats, err := s.SystemAnalytics(ctx, userID)
	if err != nil {
		return err
	}

	summary := sheet{
		name:   "Summary",
		header: []interface{}{"metric", "value"},
		rows: [][]interface{}{
			{"total_users", stats.TotalUsers},
			{"total_courses", stats.TotalCourses},
			{"total_enrollments", stats.TotalEnrollments},
			{"total_assignments", stats.TotalAssignments},
			{"total_submissions", stats.TotalSubmissions},
			{"sessions_last_30_days", stats.RecentSessions},
		},
	}

	roles := make([]string, 0, len(stats.UsersByRole))
	for role := range stats.UsersByRole {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	byRole := sheet{name: "Users by Role", header: []interface{}{"role", "count"}}
	for _, role := range roles {
		byRole.rows = append(byRole.rows, []interface{}{role, stats.UsersByRole[models.UserRole(role)]})
	}

	trends := sheet{name: "Trends", header: []interface{}{"date", "registrations", "enrollments"}}
	for i, day := range stats.RegistrationTrend {
		var enrollments int64
		if i < len(stats.EnrollmentTrend) {
			enrollments = stats.EnrollmentTrend[i].Count
		}
		trends.rows = append(trends.rows, []interface{}{day.Date, day.Count, enrollments})
	}

	if err := writeWorkbook(w, summary, byRole, trends); err != nil {
		return fmt.Errorf("failed to write analytics workbook: %w", err)
	}
	s.logger.Info("Analytics exported", "user_id", userID)
	return nil
}

// ===== CACHE =====

func (s *adminService) CacheStats(ctx context.Context, userID string) (map[string]interface{}, error) {
	if _, err := requireRole(ctx, s.repo, userID, "cache", "read"); err != nil {
		return nil, err
	}
	return s.repo.CacheStats(ctx), nil
}

func (s *adminService) ClearCache(ctx context.Context, userID string) error {
	if _, err := requireRole(ctx, s.repo, userID, "cache", "clear"); err != nil {
		return err
	}
	if err := s.repo.ClearCache(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.logger.Info("Cache cleared", "user_id", userID)
	return nil
}
