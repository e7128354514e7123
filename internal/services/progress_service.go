package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	recentActivityLimit = 10
	maxBrowserLength    = 100
)

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *progressService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== SESSIONS =====

func (s *progressService) StartSession(ctx context.Context, req *StartSessionRequest, userID, userAgent, ip string) (*models.LearningSession, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.CourseID != nil {
		if _, err := loadCourse(ctx, s.repo, nil, *req.CourseID); err != nil {
			return nil, err
		}
	}

	if len(userAgent) > maxBrowserLength {
		userAgent = userAgent[:maxBrowserLength]
	}
	session := newSession(userID, req.CourseID, req.TopicID, models.SessionType(req.SessionType))
	session.DeviceType = req.DeviceType
	session.Browser = userAgent
	session.IPAddress = ip

	if err := s.repo.Progress().CreateSession(ctx, nil, session); err != nil {
		return nil, err
	}
	s.logger.Info("Learning session started", "session_id", session.ID, "user_id", userID, "type", session.SessionType)
	return session, nil
}

func newSession(userID string, courseID, topicID *uint, kind models.SessionType) *models.LearningSession {
	if kind == "" {
		kind = models.SessionStudy
	}
	return &models.LearningSession{
		UserID:       userID,
		CourseID:     courseID,
		TopicID:      topicID,
		SessionStart: now(),
		SessionType:  kind,
		IsActive:     true,
	}
}

// EndSession closes an active session of the user and credits its minutes to the course
func (s *progressService) EndSession(ctx context.Context, id uint, userID string) (*models.LearningSession, error) {
	var session *models.LearningSession
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		session, err = s.repo.Progress().GetSession(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.UserID != userID || !session.IsActive {
			return ErrSessionNotFound
		}

		end := now()
		session.SessionEnd = &end
		session.DurationMinutes = int(end.Sub(session.SessionStart).Minutes())
		session.IsActive = false
		session.WasCompleted = true
		if err := s.repo.Progress().SaveSession(ctx, tx, session); err != nil {
			return err
		}

		if session.CourseID == nil {
			return nil
		}
		progress, err := s.repo.Progress().GetCourseProgress(ctx, tx, userID, *session.CourseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil
			}
			return err
		}
		progress.TotalTimeSpentMinutes += session.DurationMinutes
		progress.LastActivity = &end
		return s.repo.Progress().SaveCourseProgress(ctx, tx, progress)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Learning session ended", "session_id", id, "minutes", session.DurationMinutes)
	return session, nil
}

// ActiveSession returns the latest active session, or nil when there is none
func (s *progressService) ActiveSession(ctx context.Context, userID string) (*models.LearningSession, error) {
	session, err := s.repo.Progress().ActiveSession(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// ===== ACTIVITIES =====

// StartActivity opens an activity inside the active session, starting one if needed
func (s *progressService) StartActivity(ctx context.Context, req *StartActivityRequest, userID string) (*models.LearningActivity, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	var activity *models.LearningActivity
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		session, err := s.repo.Progress().ActiveSession(ctx, tx, userID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return err
			}
			session = newSession(userID, req.CourseID, req.TopicID, models.SessionStudy)
			if err := s.repo.Progress().CreateSession(ctx, tx, session); err != nil {
				return err
			}
		}

		activity = &models.LearningActivity{
			SessionID:    session.ID,
			UserID:       userID,
			CourseID:     req.CourseID,
			TopicID:      req.TopicID,
			MaterialID:   req.MaterialID,
			ActivityType: req.ActivityType,
			ActivityName: req.ActivityName,
			Description:  req.Description,
			StartedAt:    now(),
			Status:       models.ActivityStarted,
			Metadata:     toJSON(metadata),
		}
		return s.repo.Progress().CreateActivity(ctx, tx, activity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Learning activity started", "activity_id", activity.ID, "type", activity.ActivityType, "user_id", userID)
	return activity, nil
}

func (s *progressService) loadOwnActivity(ctx context.Context, tx *gorm.DB, id uint, userID string) (*models.LearningActivity, error) {
	activity, err := s.repo.Progress().GetActivity(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if activity.UserID != userID {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

func (s *progressService) UpdateActivity(ctx context.Context, id uint, req *UpdateActivityRequest, userID string) (*models.LearningActivity, error) {
	var activity *models.LearningActivity
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		activity, err = s.loadOwnActivity(ctx, tx, id, userID)
		if err != nil {
			return err
		}

		activity.ProgressPercentage = math.Min(100, math.Max(0, req.ProgressPercentage))
		switch {
		case activity.ProgressPercentage >= 100:
			activity.Status = models.ActivityCompleted
		case activity.ProgressPercentage > 0:
			activity.Status = models.ActivityInProgress
		}

		if req.Complete {
			progress := activity.ProgressPercentage
			if progress == 0 {
				progress = 100
			}
			return s.finishActivity(ctx, tx, activity, progress, nil, nil)
		}
		return s.repo.Progress().SaveActivity(ctx, tx, activity)
	})
	if err != nil {
		return nil, err
	}
	if req.Complete {
		s.publishCompleted(ctx, activity)
	}
	return activity, nil
}

func (s *progressService) CompleteActivity(ctx context.Context, id uint, req *CompleteActivityRequest, userID string) (*models.LearningActivity, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	progress := 100.0
	if req.ProgressPercentage != nil {
		progress = math.Min(100, math.Max(0, *req.ProgressPercentage))
	}

	var activity *models.LearningActivity
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		activity, err = s.loadOwnActivity(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		return s.finishActivity(ctx, tx, activity, progress, req.Score, req.MaxScore)
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, activity)
	s.logger.Info("Learning activity completed", "activity_id", id, "user_id", userID)
	return activity, nil
}

// finishActivity marks the activity completed and refreshes everything derived from it
func (s *progressService) finishActivity(ctx context.Context, tx *gorm.DB, a *models.LearningActivity, progress float64, score, maxScore *float64) error {
	completedAt := now()
	a.CompletedAt = &completedAt
	a.ProgressPercentage = progress
	a.Status = models.ActivityCompleted
	if score != nil {
		a.Score = score
	}
	if maxScore != nil {
		a.MaxScore = maxScore
	}
	a.DurationSeconds = int(completedAt.Sub(a.StartedAt).Seconds())
	if err := s.repo.Progress().SaveActivity(ctx, tx, a); err != nil {
		return err
	}

	if a.TopicID != nil {
		if err := s.refreshTopic(ctx, tx, a.UserID, *a.TopicID, a); err != nil {
			return err
		}
	}
	if a.CourseID != nil {
		if err := s.refreshCourse(ctx, tx, a.UserID, *a.CourseID, a); err != nil {
			return err
		}
	}
	_, err := s.recordStudyDay(ctx, tx, a.UserID, completedAt)
	return err
}

func (s *progressService) publishCompleted(ctx context.Context, a *models.LearningActivity) {
	payload := events.ActivityCompletedPayload{
		ActivityType: a.ActivityType,
		ActivityID:   a.ID,
		CourseID:     a.CourseID,
		TopicID:      a.TopicID,
		Score:        a.Score,
	}
	if err := events.Publish(ctx, s.publisher, events.TopicActivityCompleted, a.UserID, payload); err != nil {
		s.logger.Warn("Failed to publish activity completion", "activity_id", a.ID, "error", err)
	}
}

// scorePercent normalizes a quiz score to 0..100 when a maximum is known
func scorePercent(a *models.LearningActivity) (float64, bool) {
	if a.Score == nil {
		return 0, false
	}
	if a.MaxScore != nil && *a.MaxScore > 0 {
		return *a.Score / *a.MaxScore * 100, true
	}
	return *a.Score, true
}

// ===== COURSE AND TOPIC PROGRESS =====

func (s *progressService) courseProgress(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	progress, err := s.repo.Progress().GetCourseProgress(ctx, tx, userID, courseID)
	if err == nil {
		return progress, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	if _, err := loadCourse(ctx, s.repo, tx, courseID); err != nil {
		return nil, err
	}
	topics, err := s.repo.Topic().CountByCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	materials, err := s.repo.Material().CountByCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	progress = &models.CourseProgress{
		UserID:         userID,
		CourseID:       courseID,
		TotalTopics:    int(topics),
		TotalMaterials: int(materials),
		FirstAccess:    now(),
		IsActive:       true,
	}
	if err := s.repo.Progress().SaveCourseProgress(ctx, tx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *progressService) topicProgress(ctx context.Context, tx *gorm.DB, userID string, topicID uint) (*models.TopicProgress, error) {
	progress, err := s.repo.Progress().GetTopicProgress(ctx, tx, userID, topicID)
	if err == nil {
		return progress, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	topic, err := loadTopic(ctx, s.repo, tx, topicID)
	if err != nil {
		return nil, err
	}
	materials, err := s.repo.Material().CountByTopic(ctx, tx, topicID)
	if err != nil {
		return nil, err
	}
	progress = &models.TopicProgress{
		UserID:         userID,
		TopicID:        topicID,
		CourseID:       topic.CourseID,
		TotalMaterials: int(materials),
		FirstAccess:    now(),
		QuizScores:     toJSON([]float64{}),
	}
	if err := s.repo.Progress().SaveTopicProgress(ctx, tx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *progressService) refreshTopic(ctx context.Context, tx *gorm.DB, userID string, topicID uint, a *models.LearningActivity) error {
	progress, err := s.topicProgress(ctx, tx, userID, topicID)
	if err != nil {
		return err
	}
	completed, err := s.repo.Progress().CountCompletedMaterials(ctx, tx, userID, topicID)
	if err != nil {
		return err
	}

	at := now()
	progress.MaterialsCompleted = int(completed)
	progress.TimeSpentMinutes += a.DurationSeconds / 60
	progress.LastAccess = &at
	if a.ActivityType == models.ActivityTypeQuizTake {
		if pct, ok := scorePercent(a); ok {
			scores := append(floatList(progress.QuizScores), pct)
			progress.QuizScores = toJSON(scores)
			var sum float64
			for _, v := range scores {
				sum += v
			}
			progress.AverageQuizScore = sum / float64(len(scores))
		}
	}
	progress.Recalculate(at)
	return s.repo.Progress().SaveTopicProgress(ctx, tx, progress)
}

func (s *progressService) refreshCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint, a *models.LearningActivity) error {
	progress, err := s.courseProgress(ctx, tx, userID, courseID)
	if err != nil {
		return err
	}

	topicsDone, err := s.repo.Progress().CountCompletedTopics(ctx, tx, userID, courseID)
	if err != nil {
		return err
	}
	topics, err := s.repo.Topic().ListByCourse(ctx, tx, courseID)
	if err != nil {
		return err
	}
	var materialsDone int64
	for _, t := range topics {
		n, err := s.repo.Progress().CountCompletedMaterials(ctx, tx, userID, t.ID)
		if err != nil {
			return err
		}
		materialsDone += n
	}

	at := now()
	progress.TopicsCompleted = int(topicsDone)
	progress.MaterialsCompleted = int(materialsDone)
	progress.LastActivity = &at
	switch a.ActivityType {
	case models.ActivityTypeQuizTake:
		if pct, ok := scorePercent(a); ok {
			total := progress.AverageQuizScore*float64(progress.QuizzesTaken) + pct
			progress.QuizzesTaken++
			progress.AverageQuizScore = total / float64(progress.QuizzesTaken)
		}
	case models.ActivityTypeAssignmentSubmit:
		progress.AssignmentsSubmitted++
	}
	progress.Recalculate(at)
	return s.repo.Progress().SaveCourseProgress(ctx, tx, progress)
}

func (s *progressService) CourseProgress(ctx context.Context, courseID uint, userID string) (*models.CourseProgress, error) {
	var progress *models.CourseProgress
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		progress, err = s.courseProgress(ctx, tx, userID, courseID)
		return err
	})
	return progress, err
}

func (s *progressService) TopicProgress(ctx context.Context, topicID uint, userID string) (*models.TopicProgress, error) {
	var progress *models.TopicProgress
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		progress, err = s.topicProgress(ctx, tx, userID, topicID)
		return err
	})
	return progress, err
}

// Overview loads course progress, the streak and recent activities concurrently
func (s *progressService) Overview(ctx context.Context, userID string) (*ProgressOverview, error) {
	var (
		courses    []*models.CourseProgress
		streak     *models.StudyStreak
		activities []*models.LearningActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = s.repo.Progress().ListCourseProgress(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		streak, err = s.repo.Progress().GetStreak(gctx, nil, userID)
		if err != nil && repositories.IsNotFoundError(err) {
			streak, err = &models.StudyStreak{UserID: userID}, nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.repo.Progress().RecentActivities(gctx, nil, userID, recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build progress overview: %w", err)
	}

	overview := &ProgressOverview{
		Courses:          courses,
		Streak:           streak,
		TotalCourses:     len(courses),
		RecentActivities: activities,
	}
	var sum float64
	var minutes int
	for _, c := range courses {
		if c.OverallProgress >= 100 {
			overview.CompletedCourses++
		}
		sum += c.OverallProgress
		minutes += c.TotalTimeSpentMinutes
	}
	if len(courses) > 0 {
		overview.AverageProgress = round(sum/float64(len(courses)), 2)
	}
	overview.TotalTimeHours = round(float64(minutes)/60, 1)
	return overview, nil
}

// ===== ANALYTICS =====

// periodBounds returns the first day, the last day and the exclusive end of the period holding day.
// Weeks start on Monday.
func periodBounds(period models.PeriodType, day time.Time) (time.Time, time.Time, time.Time) {
	y, m, d := day.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch period {
	case models.PeriodWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), start.AddDate(0, 0, 7)
	case models.PeriodMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		next := start.AddDate(0, 1, 0)
		return start, next.AddDate(0, 0, -1), next
	default:
		return today, today, today.AddDate(0, 0, 1)
	}
}

// Analytics returns the stored aggregate for the current period, generating it on first request
func (s *progressService) Analytics(ctx context.Context, userID string, period models.PeriodType) (*models.LearningAnalytics, error) {
	switch period {
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
	default:
		return nil, NewValidationError("period", "must be daily, weekly or monthly", period)
	}
	start, last, end := periodBounds(period, now())

	var analytics *models.LearningAnalytics
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.repo.Progress().GetPeriodAnalytics(ctx, tx, userID, period, start)
		if err == nil {
			analytics = existing
			return nil
		}
		if !repositories.IsNotFoundError(err) {
			return err
		}

		sessions, err := s.repo.Progress().SessionsBetween(ctx, tx, userID, start, end)
		if err != nil {
			return err
		}
		activities, err := s.repo.Progress().ActivitiesBetween(ctx, tx, userID, start, end)
		if err != nil {
			return err
		}
		analytics = aggregatePeriod(userID, period, start, last, sessions, activities)
		return s.repo.Progress().CreatePeriodAnalytics(ctx, tx, analytics)
	})
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

func aggregatePeriod(userID string, period models.PeriodType, start, last time.Time, sessions []*models.LearningSession, activities []*models.LearningActivity) *models.LearningAnalytics {
	a := &models.LearningAnalytics{
		UserID:        userID,
		PeriodType:    period,
		PeriodStart:   start,
		PeriodEnd:     last,
		SessionsCount: len(sessions),
	}
	for _, sess := range sessions {
		a.TotalTimeMinutes += sess.DurationMinutes
	}

	materials := make(map[uint]struct{})
	var scoreSum float64
	var scored int
	for _, act := range activities {
		if act.MaterialID != nil {
			materials[*act.MaterialID] = struct{}{}
		}
		switch act.ActivityType {
		case models.ActivityTypeQuizTake:
			a.QuizzesTaken++
		case models.ActivityTypeAssignmentSubmit:
			a.AssignmentsSubmitted++
		}
		if act.Status != models.ActivityCompleted {
			continue
		}
		a.ActivitiesCompleted++
		if act.Score != nil {
			scoreSum += *act.Score
			scored++
		}
	}
	a.MaterialsAccessed = len(materials)
	if scored > 0 {
		a.AverageScore = scoreSum / float64(scored)
	}
	return a
}

// ===== STREAK =====

func (s *progressService) RecordStudyDay(ctx context.Context, userID string, day time.Time) (*models.StudyStreak, error) {
	var streak *models.StudyStreak
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		streak, err = s.recordStudyDay(ctx, tx, userID, day)
		return err
	})
	return streak, err
}

func (s *progressService) recordStudyDay(ctx context.Context, tx *gorm.DB, userID string, day time.Time) (*models.StudyStreak, error) {
	streak, err := s.repo.Progress().GetStreak(ctx, tx, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, err
		}
		streak = &models.StudyStreak{UserID: userID}
	}
	streak.Record(day, now())
	if err := s.repo.Progress().SaveStreak(ctx, tx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

// ===== EVENT CONSUMERS =====

// HandleStudyEvent counts any completed learning event as a study day
func (s *progressService) HandleStudyEvent(ctx context.Context, event *events.Event) error {
	if event.UserID == "" {
		return nil
	}
	day := event.Timestamp
	if day.IsZero() {
		day = now()
	}
	if _, err := s.RecordStudyDay(ctx, event.UserID, day); err != nil {
		return fmt.Errorf("failed to record study day for %s: %w", event.Type, err)
	}
	return nil
}
