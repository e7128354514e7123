package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50
	recommendationTTL          = 7 * 24 * time.Hour
	weakSubjectThreshold       = 60.0
	gapFillingScore            = 0.9
	patternWindowDays          = 28

	contentTypeCourse = "course"
)

type recommendationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRecommendationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) RecommendationService {
	return &recommendationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// candidate is a scored course before it is stored
type candidate struct {
	courseID  uint
	kind      models.RecommendationType
	score     float64
	reasoning string
}

// ===== PREFERENCES =====

func defaultPreference(userID string) *models.UserPreference {
	return &models.UserPreference{
		UserID:                  userID,
		PreferredDifficulty:     "intermediate",
		SubjectInterests:        toJSON([]string{}),
		TopicInterests:          toJSON([]string{}),
		SessionDurationMinutes:  30,
		EmailNotifications:      true,
		PushNotifications:       true,
		RecommendationFrequency: "weekly",
	}
}

func (s *recommendationService) loadPreference(ctx context.Context, tx *gorm.DB, userID string, create bool) (*models.UserPreference, error) {
	pref, err := s.repo.Recommendation().GetPreference(ctx, tx, userID)
	if err == nil {
		return pref, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}
	pref = defaultPreference(userID)
	if create {
		if err := s.repo.Recommendation().SavePreference(ctx, tx, pref); err != nil {
			return nil, err
		}
	}
	return pref, nil
}

func (s *recommendationService) GetPreferences(ctx context.Context, userID string) (*models.UserPreference, error) {
	return s.loadPreference(ctx, nil, userID, true)
}

func (s *recommendationService) UpdatePreferences(ctx context.Context, req *UpdatePreferenceRequest, userID string) (*models.UserPreference, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var pref *models.UserPreference
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		// an existing row is saved column by column, so false flags survive
		pref, err = s.loadPreference(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		applyPreference(pref, req)
		return s.repo.Recommendation().SavePreference(ctx, tx, pref)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Preferences updated", "user_id", userID)
	return pref, nil
}

func applyPreference(pref *models.UserPreference, req *UpdatePreferenceRequest) {
	if req.PreferredDifficulty != nil {
		pref.PreferredDifficulty = *req.PreferredDifficulty
	}
	if req.LearningStyle != nil {
		pref.LearningStyle = *req.LearningStyle
	}
	if req.PreferredContentType != nil {
		pref.PreferredContentType = *req.PreferredContentType
	}
	if req.SubjectInterests != nil {
		pref.SubjectInterests = toJSON(req.SubjectInterests)
	}
	if req.TopicInterests != nil {
		pref.TopicInterests = toJSON(req.TopicInterests)
	}
	if req.PreferredStudyTime != nil {
		pref.PreferredStudyTime = *req.PreferredStudyTime
	}
	if req.SessionDurationMinutes != nil {
		pref.SessionDurationMinutes = *req.SessionDurationMinutes
	}
	if req.DevicePreference != nil {
		pref.DevicePreference = *req.DevicePreference
	}
	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		pref.PushNotifications = *req.PushNotifications
	}
	if req.RecommendationFrequency != nil {
		pref.RecommendationFrequency = *req.RecommendationFrequency
	}
}

// ===== ALGORITHMS =====

// contentScore rates a course against the user's stated preferences, capped at 1
func contentScore(course *models.Course, pref *models.UserPreference) float64 {
	var score float64
	if course.Level == pref.PreferredDifficulty {
		score += 0.3
	}

	title := strings.ToLower(course.Title)
	description := strings.ToLower(course.Description)
	category := strings.ToLower(course.Category)
	for _, subject := range stringList(pref.SubjectInterests) {
		subject = strings.ToLower(strings.TrimSpace(subject))
		if subject == "" {
			continue
		}
		if strings.Contains(title, subject) || strings.Contains(description, subject) || strings.Contains(category, subject) {
			score += 0.4
		}
	}
	for _, topic := range stringList(pref.TopicInterests) {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		if strings.Contains(title, topic) || strings.Contains(description, topic) {
			score += 0.3
		}
	}
	if score > 1 {
		return 1
	}
	return score
}

func contentBased(courses []*models.Course, pref *models.UserPreference, limit int) []candidate {
	var out []candidate
	for _, c := range courses {
		score := contentScore(c, pref)
		if score <= 0 {
			continue
		}
		out = append(out, candidate{
			courseID:  c.ID,
			kind:      models.RecommendContentBased,
			score:     round(score, 2),
			reasoning: "Matches your interests and preferred difficulty",
		})
	}
	return topCandidates(out, limit)
}

// collaborative scores courses by how many peers are enrolled, normalized by the most popular
func collaborative(counts []repositories.CourseCount, available map[uint]bool, limit int) []candidate {
	var max int64
	for _, c := range counts {
		if available[c.CourseID] && c.Count > max {
			max = c.Count
		}
	}
	if max == 0 {
		return nil
	}

	var out []candidate
	for _, c := range counts {
		if !available[c.CourseID] {
			continue
		}
		out = append(out, candidate{
			courseID:  c.CourseID,
			kind:      models.RecommendCollaborative,
			score:     round(float64(c.Count)/float64(max), 2),
			reasoning: fmt.Sprintf("Popular with %d learners who share your courses", c.Count),
		})
	}
	return topCandidates(out, limit)
}

func gapFilling(courses []*models.Course, weakSubjects []string, limit int) []candidate {
	var out []candidate
	for _, subject := range weakSubjects {
		needle := strings.ToLower(strings.TrimSpace(subject))
		if needle == "" {
			continue
		}
		for _, c := range courses {
			if strings.Contains(strings.ToLower(c.Title), needle) {
				out = append(out, candidate{
					courseID:  c.ID,
					kind:      models.RecommendGapFilling,
					score:     gapFillingScore,
					reasoning: fmt.Sprintf("Recommended to improve %s skills", subject),
				})
			}
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// hybrid merges the three lists, keeping the first occurrence of each course
func hybrid(limit int, lists ...[]candidate) []candidate {
	seen := make(map[uint]bool)
	var out []candidate
	for _, list := range lists {
		for _, c := range list {
			if seen[c.courseID] {
				continue
			}
			seen[c.courseID] = true
			out = append(out, c)
		}
	}
	return topCandidates(out, limit)
}

func topCandidates(in []candidate, limit int) []candidate {
	sort.SliceStable(in, func(i, j int) bool { return in[i].score > in[j].score })
	if limit >= 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

// ===== GENERATION =====

// Generate computes hybrid recommendations and replaces the user's active set
func (s *recommendationService) Generate(ctx context.Context, userID string, limit int) ([]*models.UserRecommendation, error) {
	limit = clampRecommendationLimit(limit)
	s.logger.Info("Generating recommendations", "user_id", userID, "limit", limit)

	if _, err := loadUser(ctx, s.repo, nil, userID); err != nil {
		return nil, err
	}
	pref, err := s.loadPreference(ctx, nil, userID, false)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.repo.Enrollment().CourseIDsForStudent(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	available, err := s.repo.Course().ListAvailable(ctx, nil, enrolled)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repo.Course().ListAvailable(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Enrollment().PeerCourseCounts(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	var weak []string
	if pattern, err := s.repo.Recommendation().GetPattern(ctx, nil, userID); err == nil {
		weak = stringList(pattern.WeakSubjects)
	} else if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	availableIDs := make(map[uint]bool, len(available))
	for _, c := range available {
		availableIDs[c.ID] = true
	}

	picked := hybrid(limit,
		contentBased(available, pref, limit/2),
		collaborative(counts, availableIDs, limit/2),
		gapFilling(catalog, weak, limit/4),
	)

	expires := now().Add(recommendationTTL)
	recs := make([]*models.UserRecommendation, 0, len(picked))
	for _, c := range picked {
		recs = append(recs, &models.UserRecommendation{
			UserID:             userID,
			ContentID:          c.courseID,
			ContentType:        contentTypeCourse,
			RecommendationType: c.kind,
			ConfidenceScore:    c.score,
			Reasoning:          c.reasoning,
			Priority:           1,
			ExpiresAt:          &expires,
			IsActive:           true,
		})
	}
	if err := s.repo.Recommendation().ReplaceActive(ctx, nil, userID, recs); err != nil {
		return nil, err
	}

	s.logger.Info("Recommendations generated", "user_id", userID, "count", len(recs))
	return recs, nil
}

func clampRecommendationLimit(limit int) int {
	if limit <= 0 {
		return defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		return maxRecommendationLimit
	}
	return limit
}

func (s *recommendationService) ListActive(ctx context.Context, userID string, limit int) ([]*models.UserRecommendation, error) {
	recs, err := s.repo.Recommendation().ListActive(ctx, nil, userID, now(), clampRecommendationLimit(limit))
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// ===== FEEDBACK =====

func (s *recommendationService) mark(ctx context.Context, id uint, userID string, apply func(*models.UserRecommendation, time.Time)) (*models.UserRecommendation, error) {
	rec, err := s.repo.Recommendation().Get(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRecommendationNotFound
		}
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrRecommendationNotFound
	}
	apply(rec, now())
	if err := s.repo.Recommendation().Save(ctx, nil, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recommendationService) MarkViewed(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error) {
	return s.mark(ctx, id, userID, func(r *models.UserRecommendation, at time.Time) {
		if !r.IsViewed {
			r.IsViewed = true
			r.ViewedAt = &at
		}
	})
}

func (s *recommendationService) MarkClicked(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error) {
	return s.mark(ctx, id, userID, func(r *models.UserRecommendation, at time.Time) {
		if !r.IsClicked {
			r.IsClicked = true
			r.ClickedAt = &at
		}
	})
}

func (s *recommendationService) MarkCompleted(ctx context.Context, id uint, userID string) (*models.UserRecommendation, error) {
	return s.mark(ctx, id, userID, func(r *models.UserRecommendation, at time.Time) {
		if !r.IsCompleted {
			r.IsCompleted = true
			r.CompletedAt = &at
		}
	})
}

// ===== LEARNING PATTERN =====

// RefreshPattern recomputes the user's pattern from recent activity and assessment accuracy
func (s *recommendationService) RefreshPattern(ctx context.Context, userID string) (*models.LearningPattern, error) {
	to := now()
	from := to.AddDate(0, 0, -patternWindowDays)

	sessions, err := s.repo.Progress().SessionsBetween(ctx, nil, userID, from, to)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.Progress().ActivitiesBetween(ctx, nil, userID, from, to)
	if err != nil {
		return nil, err
	}
	accuracy, err := s.repo.AdaptiveAssessment().CourseAccuracy(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	analytics, err := s.repo.AdaptiveAnalytics().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	var pattern *models.LearningPattern
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.Recommendation().GetPattern(ctx, tx, userID)
		switch {
		case err == nil:
			pattern = existing
		case repositories.IsNotFoundError(err):
			pattern = &models.LearningPattern{UserID: userID}
		default:
			return err
		}
		analyzePattern(pattern, sessions, activities, accuracy, analytics, to)
		return s.repo.Recommendation().SavePattern(ctx, tx, pattern)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Learning pattern refreshed", "user_id", userID, "weak_subjects", len(stringList(pattern.WeakSubjects)))
	return pattern, nil
}

func analyzePattern(p *models.LearningPattern, sessions []*models.LearningSession, activities []*models.LearningActivity,
	accuracy map[string]float64, analytics []*models.AdaptiveAnalytics, at time.Time) {
	p.AverageSessionDuration = 0
	if len(sessions) > 0 {
		var minutes int
		for _, sess := range sessions {
			minutes += sess.DurationMinutes
		}
		p.AverageSessionDuration = round(float64(minutes)/float64(len(sessions)), 2)
	}

	p.AverageScore, p.CompletionRate = 0, 0
	var completed, scored int
	var scoreSum float64
	for _, a := range activities {
		if a.Status == models.ActivityCompleted {
			completed++
		}
		if a.Score != nil {
			scoreSum += *a.Score
			scored++
		}
	}
	if len(activities) > 0 {
		p.CompletionRate = round(float64(completed)/float64(len(activities))*100, 2)
	}
	if scored > 0 {
		p.AverageScore = round(scoreSum/float64(scored), 2)
	}
	p.ActivitiesPerWeek = round(float64(len(activities))/(patternWindowDays/7), 2)

	weak := []string{}
	for subject, pct := range accuracy {
		if pct < weakSubjectThreshold {
			weak = append(weak, subject)
		}
	}
	sort.Strings(weak)
	p.WeakSubjects = toJSON(weak)

	missed := []string{}
	seen := make(map[string]bool)
	for _, a := range analytics {
		for _, area := range stringList(a.WeakAreas) {
			if !seen[area] {
				seen[area] = true
				missed = append(missed, area)
			}
		}
	}
	p.MissedConcepts = toJSON(missed)
	p.LastAnalyzed = at
}
