package models

// All returns every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{}, &Topic{}, &LearningMaterial{}, &Assignment{}, &AssignmentSubmission{}, &Enrollment{},
		&Quiz{}, &QuizQuestion{}, &QuizOption{}, &QuizAttempt{}, &QuizAnswer{},
		&AdaptiveQuestion{}, &AdaptiveAssessment{}, &AssessmentResponse{}, &AdaptiveAnalytics{},
		&GradingModel{}, &GradingCriteria{}, &AutoGradingResult{}, &HumanReview{},
		&Badge{}, &UserBadge{}, &UserPoints{}, &Leaderboard{}, &LeaderboardEntry{}, &Achievement{}, &Notification{},
		&ChatMessage{}, &FAQ{}, &StudyReminder{},
		&LearningSession{}, &LearningActivity{}, &CourseProgress{}, &TopicProgress{}, &LearningAnalytics{}, &StudyStreak{},
		&UserPreference{}, &LearningPattern{}, &UserRecommendation{},
	}
}
