package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateCourseCache drops a course and every list that may contain it
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint) {
	SafeDelete(ctx, cm.Course, fmt.Sprintf("id:%d", courseID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Course, "catalog:*")
}

// InvalidateQuestionPool drops cached adaptive question pools of a course
func InvalidateQuestionPool(ctx context.Context, cm *CacheManager, courseID uint) {
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("pool:%d:*", courseID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "adaptive:*")
}

// InvalidateLeaderboard drops the cached standings of one leaderboard
func InvalidateLeaderboard(ctx context.Context, cm *CacheManager, leaderboardID uint) {
	SafeInvalidatePattern(ctx, cm.Leaderboard, fmt.Sprintf("%d:*", leaderboardID))
	SafeDelete(ctx, cm.Leaderboard, "list")
}
