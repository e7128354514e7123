package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/observability"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

type HandlerManager struct {
	serviceManager services.ServiceManager

	authHandler           *AuthHandler
	contentHandler        *ContentHandler
	quizHandler           *QuizHandler
	adaptiveHandler       *AdaptiveHandler
	gradingHandler        *GradingHandler
	gamificationHandler   *GamificationHandler
	chatHandler           *ChatHandler
	progressHandler       *ProgressHandler
	recommendationHandler *RecommendationHandler
	adminHandler          *AdminHandler
	authMiddleware        *JWTAuthMiddleware
	metricsEnabled        bool
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, metricsEnabled bool) *HandlerManager {
	return &HandlerManager{
		serviceManager:        serviceManager,
		authHandler:           NewAuthHandler(serviceManager.Auth(), logger),
		contentHandler:        NewContentHandler(serviceManager.Content(), serviceManager.Admin(), logger),
		quizHandler:           NewQuizHandler(serviceManager.Quiz(), logger),
		adaptiveHandler:       NewAdaptiveHandler(serviceManager.Adaptive(), logger),
		gradingHandler:        NewGradingHandler(serviceManager.Grading(), logger),
		gamificationHandler:   NewGamificationHandler(serviceManager.Gamification(), logger),
		chatHandler:           NewChatHandler(serviceManager.Chatbot(), logger),
		progressHandler:       NewProgressHandler(serviceManager.Progress(), logger),
		recommendationHandler: NewRecommendationHandler(serviceManager.Recommendation(), logger),
		adminHandler:          NewAdminHandler(serviceManager.Admin(), logger),
		authMiddleware:        NewJWTAuthMiddleware(serviceManager.Auth()),
		metricsEnabled:        metricsEnabled,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	if hm.metricsEnabled {
		router.GET("/metrics", observability.MetricsHandler())
	}

	staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)
	admin := hm.authMiddleware.RequireRoleMiddleware()

	v1 := router.Group("/api/v1")

	// Auth routes, public except /me
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/me", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Me)
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course routes
		courses := api.Group("/courses")
		{
			courses.GET("", hm.contentHandler.ListCourses)
			courses.GET("/catalog", hm.contentHandler.Catalog)
			courses.POST("", staff, hm.contentHandler.CreateCourse)
			courses.GET("/:id", hm.contentHandler.GetCourse)
			courses.PUT("/:id", staff, hm.contentHandler.UpdateCourse)
			courses.DELETE("/:id", staff, hm.contentHandler.DeleteCourse)

			courses.GET("/:id/topics", hm.contentHandler.ListTopics)
			courses.POST("/:id/topics", staff, hm.contentHandler.CreateTopic)
			courses.GET("/:id/assignments", hm.contentHandler.ListAssignments)
			courses.POST("/:id/assignments", staff, hm.contentHandler.CreateAssignment)

			courses.POST("/:id/enroll", hm.contentHandler.Enroll)
			courses.POST("/:id/unenroll", hm.contentHandler.Unenroll)
			courses.GET("/:id/students", staff, hm.contentHandler.CourseStudents)
			courses.POST("/:id/report", hm.contentHandler.ReportCourse)
		}

		// Topic routes
		topics := api.Group("/topics")
		{
			topics.PUT("/:id", staff, hm.contentHandler.UpdateTopic)
			topics.DELETE("/:id", staff, hm.contentHandler.DeleteTopic)
			topics.GET("/:id/materials", hm.contentHandler.ListMaterials)
			topics.POST("/:id/materials", staff, hm.contentHandler.CreateMaterial)
			topics.GET("/:id/quizzes", hm.quizHandler.ListByTopic)
			topics.POST("/:id/quizzes", staff, hm.quizHandler.Create)
		}

		// Material routes
		materials := api.Group("/materials")
		{
			materials.PUT("/:id", staff, hm.contentHandler.UpdateMaterial)
			materials.DELETE("/:id", staff, hm.contentHandler.DeleteMaterial)
			materials.POST("/:id/report", hm.contentHandler.ReportMaterial)
		}

		// Assignment routes
		assignments := api.Group("/assignments")
		{
			assignments.POST("/:id/submit", hm.contentHandler.SubmitAssignment)
			assignments.GET("/:id/submissions", hm.contentHandler.ListSubmissions)
			assignments.POST("/:id/submissions/:sid/grade", staff, hm.contentHandler.GradeSubmission)
		}

		// Quiz routes
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("/:id", hm.quizHandler.Get)
			quizzes.POST("/:id/attempts", hm.quizHandler.StartAttempt)
			quizzes.GET("/:id/attempts", hm.quizHandler.ListAttempts)
			quizzes.POST("/:id/attempts/:aid/submit", hm.quizHandler.SubmitAttempt)
		}

		// Adaptive assessment routes
		adaptive := api.Group("/adaptive")
		{
			adaptive.GET("/questions", hm.adaptiveHandler.ListQuestions)
			adaptive.POST("/questions", staff, hm.adaptiveHandler.CreateQuestion)
			adaptive.POST("/questions/import", staff, hm.adaptiveHandler.ImportQuestions)
			adaptive.GET("/questions/export", staff, hm.adaptiveHandler.ExportQuestions)

			adaptive.GET("/assessments", hm.adaptiveHandler.ListAssessments)
			adaptive.POST("/assessments", hm.adaptiveHandler.CreateAssessment)
			adaptive.POST("/assessments/:id/start", hm.adaptiveHandler.Start)
			adaptive.GET("/assessments/:id/question", hm.adaptiveHandler.CurrentQuestion)
			adaptive.POST("/assessments/:id/answer", hm.adaptiveHandler.SubmitAnswer)
			adaptive.POST("/assessments/:id/abandon", hm.adaptiveHandler.Abandon)
			adaptive.GET("/assessments/:id/results", hm.adaptiveHandler.Results)

			adaptive.GET("/analytics", hm.adaptiveHandler.GetAnalytics)
			adaptive.POST("/analytics/update", hm.adaptiveHandler.UpdateAnalytics)
			adaptive.GET("/quick-stats", hm.adaptiveHandler.QuickStats)

			adaptive.GET("/admin/questions", admin, hm.adaptiveHandler.AdminQuestions)
			adaptive.GET("/admin/analytics", admin, hm.adaptiveHandler.AdminAnalytics)
		}

		// Grading routes
		grading := api.Group("/grading")
		{
			grading.GET("/models", hm.gradingHandler.ListModels)
			grading.POST("/models", staff, hm.gradingHandler.CreateModel)
			grading.POST("/criteria", staff, hm.gradingHandler.CreateCriteria)
			grading.GET("/criteria/:question_id", hm.gradingHandler.ListCriteria)
			grading.POST("/grade", hm.gradingHandler.Grade)
			grading.GET("/responses/:id", hm.gradingHandler.GetResult)
			grading.POST("/review", staff, hm.gradingHandler.Review)
			grading.GET("/pending-reviews", staff, hm.gradingHandler.PendingReviews)
			grading.GET("/analytics", staff, hm.gradingHandler.Analytics)
		}

		// Gamification routes
		gamification := api.Group("/gamification")
		{
			gamification.GET("/badges", hm.gamificationHandler.ListBadges)
			gamification.POST("/badges", admin, hm.gamificationHandler.CreateBadge)
			gamification.GET("/badges/me", hm.gamificationHandler.MyBadges)

			gamification.GET("/points", hm.gamificationHandler.GetPoints)
			gamification.POST("/points/add", hm.gamificationHandler.AddPoints)

			gamification.GET("/leaderboards", hm.gamificationHandler.ListLeaderboards)
			gamification.POST("/leaderboards", admin, hm.gamificationHandler.CreateLeaderboard)
			gamification.GET("/leaderboards/:id/entries", hm.gamificationHandler.LeaderboardEntries)
			gamification.POST("/leaderboards/:id/entries", staff, hm.gamificationHandler.UpdateLeaderboardEntry)

			gamification.GET("/achievements", hm.gamificationHandler.ListAchievements)
			gamification.POST("/achievements/update", hm.gamificationHandler.UpdateAchievement)

			gamification.GET("/notifications", hm.gamificationHandler.ListNotifications)
			gamification.POST("/notifications/:id/read", hm.gamificationHandler.MarkNotificationRead)
			gamification.POST("/notifications/read-all", hm.gamificationHandler.MarkAllNotificationsRead)

			gamification.GET("/stats", hm.gamificationHandler.Stats)
		}

		// Chat routes
		chat := api.Group("/chat")
		{
			chat.POST("/send", hm.chatHandler.Send)
			chat.GET("/history", hm.chatHandler.History)
			chat.GET("/reminders", hm.chatHandler.ListReminders)
			chat.POST("/reminders", hm.chatHandler.CreateReminder)
			chat.DELETE("/reminders/:id", hm.chatHandler.DeleteReminder)
			chat.GET("/faqs", hm.chatHandler.ListFAQs)
			chat.POST("/faqs", admin, hm.chatHandler.CreateFAQ)
			chat.PUT("/faqs/:id", admin, hm.chatHandler.UpdateFAQ)
			chat.DELETE("/faqs/:id", admin, hm.chatHandler.DeleteFAQ)
		}

		// Progress routes
		progress := api.Group("/progress")
		{
			progress.POST("/sessions/start", hm.progressHandler.StartSession)
			progress.POST("/sessions/:id/end", hm.progressHandler.EndSession)
			progress.GET("/sessions/active", hm.progressHandler.ActiveSession)

			progress.POST("/activities/start", hm.progressHandler.StartActivity)
			progress.PUT("/activities/:id/update", hm.progressHandler.UpdateActivity)
			progress.POST("/activities/:id/complete", hm.progressHandler.CompleteActivity)

			progress.GET("/course/:id", hm.progressHandler.CourseProgress)
			progress.GET("/topic/:id", hm.progressHandler.TopicProgress)
			progress.GET("/overview", hm.progressHandler.Overview)
			progress.GET("/analytics/:period", hm.progressHandler.Analytics)
		}

		// Recommendation routes
		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("", hm.recommendationHandler.List)
			recommendations.POST("/generate", hm.recommendationHandler.Generate)
			recommendations.GET("/preferences", hm.recommendationHandler.GetPreferences)
			recommendations.PUT("/preferences", hm.recommendationHandler.UpdatePreferences)
			recommendations.POST("/:id/viewed", hm.recommendationHandler.MarkViewed)
			recommendations.POST("/:id/clicked", hm.recommendationHandler.MarkClicked)
			recommendations.POST("/:id/completed", hm.recommendationHandler.MarkCompleted)
			recommendations.POST("/pattern/refresh", hm.recommendationHandler.RefreshPattern)
		}

		// Admin routes - Admins only
		adminGroup := api.Group("/admin")
		adminGroup.Use(admin)
		{
			adminGroup.GET("/moderation/pending", hm.adminHandler.Pending)
			adminGroup.GET("/moderation/reported", hm.adminHandler.Reported)
			adminGroup.POST("/moderation/:type/:id/approve", hm.adminHandler.Approve)
			adminGroup.POST("/moderation/:type/:id/reject", hm.adminHandler.Reject)
			adminGroup.POST("/moderation/:type/:id/resolve", hm.adminHandler.ResolveReport)
			adminGroup.POST("/moderation/:type/:id/remove", hm.adminHandler.Remove)
			adminGroup.POST("/users/bulk-upload", hm.adminHandler.BulkUploadUsers)
			adminGroup.GET("/analytics", hm.adminHandler.SystemAnalytics)
			adminGroup.GET("/analytics/export", hm.adminHandler.ExportAnalytics)
			adminGroup.GET("/cache", hm.adminHandler.CacheStats)
			adminGroup.DELETE("/cache", hm.adminHandler.ClearCache)
		}
	}
}

// health reports database and cache reachability
func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "edulearn",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "edulearn",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"cache":     hm.serviceManager.CacheStats(ctx),
	})
}
