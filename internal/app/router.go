package app

import (
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/middleware"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/monitoring"
	"learnboard_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
)

// sessionOrIP counts authenticated requests per user.
func sessionOrIP(c *gin.Context) string {
	if s := util.GetSessionFromContext(c); s != nil {
		return "user:" + s.UserID
	}
	return "ip:" + c.ClientIP()
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), security.RateLimiter(cfg.RateLimit.MaxRequests, window, sessionOrIP))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerCommunityRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		// 列表类：可选认证，允许游客访问
		public.GET("/community/discussions", middleware.TryAuthMiddleware(a.Config), c.community.ListDiscussions)
		public.GET("/community/events", middleware.TryAuthMiddleware(a.Config), c.community.ListEvents)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/dashboard", c.dashboard.GetDashboard)
	rg.GET("/dashboard/weekly-progress", c.dashboard.GetWeeklyProgress)

	rg.GET("/progress", c.dashboard.GetProgress)
	rg.PUT("/progress/:courseId", c.dashboard.UpdateProgress)

	courses := rg.Group("/courses")
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/:id", c.course.GetCourse)
		courses.POST("/:id/enroll", c.course.Enroll)
		courses.POST("/:id/lessons/:index/complete", c.course.CompleteLesson)
	}

	achievements := rg.Group("/achievements")
	{
		achievements.GET("", c.achievement.GetUserAchievements)
		achievements.POST("/scan", c.achievement.Scan)
		achievements.GET("/leaderboard", c.achievement.GetLeaderboard)
	}

	rg.GET("/realtime", c.realtime.Stream)
}

func (a *App) registerCommunityRoutes(rg *gin.RouterGroup, c *controllers) {
	community := rg.Group("/community")
	{
		community.POST("/discussions", c.community.CreateDiscussion)
		community.POST("/events/:id/join", c.community.JoinEvent)
	}
}
