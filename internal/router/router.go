package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/handler"
	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	TOS      *handler.TOSHandler
	Test     *handler.TestHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireTeacherJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Question banks
		teacherAPI.GET("/banks", handlers.Question.ListBanks)
		teacherAPI.POST("/banks", handlers.Question.CreateBank)
		teacherAPI.GET("/banks/:bank_id", handlers.Question.GetBank)
		teacherAPI.PUT("/banks/:bank_id", handlers.Question.UpdateBank)
		teacherAPI.DELETE("/banks/:bank_id", handlers.Question.DeleteBank)
		teacherAPI.GET("/banks/:bank_id/pool", handlers.Question.Pool)

		// Questions
		teacherAPI.GET("/banks/:bank_id/questions", handlers.Question.ListQuestions)
		teacherAPI.POST("/banks/:bank_id/questions", handlers.Question.AddQuestion)
		teacherAPI.GET("/banks/:bank_id/questions/:question_id", handlers.Question.GetQuestion)
		teacherAPI.PUT("/banks/:bank_id/questions/:question_id", handlers.Question.UpdateQuestion)
		teacherAPI.PATCH("/banks/:bank_id/questions/:question_id/approve", handlers.Question.ApproveQuestion)
		teacherAPI.DELETE("/banks/:bank_id/questions/:question_id", handlers.Question.DeleteQuestion)

		// Table of Specification
		teacherAPI.POST("/tos/calculate", handlers.TOS.Calculate)
		teacherAPI.GET("/tos", handlers.TOS.List)
		teacherAPI.POST("/tos", handlers.TOS.Create)
		teacherAPI.GET("/tos/:tos_id", handlers.TOS.Get)
		teacherAPI.PUT("/tos/:tos_id", handlers.TOS.Update)
		teacherAPI.DELETE("/tos/:tos_id", handlers.TOS.Delete)
		teacherAPI.GET("/tos/:tos_id/export", handlers.TOS.Export)

		// Test assembly
		teacherAPI.POST("/tests/assemble", handlers.Test.Assemble)
		teacherAPI.POST("/tests/optimize-length", handlers.Test.OptimizeLength)
		teacherAPI.GET("/tests", handlers.Test.List)
		teacherAPI.GET("/tests/:test_id", handlers.Test.Get)
		teacherAPI.PATCH("/tests/:test_id/status", handlers.Test.SetStatus)
		teacherAPI.DELETE("/tests/:test_id", handlers.Test.Delete)

		// Parallel forms
		teacherAPI.POST("/tests/:test_id/versions", handlers.Test.GenerateVersions)
		teacherAPI.GET("/tests/:test_id/versions", handlers.Test.ListVersions)
		teacherAPI.GET("/tests/:test_id/versions/:version_id", handlers.Test.GetVersion)
		teacherAPI.GET("/tests/:test_id/versions/:version_id/export", handlers.Test.ExportVersion)
	}

	// ─── 3. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/docs/:doc_id/stream", handlers.WS.DocStream)
	}

	return router
}
