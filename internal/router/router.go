package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/handler"
	"github.com/ujianku/practice-exam-backend/internal/middleware"
	"github.com/ujianku/practice-exam-backend/internal/response"
	"github.com/ujianku/practice-exam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Monitor *handler.MonitorHandler
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
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

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Exam Group (Session JWT) ───────────────────────────────────
	examAPI := router.Group("/api/v1/exam")
	examAPI.Use(middleware.RequireSessionJWT(authService))
	{
		examAPI.GET("/paper", handlers.Exam.GetPaper)
		examAPI.GET("/state", handlers.Exam.GetState)
		examAPI.POST("/start", handlers.Exam.StartExam)
		examAPI.POST("/switch", handlers.Exam.SwitchQuestion)
		examAPI.POST("/answer", handlers.Exam.SubmitAnswer)
		examAPI.POST("/finish", handlers.Exam.FinishExam)
		examAPI.POST("/finish/confirm", handlers.Exam.ConfirmFinish)
		examAPI.POST("/modal/close", handlers.Exam.CloseModal)
	}

	// ─── 3. Observer Group (WebSocket) ─────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSessionJWT(authService))
	{
		ws.GET("/sessions/:session_id/monitor", handlers.Monitor.SessionStream)
	}

	return router
}
