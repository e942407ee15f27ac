package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/config"
	"github.com/stemsi/quizi-backend/internal/handler"
	"github.com/stemsi/quizi-backend/internal/middleware"
	"github.com/stemsi/quizi-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz *handler.QuizHandler
	WS   *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// startLimiter may be nil, which leaves start unthrottled.
func SetupRouter(
	handlers *Handlers,
	cfg *config.Config,
	startLimiter middleware.Limiter,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrRouteNotFound)
	})

	router.GET("/health", handlers.Quiz.Health)

	// ─── 1. Quiz API ───────────────────────────────────────────────────
	api := router.Group("/api/v1")
	{
		start := []gin.HandlerFunc{handlers.Quiz.Start}
		if startLimiter != nil {
			start = append([]gin.HandlerFunc{middleware.RateLimit(startLimiter, log)}, start...)
		}
		api.POST("/start", start...)
		api.POST("/submit", handlers.Quiz.Submit)
		api.GET("/report/:session_id", handlers.Quiz.Report)
		api.GET("/report/:session_id/summary", handlers.Quiz.Summary)
	}

	// ─── 2. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:session_id/clock", handlers.WS.SessionClock)
	}

	return router
}
