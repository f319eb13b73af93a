package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/singalong-genie/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/singalong-genie/internal/api/middleware"
	"github.com/Conceptual-Machines/singalong-genie/internal/config"
	"github.com/Conceptual-Machines/singalong-genie/internal/metrics"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
)

// Dependencies are the services the router wires into handlers
type Dependencies struct {
	Config   *config.Config
	Writer   handlers.SongWriter
	Store    *session.Store
	Recorder *metrics.Recorder
	Provider string
	Model    string
	Version  string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Provider, deps.Model)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Store, deps.Provider, deps.Model)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	generationLimit := apimiddleware.RateLimit(apimiddleware.NewGenerationLimiter(cfg.GenerationRatePerMinute))

	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		v1.GET("/presets", handlers.ListPresets)

		// Stateless endpoints: the caller owns the song
		songHandler := handlers.NewSongHandler(deps.Writer, cfg.GenerationTimeout)
		songs := v1.Group("/songs")
		songs.POST("/generate", generationLimit, songHandler.Generate)
		songs.POST("/export/json", songHandler.ExportJSON)
		songs.POST("/export/html", songHandler.ExportHTML)

		// Session endpoints: the server owns the song
		cookies := apimiddleware.NewCookieStore(cfg.SessionSecret, cfg.IsProduction(), int(cfg.SessionTTL.Seconds()))
		sessionHandler := handlers.NewSessionHandler(deps.Writer, cfg.GenerationTimeout)
		sess := v1.Group("/session")
		sess.Use(apimiddleware.Sessions(deps.Store, cookies))
		sess.GET("", sessionHandler.Get)
		sess.POST("/generate", generationLimit, sessionHandler.Generate)
		sess.POST("/reset", sessionHandler.Reset)
		sess.PUT("/feedback", sessionHandler.UpdateFeedback)
		sess.PATCH("/song", sessionHandler.UpdateSong)
		sess.PUT("/song/parts/:part/lines/:line", sessionHandler.UpdateLine)
		sess.PUT("/song/parts/:part/type", sessionHandler.UpdatePartType)
		sess.POST("/song/parts", sessionHandler.AppendPart)
		sess.GET("/export/json", sessionHandler.ExportJSON)
		sess.GET("/export/html", sessionHandler.ExportHTML)
		sess.POST("/import", sessionHandler.Import)
	}

	return router
}
