package router

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/handler"
	"github.com/stemsi/student-dashboard/internal/middleware"
	"github.com/stemsi/student-dashboard/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student    *handler.StudentHandler
	Dashboard  *handler.DashboardHandler
	Export     *handler.ExportHandler
	Preference *handler.PreferenceHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// writeLimiter may be nil to disable write rate limiting.
func SetupRouter(
	handlers *Handlers,
	writeLimiter *middleware.RateLimiter,
	cfg *config.Config,
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
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request logger and error bodies can see it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	// Static front-end, when one is deployed next to the server.
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		static := router.Group("/app")
		static.Use(middleware.CacheControl(3600))
		{
			static.Static("/", cfg.StaticDir)
		}
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/app/")
		})
	} else {
		log.Info().Str("dir", cfg.StaticDir).Msg("Static directory not found, serving API only")
	}

	// Health check.
	router.GET("/health", handlers.System.Health)

	api := router.Group("/api")
	api.Use(middleware.NoStore())
	{
		api.GET("/meta", handlers.System.Meta)

		prefs := api.Group("/preferences")
		prefs.Use(middleware.Preferences(cfg.SessionSecret))
		{
			prefs.GET("", handlers.Preference.Get)
			prefs.PUT("", handlers.Preference.Update)
		}

		// Reads
		api.GET("/students", handlers.Student.List)
		api.GET("/students/view", handlers.Dashboard.View)
		api.GET("/students/export.csv", handlers.Export.CSV)
		api.GET("/students/export.xlsx", handlers.Export.XLSX)

		// Writes, rate limited per IP
		writes := api.Group("")
		if writeLimiter != nil {
			writes.Use(writeLimiter.Middleware())
		}
		{
			writes.POST("/students", handlers.Student.Create)
			writes.PUT("/students/:id", handlers.Student.Replace)
			writes.DELETE("/students/:id", handlers.Student.Delete)
			writes.POST("/reset", handlers.Student.Reset)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
