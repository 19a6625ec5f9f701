// Package router assembles the Gin engine from the application modules.
package router

import (
	"net/http"
	"time"

	apphttp "crm_dispatch_backend/internal/http"
	"crm_dispatch_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: middleware chain, liveness/health routes and
// module route registration.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(10), 20, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "CRM Dispatch API is running")
	})
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
	})

	ctx := &apphttp.RouterContext{
		Engine: engine,
		API:    engine.Group("/api"),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}

	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = app.Config.GetCORSOrigins()
	}

	return cors.New(corsCfg)
}
