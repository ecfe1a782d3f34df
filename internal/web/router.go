// Package web implements the Mailliam web frontend: the login screen, the
// dashboard, the theme toggle and a small JSON API with the same operations.
// Every backend call is bound to the context of the request that caused it.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailliam/internal/metrics"
)

// SetupRouter configures and returns the frontend router. m may be nil to
// disable metrics.
func SetupRouter(deps Deps, m *metrics.Metrics) *gin.Engine {
	h := NewHandler(deps)

	r := gin.New()
	r.SetHTMLTemplate(parseTemplates())

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(h.log))
	if m != nil {
		r.Use(MetricsMiddleware(m))
	}

	r.GET("/health", h.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Everything below addresses the browser's persisted state
	pages := r.Group("")
	pages.Use(ClientStateMiddleware(deps.State, deps.ClientStateTTL, deps.SecureCookies))
	{
		pages.GET("/", h.Login)
		pages.GET("/auth/login", h.BeginLogin)

		pages.GET("/home", h.Dashboard)
		pages.POST("/home/summary-time", h.SaveSummaryTime)
		pages.POST("/home/send-now", h.SendNow)

		pages.POST("/theme/toggle", h.ToggleTheme)
		pages.POST("/logout", h.Logout)
	}

	api := r.Group("/api")
	if len(deps.CORSOrigins) > 0 {
		api.Use(CORSMiddleware(deps.CORSOrigins))
		// Preflights only reach group middleware through a matching route
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}
	api.Use(ClientStateMiddleware(deps.State, deps.ClientStateTTL, deps.SecureCookies))
	{
		api.GET("/summaries", h.APISummaries)
		api.POST("/summary-time", h.APISaveSummaryTime)
		api.POST("/send-now", h.APISendNow)
		api.GET("/theme", h.APITheme)
		api.POST("/theme/toggle", h.APIToggleTheme)
		api.POST("/logout", h.APILogout)
	}

	return r
}
