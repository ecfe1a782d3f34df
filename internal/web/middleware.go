package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mailliam/internal/metrics"
	"mailliam/internal/session"
)

// ClientCookie carries the client ID that addresses the persisted state
const ClientCookie = "mailliam_client"

const (
	ctxRequestID = "request_id"
	ctxClientID  = "client_id"
)

// RequestIDMiddleware generates a unique request ID for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(ctxRequestID, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes
func LoggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", c.GetString(ctxRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
		}
		if clientID := c.GetString(ctxClientID); clientID != "" {
			attrs = append(attrs, "client_id", clientID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("Request failed - server error", attrs...)
		case status >= 400:
			log.Warn("Request failed - client error", attrs...)
		default:
			log.Info("Request completed", attrs...)
		}
	}
}

// MetricsMiddleware records request counts and latency by route
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// ClientStateMiddleware makes sure every browser carries a client ID cookie
// and exposes it to handlers through ClientID
func ClientStateMiddleware(state session.Manager, maxAge time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := c.Cookie(ClientCookie)
		if err != nil || clientID == "" {
			clientID = state.NewClientID()
			setClientCookie(c, clientID, int(maxAge.Seconds()), secure)
		}
		c.Set(ctxClientID, clientID)
		c.Next()
	}
}

// ClientID returns the client ID set by ClientStateMiddleware
func ClientID(c *gin.Context) string {
	return c.GetString(ctxClientID)
}

func setClientCookie(c *gin.Context, clientID string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ClientCookie, clientID, maxAge, "/", "", secure, true)
}

// CORSMiddleware allows the configured origins to call the JSON API
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
