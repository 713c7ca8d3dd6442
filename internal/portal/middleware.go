package portal

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrex/portal-gate/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	profileKey      = "portal.profile"
)

// requestContext assigns a request ID and carries it in the request context
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// securityHeaders adds security headers
func (s *Server) securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// requestMetrics logs and counts every request by route template
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		s.metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), duration)
		s.logger.HTTPRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, duration.Milliseconds())
	}
}

// profile binds the request to a browser profile, issuing a profile cookie on first visit
func (s *Server) profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := s.cfg.Session.ProfileCookie

		id, err := c.Cookie(name)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(name, id, s.cfg.Session.TTL, "/", "", s.cfg.Server.SecureCookie, true)
		}

		c.Set(profileKey, id)
		ctx := context.WithValue(c.Request.Context(), logger.ProfileIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func profileID(c *gin.Context) string {
	return c.GetString(profileKey)
}
