package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userIDKey       = "user_id"

	msgTokenRequired = "Access token required"
	msgInvalidToken  = "Invalid or expired token"
)

// RequestLogger logs each request once, with level chosen by status.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.Request.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, "http_request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "http_request", args...)
		default:
			logger.Info(ctx, "http_request", args...)
		}
	}
}

// requireAccessToken admits requests carrying a valid bearer access token
// and stores its user id on the context.
func (s *HTTPServer) requireAccessToken(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerScheme) {
		abortUnauthorized(c, msgTokenRequired)
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerScheme))
	if token == "" {
		abortUnauthorized(c, msgTokenRequired)
		return
	}

	claims, err := s.tokens.ParseAccessToken(token)
	if err != nil {
		abortUnauthorized(c, msgInvalidToken)
		return
	}

	c.Set(userIDKey, claims.UserID)
	c.Next()
}

// UserIDFromContext returns the id stored by the access-token middleware.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}
