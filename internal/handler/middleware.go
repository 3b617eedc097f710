package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "support_sid"
	sessionKey    = "session_id"
	defaultMaxAge = 24 * time.Hour
)

// Session выдаёт cookie support_sid с UUID, если её нет или она повреждена.
// Срок cookie совпадает с TTL журнала сессии.
func Session(ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultMaxAge
	}
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, maxAge, "/", "", false, true)
		c.Set(sessionKey, sid)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// RequestLogger пишет одну строку на запрос; уровень зависит от статуса.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		switch {
		case status >= 500:
			log.Error("http request", args...)
		case status >= 400:
			log.Warn("http request", args...)
		default:
			log.Debug("http request", args...)
		}
	}
}

func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
