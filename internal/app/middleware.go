package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/observability"
)

const deviceCookie = "device_id"

// requestLogger пишет каждый запрос через zap; служебные пути пропускаем.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/metrics" {
			return
		}
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		err := fmt.Errorf("http panic: %v", rec)
		metrics.HandlerErrors.Inc()
		log.Error("handler panicked", zap.String("path", c.Request.URL.Path), zap.Error(err))
		observability.CaptureErr(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgGeneric})
	})
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// withOp кладёт имя маршрута в context для логов и Sentry.
func withOp(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithOp(c.Request.Context(), name))
		c.Next()
	}
}

// deviceID выдаёт устройству постоянный cookie: к нему привязано имя дежурного.
func (s *Server) deviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(deviceCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(deviceCookie, id, int((365 * 24 * time.Hour).Seconds()), "/", "", s.cfg.SecureCookies, true)
		}
		c.Request = c.Request.WithContext(ctxutil.WithDevice(c.Request.Context(), id))
		c.Next()
	}
}
