package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/logging"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/observability"
)

const (
	msgInvalidQR   = "QR Code tidak valid"
	msgNotFound    = "Data tidak ditemukan"
	msgBadLogin    = "Email atau password salah"
	msgGeneric     = "Terjadi kesalahan"
	msgSubmitError = "Gagal mengirim laporan"
	msgBadRequest  = "Permintaan tidak valid"
)

// respondErr: единая точка перевода ошибок в ответ. Сбои хранилища логируются и
// уходят в Sentry; пользователю — только общее сообщение.
func (s *Server) respondErr(c *gin.Context, err error, fallback string) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg, "field": ve.Field})
	case errors.Is(err, models.ErrInvalidToken):
		c.JSON(http.StatusNotFound, gin.H{"error": msgInvalidQR})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgBadLogin})
	default:
		ctx := c.Request.Context()
		metrics.HandlerErrors.Inc()
		logging.FromContext(ctx, s.log).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		observability.CaptureCtxErr(ctx, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
