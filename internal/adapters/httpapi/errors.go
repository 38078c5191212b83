package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	blobcore "wasteportal/internal/blob/core"
	"wasteportal/pkg/domain"
)

const (
	msgInvalidCredentials = "Username atau password salah"
	msgUnauthenticated    = "Silakan masuk terlebih dahulu"
	msgForbidden          = "Anda tidak memiliki akses ke halaman ini"
	msgReportNotFound     = "Laporan tidak ditemukan"
	msgPhotoNotFound      = "Foto tidak ditemukan"
	msgQuotaExceeded      = "Penyimpanan penuh"
	msgInternal           = "Terjadi kesalahan pada server"
)

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func writeMessage(c *gin.Context, status int, message string) {
	writeJSON(c, status, gin.H{"status": "error", "message": message})
}

// writeError maps err onto a status code and an error body.
func (s *Server) writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"status": "error", "message": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		writeJSON(c, http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, domain.ErrQuotaExceeded):
		s.logger.Error("storage quota exceeded", "path", c.FullPath(), "error", err)
		writeMessage(c, http.StatusInsufficientStorage, msgQuotaExceeded)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, blobcore.ErrNotFound):
		writeMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeMessage(c, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		writeMessage(c, http.StatusInternalServerError, msgInternal)
	}
}
