package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/hyperjump/tanya/internal/models"
	"go.uber.org/zap"
)

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	var ue *models.UpstreamError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIndexNotReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &ue):
		if ue.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}
