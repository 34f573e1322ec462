package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// timingWriter stamps X-Process-Time-Ms on the response just before the headers go out.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	status      int
	bytes       int
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.Header().Set("X-Process-Time-Ms", strconv.FormatInt(time.Since(w.start).Milliseconds(), 10))
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestLogger logs one line per request and echoes the request id to the client.
// It must run after middleware.RequestID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(middleware.RequestIDHeader, reqID)
		}
		tw := &timingWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
		s.logger.Debug("→ request", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("request_id", reqID))
		next.ServeHTTP(tw, r)
		s.logger.Info("← response",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", tw.status),
			zap.Int("bytes", tw.bytes),
			zap.Duration("duration", time.Since(tw.start)),
			zap.String("request_id", reqID))
	})
}
