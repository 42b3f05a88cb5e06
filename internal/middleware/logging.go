// AngelaMos | 2026
// logging.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func wrapWriter(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// Logger emits one structured line per request and turns panics into 500s.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := wrapWriter(w)

			defer func() {
				if p := recover(); p != nil {
					logger.Error("panic recovered",
						"panic", p,
						"stack", string(debug.Stack()),
						"request_id", GetRequestID(r.Context()),
					)
					core.InternalServerError(rec, nil)
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.Status(),
					"bytes", rec.bytes,
					"duration", time.Since(start),
					"request_id", GetRequestID(r.Context()),
				}
				if traceID := core.TraceIDFromContext(r.Context()); traceID != "" {
					attrs = append(attrs, "trace_id", traceID)
				}

				switch {
				case rec.Status() >= http.StatusInternalServerError:
					logger.Error("request", attrs...)
				case rec.Status() >= http.StatusBadRequest:
					logger.Warn("request", attrs...)
				default:
					logger.Info("request", attrs...)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
