package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rowanvale/librarysvc/internal/pkg/logging"
	"github.com/rowanvale/librarysvc/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observability wraps the handler chain with request-id generation, a
// request-scoped logger in the context, and HTTP request metrics.
func Observability(base *zap.Logger, met *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := base.With(
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx := logging.ContextWithLogger(r.Context(), reqLogger)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			met.Observe(r.Method, r.URL.Path, strconv.Itoa(recorder.status), time.Since(start).Seconds())
			reqLogger.Info("http_request_done",
				zap.Int("status", recorder.status),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
