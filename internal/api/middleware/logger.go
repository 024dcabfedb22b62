package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
)

// Logger returns a middleware that logs each HTTP request and records it in m.
// Requests are labelled by their chi route pattern so that session IDs do not
// end up in metric labels. m may be nil.
func Logger(logger logging.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)
			route := routePattern(r)
			m.ObserveHTTP(r.Method, route, strconv.Itoa(wrapped.statusCode), elapsed)

			// Strip CR/LF from user-supplied values before logging.
			sanitize := strings.NewReplacer("\n", "", "\r", "").Replace
			fields := []logging.Field{
				logging.String("method", sanitize(r.Method)),
				logging.String("path", sanitize(r.URL.Path)),
				logging.String("route", route),
				logging.Int("status", wrapped.statusCode),
				logging.Duration("elapsed", elapsed),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, logging.String("request_id", id))
			}

			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
