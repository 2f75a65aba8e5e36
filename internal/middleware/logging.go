package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/google/uuid"

	"github.com/rpattn/landtitles/internal/httpx"
	"github.com/rpattn/landtitles/internal/logger"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

// ResolverLoggerExtension logs resolver execution times
type ResolverLoggerExtension struct {
	Log *logger.Logger
}

// ExtensionName implements graphql.HandlerExtension
func (r *ResolverLoggerExtension) ExtensionName() string {
	return "ResolverLogger"
}

// Validate implements graphql.HandlerExtension
func (r *ResolverLoggerExtension) Validate(schema graphql.ExecutableSchema) error {
	return nil
}

// InterceptField logs each resolver duration and errors
func (r *ResolverLoggerExtension) InterceptField(ctx context.Context, next graphql.Resolver) (res interface{}, err error) {
	start := time.Now()
	res, err = next(ctx)

	fc := graphql.GetFieldContext(ctx)
	fields := map[string]interface{}{
		"object":      fc.Object,
		"field":       fc.Field.Name,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
	}
	log := r.Log
	if requestID, ok := httpx.RequestIDFromContext(ctx); ok {
		log = log.WithRequestID(requestID)
	}
	if err != nil {
		log.Error("graphql resolver failed", err, fields)
	} else {
		log.Info("graphql resolver", fields)
	}
	return res, err
}

// LoggingMiddleware assigns a request id and logs each request once it completes.
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(httpx.ContextWithRequestID(r.Context(), requestID))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Process HTTP request
			next.ServeHTTP(rw, r)

			log.WithRequestID(requestID).Info("http request", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"bytes":       rw.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
		})
	}
}
