// Package trace assigns a short correlation id to every inbound request
// and threads a request-scoped logger through the context. Components read
// it for diagnostics only; it never alters business outcomes.
package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	idKey     = contextKey("traceID")
	loggerKey = contextKey("traceLogger")
)

// These keys are masked in logs to protect sensitive data.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"authorization": true,
}

// newID generates a short, human-readable request id.
func newID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// ID returns the correlation id for the request, or "" outside one.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

// Logger returns the request-scoped logger, falling back to the global one.
func Logger(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}

// Mask returns a copy of m with sensitive values replaced by "***".
// Nested objects are masked recursively.
func Mask(m map[string]interface{}) map[string]interface{} {
	clone := make(map[string]interface{}, len(m))
	for k, v := range m {
		if sensitiveKeys[strings.ToLower(k)] {
			clone[k] = "***"
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			clone[k] = Mask(nested)
			continue
		}
		clone[k] = v
	}
	return clone
}

// Middleware tags the request with a correlation id, logs the request in
// and out, and stores the scoped logger in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := newID()

		reqLogger := log.With().Str("trace_id", traceID).Logger()
		ctx := context.WithValue(r.Context(), idKey, traceID)
		ctx = context.WithValue(ctx, loggerKey, &reqLogger)

		reqLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("Request started")

		if reqLogger.GetLevel() <= zerolog.DebugLevel {
			logMaskedBody(&reqLogger, r)
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request finished")
	})
}

// logMaskedBody emits the JSON request body at debug level with sensitive
// fields masked, then restores the body for downstream handlers.
func logMaskedBody(logger *zerolog.Logger, r *http.Request) {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return
	}
	logger.Debug().Interface("body", Mask(body)).Msg("Request body")
}
