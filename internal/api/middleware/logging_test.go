package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

// captureLogs swaps the default logger for one writing JSON lines to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))

	return entry
}

func TestLogging(t *testing.T) {
	t.Run("Propagates the correlation id", func(t *testing.T) {
		buf := captureLogs(t)
		var logger *slog.Logger

		handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger = middleware.LoggerFromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
		assert.NotNil(t, logger)

		entry := lastLine(t, buf)
		assert.Equal(t, "Request completed", entry["msg"])
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "req-42", entry["correlation_id"])
		assert.Equal(t, float64(http.StatusTeapot), entry["http_status"])
		assert.Equal(t, float64(len("short and stout")), entry["response_bytes"])
	})

	t.Run("Generates a correlation id", func(t *testing.T) {
		handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(rr.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("Carries the trace id", func(t *testing.T) {
		buf := captureLogs(t)
		traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     trace.SpanID{0, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
			TraceFlags: trace.FlagsSampled,
		})

		handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

		handler.ServeHTTP(httptest.NewRecorder(), req)

		entry := lastLine(t, buf)
		assert.Equal(t, traceID.String(), entry["trace_id"])
		assert.Equal(t, "INFO", entry["level"])
	})

	t.Run("Levels by outcome", func(t *testing.T) {
		tests := []struct {
			path   string
			status int
			level  string
		}{
			{"/api/v1/checkout/orders", http.StatusBadGateway, "ERROR"},
			{"/api/v1/cart", http.StatusConflict, "WARN"},
			{"/health", http.StatusOK, "DEBUG"},
			{"/metrics", http.StatusOK, "DEBUG"},
			{"/health", http.StatusServiceUnavailable, "ERROR"},
		}

		for _, tt := range tests {
			buf := captureLogs(t)
			handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.level, lastLine(t, buf)["level"], tt.path)
		}
	})

	t.Run("Falls back to the default logger", func(t *testing.T) {
		assert.Equal(t, slog.Default(), middleware.LoggerFromContext(context.Background()))
	})
}
