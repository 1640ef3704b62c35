package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSetupWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.Otel{ServiceName: "storefront-checkout"}, "test", discard)

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupExportsSpans(t *testing.T) {
	// Arrange
	var received atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			received.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	cfg := config.Otel{ServiceName: "storefront-checkout", ExporterEndpoint: collector.URL + "/v1/traces", SamplerRatio: 1}

	// Act
	shutdown, err := Setup(context.Background(), cfg, "test", discard)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "place-order")
	span.End()

	// Assert
	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, int32(1), received.Load())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
