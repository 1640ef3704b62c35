package health_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	checks "github.com/aaravmahajanofficial/storefront-checkout/internal/health"
	"github.com/alicebob/miniredis/v2"
	"github.com/hellofresh/health-go/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func configFor(t *testing.T) *config.Config {
	t.Helper()

	server := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)

	return &config.Config{
		RedisConnect: config.RedisConnect{Host: host, Port: port},
		Otel:         config.Otel{ServiceName: "storefront-checkout"},
	}
}

func TestNewHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		endpoints  *checks.Endpoints
		wantStatus health.Status
		wantFailed string
	}{
		{
			name:       "All upstreams reachable",
			endpoints:  &checks.Endpoints{Storefront: stubPinger{}, Stripe: stubPinger{}},
			wantStatus: health.StatusOK,
		},
		{
			name:       "Storefront down",
			endpoints:  &checks.Endpoints{Storefront: stubPinger{err: errors.New("connection refused")}},
			wantStatus: health.StatusUnavailable,
			wantFailed: "storefront",
		},
		{
			name:       "Stripe down only degrades",
			endpoints:  &checks.Endpoints{Storefront: stubPinger{}, Stripe: stubPinger{err: errors.New("timeout")}},
			wantStatus: health.StatusPartiallyAvailable,
			wantFailed: "stripe",
		},
		{
			name:       "Storefront not configured",
			endpoints:  &checks.Endpoints{},
			wantStatus: health.StatusUnavailable,
			wantFailed: "storefront",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h, err := checks.NewHealthHandler(configFor(t), tt.endpoints)
			require.NoError(t, err)

			// Act
			result := h.Measure(context.Background())

			// Assert
			assert.Equal(t, tt.wantStatus, result.Status)
			if tt.wantFailed != "" {
				assert.Contains(t, result.Failures, tt.wantFailed)
			} else {
				assert.Empty(t, result.Failures)
			}
		})
	}
}
