package health

import (
	"context"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/hellofresh/health-go/v5"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

// Pinger is any upstream that can answer a cheap liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Endpoints struct {
	Storefront Pinger
	// Stripe is optional; payment intents are skipped when it is nil.
	Stripe Pinger
}

func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
		{
			Name:      "storefront",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check:     pingCheck("storefront", endpoints.Storefront),
		},
	}

	if endpoints.Stripe != nil {
		// Orders still go through without Stripe, so it only degrades the status.
		checks = append(checks, health.Config{
			Name:      "stripe",
			Timeout:   5 * time.Second,
			SkipOnErr: true,
			Check:     pingCheck("stripe", endpoints.Stripe),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Otel.ServiceName,
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func pingCheck(name string, p Pinger) health.CheckFunc {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("%s client is not initialized", name)
		}

		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach %s: %w", name, err)
		}

		return nil
	}
}
