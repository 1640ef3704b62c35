package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
)

type registryEntry struct {
	aggregate *Aggregate
	lastUsed  time.Time
}

// Registry owns one Aggregate per authenticated subject.
type Registry struct {
	api             API
	logger          *slog.Logger
	refreshInterval time.Duration
	idleTimeout     time.Duration
	now             func() time.Time

	mu    sync.Mutex
	carts map[string]*registryEntry
}

func NewRegistry(api API, cfg config.Cart, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		api:             api,
		logger:          logger,
		refreshInterval: cfg.RefreshInterval,
		idleTimeout:     cfg.IdleTimeout,
		now:             time.Now,
		carts:           make(map[string]*registryEntry),
	}
}

// Acquire returns the principal's aggregate, creating it and starting its
// poller on first use. Anonymous callers get a fresh aggregate that is not
// kept; every operation on it is refused.
func (r *Registry) Acquire(p auth.Principal) *Aggregate {
	if !p.Authenticated() {
		return New(p, r.api, r.logger)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.carts[p.Subject]; ok && !entry.aggregate.Closed() {
		entry.lastUsed = r.now()
		entry.aggregate.updatePrincipal(p)
		return entry.aggregate
	}

	aggregate := New(p, r.api, r.logger)
	aggregate.StartPolling(r.refreshInterval)

	r.carts[p.Subject] = &registryEntry{aggregate: aggregate, lastUsed: r.now()}
	metrics.SetActiveCarts(len(r.carts))

	r.logger.Debug("Cart aggregate created", slog.String("subject", p.Subject))

	return aggregate
}

// Peek returns the subject's aggregate without creating one.
func (r *Registry) Peek(subject string) (*Aggregate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.carts[subject]
	if !ok {
		return nil, false
	}

	return entry.aggregate, true
}

// Evict closes and forgets the subject's aggregate, e.g. on logout.
func (r *Registry) Evict(subject string) bool {
	r.mu.Lock()
	entry, ok := r.carts[subject]
	if ok {
		delete(r.carts, subject)
		metrics.SetActiveCarts(len(r.carts))
	}
	r.mu.Unlock()

	if ok {
		entry.aggregate.Close()
	}

	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.carts)
}

// Sweep evicts aggregates unused for longer than the idle timeout.
func (r *Registry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}

	cutoff := r.now().Add(-r.idleTimeout)

	var idle []*Aggregate

	r.mu.Lock()
	for subject, entry := range r.carts {
		if entry.lastUsed.Before(cutoff) {
			idle = append(idle, entry.aggregate)
			delete(r.carts, subject)
		}
	}
	metrics.SetActiveCarts(len(r.carts))
	r.mu.Unlock()

	for _, aggregate := range idle {
		aggregate.Close()
	}

	if len(idle) > 0 {
		r.logger.Info("Evicted idle cart aggregates", slog.Int("count", len(idle)))
	}

	return len(idle)
}

// Run sweeps idle aggregates until ctx is done, then closes the rest.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	carts := r.carts
	r.carts = make(map[string]*registryEntry)
	metrics.SetActiveCarts(0)
	r.mu.Unlock()

	for _, entry := range carts {
		entry.aggregate.Close()
	}
}
