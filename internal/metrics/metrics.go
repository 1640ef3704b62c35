package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations sent to the storefront, by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	cartRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_refreshes_total",
			Help: "Authoritative cart reads, by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	activeCarts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_aggregates_active",
			Help: "Cart aggregates currently held in memory.",
		},
	)

	checkoutTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_transitions_total",
			Help: "Checkout step transitions attempted, by transition and outcome.",
		},
		[]string{"transition", "outcome"},
	)

	ordersSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Orders submitted to the storefront, by payment method and outcome.",
		},
		[]string{"payment_method", "outcome"},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}

	return OutcomeSuccess
}

// RecordCartMutation counts one add, update, remove or clear call.
func RecordCartMutation(op string, err error) {
	cartMutationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// RecordCartRefresh counts one cart read; trigger is "mutation", "poll" or "explicit".
func RecordCartRefresh(trigger string, err error) {
	cartRefreshesTotal.WithLabelValues(trigger, outcome(err)).Inc()
}

func SetActiveCarts(n int) {
	activeCarts.Set(float64(n))
}

func RecordCheckoutTransition(transition string, admitted bool) {
	result := OutcomeSuccess
	if !admitted {
		result = OutcomeDenied
	}

	checkoutTransitionsTotal.WithLabelValues(transition, result).Inc()
}

func RecordOrder(paymentMethod string, err error) {
	ordersSubmittedTotal.WithLabelValues(paymentMethod, outcome(err)).Inc()
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware must wrap the ServeMux directly so the matched route pattern
// is visible once the handler returns.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			pathPattern := r.Pattern
			if pathPattern == "" {
				pathPattern = "unmatched"
			}

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
