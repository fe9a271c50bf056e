package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

// Outcomes recorded for status actions.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	once sync.Once

	httpDurations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Response time by route, method and status code.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"route", "method", "code"},
	)

	statusActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_actions_total",
			Help:      "Booking and bid status actions by entity, action and outcome.",
		},
		[]string{"entity", "action", "outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_cache_lookups_total",
			Help:      "List cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpDurations, statusActions, cacheLookups)
	})
}

func ObserveHTTP(route, method string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDurations.WithLabelValues(route, method, strconv.Itoa(code)).Observe(d.Seconds())
}

// IncStatusAction counts a cancel, accept, review or dispatch action.
func IncStatusAction(entity, action, outcome string) {
	statusActions.WithLabelValues(entity, action, outcome).Inc()
}

func IncCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// NewServer returns the metrics listener, or nil when metrics are disabled.
func NewServer(enabled bool, addr string) *http.Server {
	if !enabled {
		return nil
	}
	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
