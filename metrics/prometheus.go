package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service. A nil *Manager is valid and
// records nothing, so engine code never needs to check.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Statistics cache
	cacheRebuilds        prometheus.Counter
	cacheRebuildDuration prometheus.Histogram
	cacheInvalidations   prometheus.Counter
	cachedStatistics     prometheus.Gauge
	statisticLookups     *prometheus.CounterVec
	carryoverLookups     *prometheus.CounterVec

	// Ledger writes
	admissions    *prometheus.CounterVec
	ledgerWrites  *prometheus.CounterVec
	yearRollovers prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager on its own registry (with Go and process
// collectors) unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teamplanner",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cacheRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_rebuilds_total",
		Help:      "Total number of statistic cache rebuilds",
	})
	m.cacheRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_rebuild_duration_seconds",
		Help:      "Duration of statistic cache rebuilds",
		Buckets:   m.histogramBuckets,
	})
	m.cacheInvalidations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_invalidations_total",
		Help:      "Total number of statistic cache invalidations",
	})
	m.cachedStatistics = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cached_statistics",
		Help:      "Number of employee statistics held by the cache",
	})
	m.statisticLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "statistic_lookups_total",
		Help:      "Statistic reads by source (cache or direct computation)",
	}, []string{"source"})
	m.carryoverLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "carryover_memo_lookups_total",
		Help:      "Carryover memo lookups by result",
	}, []string{"result"})

	m.admissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leave_admissions_total",
		Help:      "Leave requests by outcome",
	}, []string{"outcome"})
	m.ledgerWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_writes_total",
		Help:      "Successful ledger writes by category and operation",
	}, []string{"category", "op"})
	m.yearRollovers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "year_rollovers_total",
		Help:      "Number of current-year changes observed by the scheduler",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and method",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// =============================================================================
// RECORDERS
// =============================================================================

func (m *Manager) CacheRebuilt(d time.Duration, size int) {
	if m == nil {
		return
	}
	m.cacheRebuilds.Inc()
	m.cacheRebuildDuration.Observe(d.Seconds())
	m.cachedStatistics.Set(float64(size))
}

func (m *Manager) CacheInvalidated() {
	if m == nil {
		return
	}
	m.cacheInvalidations.Inc()
}

// StatisticLookup records where a statistic read was served from:
// "cache" or "direct".
func (m *Manager) StatisticLookup(source string) {
	if m == nil {
		return
	}
	m.statisticLookups.WithLabelValues(source).Inc()
}

// CarryoverLookup implements stats.MemoObserver.
func (m *Manager) CarryoverLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.carryoverLookups.WithLabelValues(result).Inc()
}

// Admission records a leave request outcome ("admitted", "overlap", ...).
func (m *Manager) Admission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Manager) LedgerWrite(category, op string) {
	if m == nil {
		return
	}
	m.ledgerWrites.WithLabelValues(category, op).Inc()
}

func (m *Manager) YearRolledOver() {
	if m == nil {
		return
	}
	m.yearRollovers.Inc()
}

func (m *Manager) HTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
