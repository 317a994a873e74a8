package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regenwasi/internal/services"
	"regenwasi/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncActions(action string)
	IncFruitEarned(amount int)
	IncFruitSpent(amount int)
	IncTrainings(defaulted bool)
	IncChatReplies(degraded bool)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	actionsTotal        *prometheus.CounterVec
	fruitEarnedTotal    prometheus.Counter
	fruitSpentTotal     prometheus.Counter
	trainingsTotal      *prometheus.CounterVec
	chatRepliesTotal    *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncActions(action string) {
	m.actionsTotal.WithLabelValues(action).Inc()
}

func (m *MetricsProvider) IncFruitEarned(amount int) {
	m.fruitEarnedTotal.Add(float64(amount))
}

func (m *MetricsProvider) IncFruitSpent(amount int) {
	m.fruitSpentTotal.Add(float64(amount))
}

func (m *MetricsProvider) IncTrainings(defaulted bool) {
	m.trainingsTotal.WithLabelValues(boolLabel(defaulted)).Inc()
}

func (m *MetricsProvider) IncChatReplies(degraded bool) {
	m.chatRepliesTotal.WithLabelValues(boolLabel(degraded)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service services.PetServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regenwasi_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regenwasi_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regenwasi_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regenwasi_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "regenwasi_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		actionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regenwasi_actions_total",
			Help: "Total number of stat-affecting pet actions",
		}, []string{"action"}),

		fruitEarnedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regenwasi_fruit_earned_total",
			Help: "Total $FRUTA credited across all pets",
		}),

		fruitSpentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regenwasi_fruit_spent_total",
			Help: "Total $FRUTA debited across all pets",
		}),

		trainingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regenwasi_trainings_total",
			Help: "Total number of training evaluations",
		}, []string{"defaulted"}),

		chatRepliesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regenwasi_chat_replies_total",
			Help: "Total number of guardian chat replies",
		}, []string{"degraded"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "regenwasi_pets_total",
		Help: "Current number of adopted pets",
	}, func() float64 {
		return float64(service.PetsTotal())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "regenwasi_active_sessions",
		Help: "Current number of visible sessions",
	}, func() float64 {
		return float64(service.ActiveSessions())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncActions(_ string)                              {}
func (n *noopMetrics) IncFruitEarned(_ int)                             {}
func (n *noopMetrics) IncFruitSpent(_ int)                              {}
func (n *noopMetrics) IncTrainings(_ bool)                              {}
func (n *noopMetrics) IncChatReplies(_ bool)                            {}
