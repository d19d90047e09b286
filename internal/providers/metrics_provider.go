package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lfd/internal/services"
	"lfd/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	SetEventsTotal(lecture string, count int)
	SetCommentsTotal(lecture string, count int)
	IncOrphanedReplies()
	IncMalformedRecords()
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	eventsTotal         *prometheus.GaugeVec
	commentsTotal       *prometheus.GaugeVec
	orphanedReplies     prometheus.Counter
	malformedRecords    prometheus.Counter
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

func (m *MetricsProvider) SetEventsTotal(lecture string, count int) {
	m.eventsTotal.WithLabelValues(lecture).Set(float64(count))
}

func (m *MetricsProvider) SetCommentsTotal(lecture string, count int) {
	m.commentsTotal.WithLabelValues(lecture).Set(float64(count))
}

func (m *MetricsProvider) IncOrphanedReplies() {
	m.orphanedReplies.Inc()
}

func (m *MetricsProvider) IncMalformedRecords() {
	m.malformedRecords.Inc()
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

func NewMetricsProvider(conf *structures.Config, feedback services.FeedbackServiceInterface, discussion services.DiscussionServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lfd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lfd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lfd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lfd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lfd_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		eventsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lfd_events_total",
			Help: "Number of stored feedback events per lecture",
		}, []string{"lecture"}),

		commentsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lfd_comments_total",
			Help: "Number of threaded comments per lecture",
		}, []string{"lecture"}),

		orphanedReplies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lfd_orphaned_replies_total",
			Help: "Replies deferred because their parent was unknown",
		}),

		malformedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lfd_malformed_records_total",
			Help: "Feedback or comment records rejected at ingest",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lfd_buffer_size",
		Help: "Current number of events in the active ingest buffer",
	}, func() float64 {
		return float64(feedback.GetBufferSize())
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "lfd_dropped_events_total",
		Help: "Events discarded because the lecture cap was reached",
	}, func() float64 {
		return float64(feedback.DroppedEvents())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lfd_lectures_total",
		Help: "Number of lectures currently held in memory",
	}, func() float64 {
		return float64(len(feedback.GetLectures()))
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lfd_discussions_total",
		Help: "Number of live discussion sessions",
	}, func() float64 {
		return float64(len(discussion.GetLectures()))
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int) {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits() {}
func (n *noopMetrics) IncCacheMisses() {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration) {}
func (n *noopMetrics) SetEventsTotal(_ string, _ int) {}
func (n *noopMetrics) SetCommentsTotal(_ string, _ int) {}
func (n *noopMetrics) IncOrphanedReplies() {}
func (n *noopMetrics) IncMalformedRecords() {}
