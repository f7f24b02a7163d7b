package httpx

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

func (r *Router) initMetrics() {
	r.metricsOnce.Do(func() {
		r.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votecore",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"})

		r.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "votecore",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"})

		r.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votecore",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route", "key"})

		r.votesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "votecore",
			Subsystem: "election",
			Name:      "votes_accepted_total",
			Help:      "Number of committed vote transactions",
		})

		r.voteRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votecore",
			Subsystem: "election",
			Name:      "vote_rejections_total",
			Help:      "Number of rejected cast attempts by reason",
		}, []string{"reason"})

		collectors := []prometheus.Collector{r.requestTotal, r.requestLatency, r.rateLimitHits, r.votesAccepted, r.voteRejections}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					switch v := are.ExistingCollector.(type) {
					case *prometheus.CounterVec:
						if collector == r.rateLimitHits {
							r.rateLimitHits = v
						} else if collector == r.voteRejections {
							r.voteRejections = v
						} else if collector == r.requestTotal {
							r.requestTotal = v
						}
					case *prometheus.HistogramVec:
						r.requestLatency = v
					case prometheus.Counter:
						r.votesAccepted = v
					}
				}
			}
		}
		r.metricsInitialized = true
	})
}

func (r *Router) recordRequestMetrics(method, route string, status int, duration time.Duration) {
	if !r.metricsInitialized {
		return
	}
	code := strconv.Itoa(status)
	r.requestTotal.WithLabelValues(method, route, code).Inc()
	r.requestLatency.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

func (r *Router) recordRateLimitHit(route, key string) {
	if !r.metricsInitialized {
		return
	}
	r.rateLimitHits.WithLabelValues(route, key).Inc()
}

func (r *Router) recordVoteAccepted() {
	if !r.metricsInitialized {
		return
	}
	r.votesAccepted.Inc()
}

func (r *Router) recordVoteRejection(reason string) {
	if !r.metricsInitialized {
		return
	}
	r.voteRejections.WithLabelValues(reason).Inc()
}
