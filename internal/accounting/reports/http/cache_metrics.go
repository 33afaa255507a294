package http

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	buildHistogram    *prometheus.HistogramVec
	cacheMetricsError error
)

// SetupCacheMetrics registers the report-cache metrics once; later calls
// return the first outcome.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_report_cache_hits_total",
		Help: "Number of report responses served from cache.",
	}, []string{"report"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_report_cache_miss_total",
		Help: "Number of report responses built from the ledger.",
	}, []string{"report"})
	buildHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_report_build_duration_seconds",
		Help:    "Time spent building report payloads.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, buildHistogram} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					buildHistogram = c
				default:
					cacheMetricsError = fmt.Errorf("report cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			buildHistogram = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(report string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(report).Inc()
}

func recordCacheMiss(report string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(report).Inc()
}

func observeBuildDuration(report string, duration time.Duration) {
	if buildHistogram == nil {
		return
	}
	buildHistogram.WithLabelValues(report).Observe(duration.Seconds())
}
