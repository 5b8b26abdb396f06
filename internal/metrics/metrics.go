package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "pvdash_"

	// ResultSuccess labels successful operations
	ResultSuccess = "success"
	// ResultError labels failed operations
	ResultError = "error"
)

var (
	registerOnce sync.Once

	loadsTotal     *prometheus.CounterVec
	loadErrors     *prometheus.CounterVec
	loadLatency    prometheus.Histogram
	samplesLoaded  prometheus.Histogram
	viewLatency    *prometheus.HistogramVec
	sessionsActive prometheus.Gauge
	exportsTotal   *prometheus.CounterVec
	publishTotal   *prometheus.CounterVec
)

// Init creates and registers the metrics with reg. Later calls are no-ops.
// A nil registerer uses the Prometheus default registry.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}

		loadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "loads_total",
				Help: "Total export loads by result",
			},
			[]string{"result"},
		)
		loadErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_errors_total",
				Help: "Total failed loads by error kind",
			},
			[]string{"kind"},
		)
		loadLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_duration_seconds",
				Help:    "Time spent reading and parsing an export",
				Buckets: prometheus.DefBuckets,
			},
		)
		samplesLoaded = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "samples_loaded",
				Help:    "Number of samples per successful load",
				Buckets: prometheus.ExponentialBuckets(100, 2, 10),
			},
		)
		viewLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "view_duration_seconds",
				Help:    "Time spent computing a derived view",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		)
		sessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "sessions_active",
				Help: "Number of loaded sessions held in memory",
			},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "publish_total",
				Help: "Total published daily summaries by sink and result",
			},
			[]string{"sink", "result"},
		)

		reg.MustRegister(
			loadsTotal,
			loadErrors,
			loadLatency,
			samplesLoaded,
			viewLatency,
			sessionsActive,
			exportsTotal,
			publishTotal,
		)
	})
}

// ObserveLoad records a load result and its duration
func ObserveLoad(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if loadsTotal != nil {
		loadsTotal.WithLabelValues(result).Inc()
	}
	if loadLatency != nil {
		loadLatency.Observe(duration.Seconds())
	}
}

// IncLoadError increments the load error counter for kind
func IncLoadError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if loadErrors != nil {
		loadErrors.WithLabelValues(strings.ReplaceAll(kind, " ", "_")).Inc()
	}
}

// ObserveSamples records the sample count of a successful load
func ObserveSamples(n int) {
	if samplesLoaded != nil {
		samplesLoaded.Observe(float64(n))
	}
}

// ObserveView records how long a derived view took to compute
func ObserveView(view string, duration time.Duration) {
	if viewLatency != nil {
		viewLatency.WithLabelValues(view).Observe(duration.Seconds())
	}
}

// SetSessions sets the number of active sessions
func SetSessions(n int) {
	if sessionsActive != nil {
		sessionsActive.Set(float64(n))
	}
}

// IncExport increments the export counter
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, result).Inc()
	}
}

// IncPublish increments the publish counter
func IncPublish(sink, result string) {
	if result == "" {
		result = ResultSuccess
	}
	if publishTotal != nil {
		publishTotal.WithLabelValues(sink, result).Inc()
	}
}
