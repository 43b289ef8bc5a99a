package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes domain metrics through Prometheus.
type Recorder struct {
	providerRequests     *prometheus.CounterVec
	providerErrors       *prometheus.CounterVec
	providerAvailability *prometheus.GaugeVec
	lastPrice            *prometheus.GaugeVec
	cacheOps             *prometheus.CounterVec
	latency              *prometheus.HistogramVec
	predictions          *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_provider_requests_total",
				Help: "Total number of fetch requests issued per provider",
			},
			[]string{"provider"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_provider_errors_total",
				Help: "Total number of provider fetch errors",
			},
			[]string{"provider"},
		),
		providerAvailability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_provider_available",
				Help: "Whether a provider is currently available (1) or tripped (0)",
			},
			[]string{"provider"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_cache_ops_total",
				Help: "Cache operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_predictions_total",
				Help: "Total predictions served by direction and confidence",
			},
			[]string{"direction", "confidence"},
		),
	}
}

// RecordProviderRequest records a fetch request issued to a provider.
func (r *Recorder) RecordProviderRequest(provider string) {
	r.providerRequests.WithLabelValues(provider).Inc()
}

// RecordProviderError records a provider fetch error.
func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

// RecordProviderAvailability records whether a provider is available.
func (r *Recorder) RecordProviderAvailability(provider string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	r.providerAvailability.WithLabelValues(provider).Set(v)
}

// RecordLastPrice records the last price observed for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordCacheOp records a cache operation outcome ("hit", "miss", "error").
func (r *Recorder) RecordCacheOp(operation, outcome string) {
	r.cacheOps.WithLabelValues(operation, outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPrediction records a served prediction.
func (r *Recorder) RecordPrediction(direction, confidence string) {
	r.predictions.WithLabelValues(direction, confidence).Inc()
}
