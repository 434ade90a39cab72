package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	keysExhausted    prometheus.Counter
	snapshotsSent    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// Option configures the recorder.
type Option func(*options)

type options struct {
	reg prometheus.Registerer
}

// WithRegisterer registers collectors on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// New creates a new Prometheus metrics recorder.
func New(opts ...Option) *Recorder {
	o := &options{reg: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}
	factory := promauto.With(o.reg)

	return &Recorder{
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finwatch_provider_requests_total",
				Help: "Upstream provider requests by outcome",
			},
			[]string{"provider", "result"},
		),
		cacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finwatch_cache_events_total",
				Help: "TTL cache lookups by data type and hit",
			},
			[]string{"type", "hit"},
		),
		keysExhausted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finwatch_api_keys_exhausted_total",
				Help: "API keys marked exhausted after a quota response",
			},
		),
		snapshotsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finwatch_snapshots_sent_total",
				Help: "Watchlist snapshots delivered to a sink backend",
			},
			[]string{"backend"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finwatch_last_price",
				Help: "Last fetched price for a ticker",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordProviderRequest(provider, result string) {
	r.providerRequests.WithLabelValues(provider, result).Inc()
}

func (r *Recorder) RecordCacheEvent(dataType string, hit bool) {
	r.cacheEvents.WithLabelValues(dataType, strconv.FormatBool(hit)).Inc()
}

func (r *Recorder) RecordKeyExhausted() {
	r.keysExhausted.Inc()
}

func (r *Recorder) RecordSnapshotSent(backend string) {
	r.snapshotsSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
