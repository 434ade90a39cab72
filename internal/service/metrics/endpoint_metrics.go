package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"FinWatch/internal/domain/models"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finwatch",
			Subsystem: "market",
			Name:      "latency_seconds",
			Help:      "Latency of market data endpoints",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finwatch",
			Subsystem: "market",
			Name:      "errors_total",
			Help:      "Failed market data calls by endpoint and error kind",
		},
		[]string{"endpoint", "kind"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		for _, c := range []prometheus.Collector{EndpointLatency, EndpointErrors} {
			if err := prometheus.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					panic(err)
				}
			}
		}
	})
}

// Observe records one endpoint call.
func Observe(endpoint string, start time.Time, err error) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		EndpointErrors.WithLabelValues(endpoint, string(models.KindOf(err))).Inc()
	}
}
