package repository

// Metrics records service-level measurements.
type Metrics interface {
	// RecordProviderRequest counts one upstream call; result is ok, quota,
	// api_error or network_error.
	RecordProviderRequest(provider, result string)
	RecordCacheEvent(dataType string, hit bool)
	RecordKeyExhausted()
	RecordSnapshotSent(backend string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordProviderRequest(string, string) {}
func (NopMetrics) RecordCacheEvent(string, bool)        {}
func (NopMetrics) RecordKeyExhausted()                  {}
func (NopMetrics) RecordSnapshotSent(string)            {}
func (NopMetrics) RecordError(string)                   {}
func (NopMetrics) RecordLastPrice(string, float64)      {}
func (NopMetrics) RecordLatency(string, float64)        {}
