package crypto

import (
	"math"
	"math/rand/v2"
)

const (
	SparklinePoints = 24
	jitterRatio     = 0.05
)

// SynthesizeSparkline draws a sine-shaped path between low and high with
// jitter of up to 5% of the range per point. Points stay inside [low, high]
// and the last point is the current price.
func SynthesizeSparkline(high, low, current float64, rng *rand.Rand) []float64 {
	if high < low {
		high, low = low, high
	}
	out := make([]float64, SparklinePoints)
	span := high - low
	if span <= 0 {
		for i := range out {
			out[i] = current
		}
		return out
	}

	for i := 0; i < SparklinePoints-1; i++ {
		phase := float64(i) / float64(SparklinePoints-1) * 2 * math.Pi
		v := low + span*(0.5+0.5*math.Sin(phase))
		if rng != nil {
			v += (rng.Float64()*2 - 1) * jitterRatio * span
		}
		out[i] = math.Min(high, math.Max(low, v))
	}
	out[SparklinePoints-1] = current
	return out
}
