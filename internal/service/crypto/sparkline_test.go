package crypto

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSynthesizeSparklineStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for run := 0; run < 50; run++ {
		out := SynthesizeSparkline(110, 90, 104, rng)
		require.Len(t, out, SparklinePoints)
		for _, v := range out[:SparklinePoints-1] {
			require.GreaterOrEqual(t, v, 90.0)
			require.LessOrEqual(t, v, 110.0)
		}
		require.Equal(t, 104.0, out[SparklinePoints-1])
	}
}

func TestSynthesizeSparklineDeterministicForSeed(t *testing.T) {
	a := SynthesizeSparkline(2, 1, 1.5, rand.New(rand.NewPCG(3, 4)))
	b := SynthesizeSparkline(2, 1, 1.5, rand.New(rand.NewPCG(3, 4)))
	require.Equal(t, a, b)
}

func TestSynthesizeSparklineFlatRange(t *testing.T) {
	out := SynthesizeSparkline(0, 0, 5, nil)
	for _, v := range out {
		require.Equal(t, 5.0, v)
	}
}

func TestSynthesizeSparklineSwapsInvertedBounds(t *testing.T) {
	out := SynthesizeSparkline(1, 3, 2, nil)
	require.InDelta(t, 2, out[0], 1e-9)
	for _, v := range out {
		require.GreaterOrEqual(t, v, 1.0)
		require.LessOrEqual(t, v, 3.0)
	}
}
