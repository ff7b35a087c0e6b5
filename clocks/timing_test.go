// timing_test.go - Tests and benchmarks for timing derivatives

package clocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCyclesPerInterval(t *testing.T) {
	assert.Equal(t, uint32(641699), CyclesPerInterval(MCLK_PAL, 50))
	assert.Equal(t, uint32(8021247/50), CyclesPerInterval(MCLK_PAL/4, 50))
	assert.Equal(t, uint32(0), CyclesPerInterval(10, 50))
}

func TestRatePerInterval(t *testing.T) {
	assert.Equal(t, uint64(50)<<24, RatePerInterval(50))
	assert.Equal(t, uint64(71), RatePerInterval(71)>>RATE_SHIFT)
	assert.Zero(t, RatePerInterval(60)&(1<<RATE_SHIFT-1), "fractional bits are reserved")
}

func TestIntervalDurationMicroseconds_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		rate uint32
		want uint32
	}{
		{1, 1000000},
		{3, 333333}, // 333333.33
		{50, 20000},
		{60, 16667}, // 16666.67
		{71, 14085}, // 14084.51
		{64, 15625},
		{400000, 3},  // 2.5 rounds up
		{2000000, 1}, // 0.5 rounds up
		{2000001, 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, IntervalDurationMicroseconds(tc.rate), "rate %d", tc.rate)
	}
}

func TestSamplesPerInterval(t *testing.T) {
	assert.Equal(t, uint64(882)<<SAMPLES_SHIFT, SamplesPerInterval(44100, 50))

	spi := SamplesPerInterval(48000, 71)
	assert.Equal(t, uint64(676), spi>>SAMPLES_SHIFT)
	assert.NotZero(t, spi&SAMPLES_FRAC, "48000/71 has a fractional part")
}

func TestZeroRatePanics(t *testing.T) {
	assert.Panics(t, func() { CyclesPerInterval(MCLK_PAL, 0) })
	assert.Panics(t, func() { RatePerInterval(0) })
	assert.Panics(t, func() { IntervalDurationMicroseconds(0) })
	assert.Panics(t, func() { SamplesPerInterval(44100, 0) })
}

func TestSampleAccumulator_NoLongRunDrift(t *testing.T) {
	tests := []struct {
		name    string
		audioHz uint32
		rate    uint32
		seconds uint64
	}{
		{"44100/50", 44100, 50, 60},
		{"48000/71", 48000, 71, 600},
		{"50066/60", 50066, 60, 600},
		{"22050/71", 22050, 71, 3600},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc := NewSampleAccumulator(tc.audioHz, tc.rate)
			var total uint64
			intervals := tc.seconds * uint64(tc.rate)
			for i := uint64(0); i < intervals; i++ {
				n := acc.Next()
				total += uint64(n)
			}

			exact := uint64(tc.audioHz) * tc.seconds
			assert.LessOrEqual(t, total, exact)
			assert.LessOrEqual(t, exact-total, uint64(1), "drifted %d samples", exact-total)
		})
	}
}

func TestSampleAccumulator_CarriesRemainder(t *testing.T) {
	acc := NewSampleAccumulator(48000, 71)

	counts := map[int]int{}
	for i := 0; i < 71; i++ {
		counts[acc.Next()]++
	}
	// 48000/71 = 676.056; most intervals produce 676, a few carry into 677.
	assert.Equal(t, 2, len(counts))
	assert.Greater(t, counts[676], counts[677])
	assert.Equal(t, 71, counts[676]+counts[677])

	acc.Reset()
	assert.Zero(t, acc.Remainder())
	assert.Equal(t, SamplesPerInterval(48000, 71), acc.Step())
}

func TestFrameGeometry(t *testing.T) {
	assert.Equal(t, uint32(160256), FrameGeometry(PAL).CyclesPerFrame())
	assert.Equal(t, uint32(133604), FrameGeometry(NTSC).CyclesPerFrame())
	assert.Equal(t, uint32(112224), FrameGeometry(Mono).CyclesPerFrame())
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "50.000", FormatFixed(50<<RATE_SHIFT, RATE_SHIFT))
	assert.Equal(t, "0.500", FormatFixed(1<<(SAMPLES_SHIFT-1), SAMPLES_SHIFT))
	assert.Equal(t, "2.000", FormatFixed(2<<RATE_SHIFT-1, RATE_SHIFT))
}

func BenchmarkSampleAccumulator(b *testing.B) {
	acc := NewSampleAccumulator(44100, 71)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = acc.Next()
	}
}

func BenchmarkDerive(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Derive(Studio, PAL)
	}
}
