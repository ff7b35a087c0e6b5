// timing.go - Cycle, rate, duration and sample derivatives of the clock graph

package clocks

import "fmt"

// Refresh rates are fixed at configuration time, so a zero rate is a
// programming error rather than something to recover from.
func mustRate(eventsPerSecond uint32) {
	if eventsPerSecond == 0 {
		panic("clocks: events per second must be non-zero")
	}
}

// CyclesPerInterval returns clockHz / eventsPerSecond, truncated. This is the
// cycle budget of one interval, not a real-time pacing value.
func CyclesPerInterval(clockHz, eventsPerSecond uint32) uint32 {
	mustRate(eventsPerSecond)
	return clockHz / eventsPerSecond
}

// RatePerInterval returns eventsPerSecond in RATE_SHIFT fixed point. The
// fractional bits are reserved; the nominal rate is returned.
func RatePerInterval(eventsPerSecond uint32) uint64 {
	mustRate(eventsPerSecond)
	return uint64(eventsPerSecond) << RATE_SHIFT
}

// IntervalDurationMicroseconds returns round(1e6 / eventsPerSecond), half up.
func IntervalDurationMicroseconds(eventsPerSecond uint32) uint32 {
	mustRate(eventsPerSecond)
	return uint32((1_000_000 + uint64(eventsPerSecond)/2) / uint64(eventsPerSecond))
}

// SamplesPerInterval returns (audioHz << SAMPLES_SHIFT) / eventsPerSecond.
// Callers accumulate the fractional part across intervals; see
// SampleAccumulator.
func SamplesPerInterval(audioHz, eventsPerSecond uint32) uint64 {
	mustRate(eventsPerSecond)
	return (uint64(audioHz) << SAMPLES_SHIFT) / uint64(eventsPerSecond)
}

// SampleAccumulator turns a fixed-point samples-per-interval step into whole
// sample counts, carrying the remainder so the long-run total tracks
// audioHz * intervals / eventsPerSecond.
type SampleAccumulator struct {
	step uint64
	frac uint64
}

func NewSampleAccumulator(audioHz, eventsPerSecond uint32) *SampleAccumulator {
	return &SampleAccumulator{step: SamplesPerInterval(audioHz, eventsPerSecond)}
}

// Next returns the number of whole samples to produce for one interval.
func (a *SampleAccumulator) Next() int {
	total := a.frac + a.step
	a.frac = total & SAMPLES_FRAC
	return int(total >> SAMPLES_SHIFT)
}

// Step returns the fixed-point increment applied per interval.
func (a *SampleAccumulator) Step() uint64 { return a.step }

// Remainder returns the carried fraction in SAMPLES_SHIFT fixed point.
func (a *SampleAccumulator) Remainder() uint64 { return a.frac }

// Reset drops the carried fraction.
func (a *SampleAccumulator) Reset() { a.frac = 0 }

// Frame is the shifter's scan geometry for one video standard, counted in
// video bus cycles (master / VIDEO_BUS_DIVIDER).
type Frame struct {
	CyclesPerLine uint32
	LinesPerFrame uint32
}

// CyclesPerFrame returns the exact number of video bus cycles in one frame.
func (f Frame) CyclesPerFrame() uint32 {
	return f.CyclesPerLine * f.LinesPerFrame
}

// FrameGeometry returns the scan geometry for a video standard.
func FrameGeometry(std VideoStandard) Frame {
	switch std {
	case NTSC:
		return Frame{CYCLES_PER_LINE_NTSC, LINES_PER_FRAME_NTSC}
	case Mono:
		return Frame{CYCLES_PER_LINE_MONO, LINES_PER_FRAME_MONO}
	}
	return Frame{CYCLES_PER_LINE_PAL, LINES_PER_FRAME_PAL}
}

// FrameRate returns the refresh rate the shifter actually produces, in
// RATE_SHIFT fixed point. It differs from the nominal rate (50.053 Hz rather
// than 50 Hz on PAL) and is what cycle-exact consumers should pace against.
func (g *Graph) FrameRate() uint64 {
	cycles := FrameGeometry(g.standard).CyclesPerFrame()
	videoHz := uint64(g.Master() / VIDEO_BUS_DIVIDER)
	return (videoHz << RATE_SHIFT) / uint64(cycles)
}

// FormatFixed renders a fixed-point value with the given number of
// fractional bits as a decimal with three places.
func FormatFixed(v uint64, shift uint) string {
	whole := v >> shift
	frac := v & (1<<shift - 1)
	milli := (frac*1000 + 1<<(shift-1)) >> shift
	if milli == 1000 {
		whole++
		milli = 0
	}
	return fmt.Sprintf("%d.%03d", whole, milli)
}
