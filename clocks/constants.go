// constants.go - Crystal frequencies and fixed-point layouts for the clock model

package clocks

// Master clocks. Every derived clock of a variant divides one of these exactly.
const (
	MCLK_PAL  = 32084988 // PAL master clock (Hz); CPU = MCLK/4 = 8021247
	MCLK_NTSC = 32042400 // NTSC master clock (Hz); CPU = MCLK/4 = 8010600
)

// Independent crystals. These are not derived from the master clock.
const (
	MFP_XTAL       = 2457600  // MFP timer crystal (Hz)
	SOUND_CLOCK    = 2000000  // Programmable sound generator input clock (Hz)
	KEYBOARD_CLOCK = 1000000  // Keyboard controller clock (Hz)
	XBAR_CLOCK_25M = 25175000 // Studio crossbar VGA crystal (Hz)
	XBAR_CLOCK_22M = 22579200 // Studio crossbar external audio crystal (Hz)
)

// Nominal refresh rates per video standard (events per second).
const (
	REFRESH_PAL  = 50
	REFRESH_NTSC = 60
	REFRESH_MONO = 71
)

// Fixed-point layouts.
const (
	RATE_SHIFT    = 24 // fractional bits of RatePerInterval
	SAMPLES_SHIFT = 28 // fractional bits of SamplesPerInterval
	SAMPLES_FRAC  = 1<<SAMPLES_SHIFT - 1
)

// Shifter frame geometry, in video bus cycles (MCLK/4).
const (
	CYCLES_PER_LINE_PAL  = 512
	LINES_PER_FRAME_PAL  = 313
	CYCLES_PER_LINE_NTSC = 508
	LINES_PER_FRAME_NTSC = 263
	CYCLES_PER_LINE_MONO = 224
	LINES_PER_FRAME_MONO = 501

	VIDEO_BUS_DIVIDER = 4
)
