// clocks.go - Clock graph derivation for the emulated machine variants

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
clocks.go - Clock Graph

Every variant runs from one master crystal. The CPU, bus, DMA, blitter and
signal processor clocks are produced by integer dividers of that crystal, so the
relationships between them are bit exact. Timers, the sound generator and the
keyboard controller have their own crystals and are carried in the graph as
independent oscillators.

Derive computes a complete Graph once per machine-type selection. A Graph is
immutable: reconfiguring the machine derives a new one and publishes it through
a Model, so goroutines that read clocks always see either the old graph or the
new one, never a mixture.
*/

package clocks

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var (
	ErrUnknownVariant  = errors.New("unknown machine variant")
	ErrUnknownStandard = errors.New("unknown video standard")
)

// Variant selects a machine model.
type Variant int

const (
	Standard Variant = iota
	Mega
	Enhanced
	MegaEnhanced
	Workstation
	Studio
)

var variantNames = [...]string{
	Standard:     "Standard",
	Mega:         "Mega",
	Enhanced:     "Enhanced",
	MegaEnhanced: "MegaEnhanced",
	Workstation:  "Workstation",
	Studio:       "Studio",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Variants returns every supported variant in declaration order.
func Variants() []Variant {
	return []Variant{Standard, Mega, Enhanced, MegaEnhanced, Workstation, Studio}
}

// ParseVariant resolves a variant by name, ignoring case.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if strings.EqualFold(s, name) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// VideoStandard selects the video timing, which also picks the master crystal.
type VideoStandard int

const (
	PAL VideoStandard = iota
	NTSC
	Mono
)

func (s VideoStandard) String() string {
	switch s {
	case PAL:
		return "PAL"
	case NTSC:
		return "NTSC"
	case Mono:
		return "Mono"
	}
	return fmt.Sprintf("VideoStandard(%d)", int(s))
}

// ParseVideoStandard resolves "pal", "ntsc" or "mono", ignoring case.
func ParseVideoStandard(s string) (VideoStandard, error) {
	for _, std := range []VideoStandard{PAL, NTSC, Mono} {
		if strings.EqualFold(s, std.String()) {
			return std, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStandard, s)
}

// ClockID names one node of the clock graph.
type ClockID int

const (
	Master ClockID = iota
	Bus
	CPU
	FPU
	DMA
	FDC
	Blitter
	Shifter
	DSP
	SCC

	// Independent oscillators.
	MFP
	Sound
	Keyboard
	Crossbar25
	Crossbar22

	numClocks
)

var clockNames = [numClocks]string{
	Master:     "MCLK",
	Bus:        "BUS",
	CPU:        "CPU",
	FPU:        "FPU",
	DMA:        "DMA",
	FDC:        "FDC",
	Blitter:    "BLITTER",
	Shifter:    "SHIFTER",
	DSP:        "DSP",
	SCC:        "SCC",
	MFP:        "MFP",
	Sound:      "SOUND",
	Keyboard:   "KEYBOARD",
	Crossbar25: "XBAR25",
	Crossbar22: "XBAR22",
}

func (id ClockID) String() string {
	if id < 0 || id >= numClocks {
		return fmt.Sprintf("ClockID(%d)", int(id))
	}
	return clockNames[id]
}

// derivation divides an already-known clock by an integer.
type derivation struct {
	id   ClockID
	from ClockID
	div  uint32
}

// Dividers are applied in order; from must already be present.
var variantDerivations = map[Variant][]derivation{
	Standard: {
		{Bus, Master, 4},
		{CPU, Master, 4},
		{DMA, Bus, 1},
		{FDC, Bus, 1},
		{Shifter, Master, 1},
	},
	Mega: {
		{Bus, Master, 4},
		{CPU, Master, 4},
		{DMA, Bus, 1},
		{FDC, Bus, 1},
		{Blitter, Bus, 1},
		{Shifter, Master, 1},
	},
	Enhanced: {
		{Bus, Master, 4},
		{CPU, Master, 4},
		{DMA, Bus, 1},
		{FDC, Bus, 1},
		{Blitter, Bus, 1},
		{Shifter, Master, 1},
	},
	MegaEnhanced: {
		{Bus, Master, 4},
		{CPU, Master, 2},
		{FPU, CPU, 1},
		{DMA, Bus, 1},
		{FDC, Bus, 1},
		{Blitter, Bus, 1},
		{Shifter, Master, 1},
		{SCC, Bus, 1},
	},
	Workstation: {
		{Bus, Master, 2},
		{CPU, Master, 1},
		{FPU, CPU, 1},
		{DMA, Bus, 2},
		{FDC, DMA, 1},
		{Shifter, Master, 1},
		{SCC, DMA, 1},
	},
	Studio: {
		{Bus, Master, 2},
		{CPU, Bus, 1},
		{FPU, CPU, 1},
		{DMA, Master, 4},
		{FDC, DMA, 1},
		{Blitter, Bus, 1},
		{Shifter, Master, 1},
		{DSP, Master, 1},
		{SCC, DMA, 1},
	},
}

var variantOscillators = map[Variant][]ClockID{
	Standard:     {MFP, Sound, Keyboard},
	Mega:         {MFP, Sound, Keyboard},
	Enhanced:     {MFP, Sound, Keyboard},
	MegaEnhanced: {MFP, Sound, Keyboard},
	Workstation:  {MFP, Sound, Keyboard},
	Studio:       {MFP, Sound, Keyboard, Crossbar25, Crossbar22},
}

var oscillatorFreq = map[ClockID]uint32{
	MFP:        MFP_XTAL,
	Sound:      SOUND_CLOCK,
	Keyboard:   KEYBOARD_CLOCK,
	Crossbar25: XBAR_CLOCK_25M,
	Crossbar22: XBAR_CLOCK_22M,
}

// MasterClock returns the master crystal frequency for a video standard.
// Monochrome machines run from the PAL crystal.
func MasterClock(std VideoStandard) uint32 {
	if std == NTSC {
		return MCLK_NTSC
	}
	return MCLK_PAL
}

// Graph is the derived set of clock frequencies for one variant and video
// standard. The zero value is not usable; call Derive.
type Graph struct {
	variant  Variant
	standard VideoStandard
	freq     [numClocks]uint32
	div      [numClocks]uint32 // total divider from master, 0 for oscillators
	osc      [numClocks]bool
}

// Derive builds the clock graph for a variant. It panics if the variant is
// unknown or if a divider does not divide its source exactly; both are
// programming errors in the variant tables.
func Derive(v Variant, std VideoStandard) *Graph {
	table, ok := variantDerivations[v]
	if !ok {
		panic(fmt.Sprintf("clocks: no derivation table for %v", v))
	}

	g := &Graph{variant: v, standard: std}
	g.freq[Master] = MasterClock(std)
	g.div[Master] = 1

	for _, d := range table {
		src := g.freq[d.from]
		if src == 0 || g.osc[d.from] {
			panic(fmt.Sprintf("clocks: %v derives %v from %v which is not a derived clock", v, d.id, d.from))
		}
		if d.div == 0 || src%d.div != 0 {
			panic(fmt.Sprintf("clocks: %v: %v = %d / %d is not exact", v, d.id, src, d.div))
		}
		g.freq[d.id] = src / d.div
		g.div[d.id] = g.div[d.from] * d.div
	}

	for _, id := range variantOscillators[v] {
		g.freq[id] = oscillatorFreq[id]
		g.osc[id] = true
	}
	return g
}

func (g *Graph) Variant() Variant { return g.variant }
func (g *Graph) VideoStandard() VideoStandard { return g.standard }
func (g *Graph) Master() uint32 { return g.freq[Master] }
func (g *Graph) Has(id ClockID) bool { return id >= 0 && id < numClocks && g.freq[id] != 0 }
func (g *Graph) IsOscillator(id ClockID) bool { return g.Has(id) && g.osc[id] }

// Freq returns the frequency of a clock in Hz, or 0 if the variant lacks it.
func (g *Graph) Freq(id ClockID) uint32 {
	if id < 0 || id >= numClocks {
		return 0
	}
	return g.freq[id]
}

// Divider returns the total integer divider between the master clock and a
// derived clock. Oscillators and absent clocks report 0.
func (g *Graph) Divider(id ClockID) uint32 {
	if id < 0 || id >= numClocks {
		return 0
	}
	return g.div[id]
}

// Derived lists the clocks obtained by division, master included.
func (g *Graph) Derived() []ClockID {
	var ids []ClockID
	for id := Master; id < numClocks; id++ {
		if g.freq[id] != 0 && !g.osc[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clock is one row of the graph as reported by Clocks.
type Clock struct {
	ID         ClockID
	Hz         uint32
	Divider    uint32
	Oscillator bool
}

// Clocks returns every clock present in the graph, master first.
func (g *Graph) Clocks() []Clock {
	var out []Clock
	for id := Master; id < numClocks; id++ {
		if g.freq[id] == 0 {
			continue
		}
		out = append(out, Clock{ID: id, Hz: g.freq[id], Divider: g.div[id], Oscillator: g.osc[id]})
	}
	return out
}

// RefreshRate returns the nominal vertical blank rate of the video standard.
func (g *Graph) RefreshRate() uint32 {
	return RefreshRate(g.standard)
}

// RefreshRate returns the nominal vertical blank rate of a video standard.
func RefreshRate(std VideoStandard) uint32 {
	switch std {
	case NTSC:
		return REFRESH_NTSC
	case Mono:
		return REFRESH_MONO
	}
	return REFRESH_PAL
}

// CyclesPerRefresh returns how many cycles of a clock fit in one refresh
// interval, truncated.
func (g *Graph) CyclesPerRefresh(id ClockID) uint32 {
	return CyclesPerInterval(g.Freq(id), g.RefreshRate())
}

// RatePerRefresh returns the refresh rate in RATE_SHIFT fixed point.
func (g *Graph) RatePerRefresh() uint64 {
	return RatePerInterval(g.RefreshRate())
}

// RefreshDurationMicroseconds returns the length of one refresh interval.
func (g *Graph) RefreshDurationMicroseconds() uint32 {
	return IntervalDurationMicroseconds(g.RefreshRate())
}

// SamplesPerRefresh returns the audio samples per refresh in SAMPLES_SHIFT
// fixed point.
func (g *Graph) SamplesPerRefresh(audioHz uint32) uint64 {
	return SamplesPerInterval(audioHz, g.RefreshRate())
}

// Model holds the graph of the currently selected machine type.
type Model struct {
	current atomic.Pointer[Graph]
}

// Select derives and publishes the graph for a new machine type.
func (m *Model) Select(v Variant, std VideoStandard) *Graph {
	g := Derive(v, std)
	m.current.Store(g)
	return g
}

// Current returns the published graph, or nil before the first Select.
func (m *Model) Current() *Graph {
	return m.current.Load()
}
