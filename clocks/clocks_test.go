// clocks_test.go - Tests for clock graph derivation

package clocks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_StandardPAL(t *testing.T) {
	g := Derive(Standard, PAL)

	assert.Equal(t, uint32(32084988), g.Master())
	assert.Equal(t, uint32(8021247), g.Freq(CPU))
	assert.Equal(t, uint32(4), g.Divider(CPU))
	assert.Equal(t, g.Freq(Bus), g.Freq(DMA))
	assert.Equal(t, uint32(641699), CyclesPerInterval(g.Master(), 50))
	assert.False(t, g.Has(DSP), "standard machine has no signal processor")
	assert.False(t, g.Has(Blitter))
}

func TestDerive_EveryDerivedClockDividesMaster(t *testing.T) {
	for _, v := range Variants() {
		for _, std := range []VideoStandard{PAL, NTSC, Mono} {
			g := Derive(v, std)
			for _, id := range g.Derived() {
				hz := g.Freq(id)
				require.NotZero(t, hz, "%v/%v %v", v, std, id)
				assert.Zero(t, g.Master()%hz, "%v/%v: %v = %d does not divide %d", v, std, id, hz, g.Master())
				assert.Equal(t, g.Master(), hz*g.Divider(id), "%v/%v %v divider", v, std, id)
			}
		}
	}
}

func TestDerive_OscillatorsAreIndependent(t *testing.T) {
	g := Derive(Studio, PAL)

	for _, id := range []ClockID{MFP, Sound, Keyboard, Crossbar25, Crossbar22} {
		assert.True(t, g.IsOscillator(id), "%v", id)
		assert.Zero(t, g.Divider(id), "%v", id)
	}
	assert.Equal(t, uint32(MFP_XTAL), g.Freq(MFP))
	assert.NotContains(t, g.Derived(), MFP)

	std := Derive(Standard, PAL)
	assert.False(t, std.Has(Crossbar25))
}

func TestDerive_VariantClocks(t *testing.T) {
	tests := []struct {
		variant Variant
		std     VideoStandard
		id      ClockID
		want    uint32
	}{
		{Standard, NTSC, CPU, 8010600},
		{Mega, PAL, Blitter, 8021247},
		{Enhanced, PAL, Blitter, 8021247},
		{MegaEnhanced, PAL, CPU, 16042494},
		{MegaEnhanced, PAL, SCC, 8021247},
		{Workstation, PAL, CPU, 32084988},
		{Workstation, PAL, Bus, 16042494},
		{Workstation, NTSC, DMA, 8010600},
		{Studio, PAL, CPU, 16042494},
		{Studio, PAL, DSP, 32084988},
		{Studio, Mono, Shifter, 32084988},
	}

	for _, tc := range tests {
		t.Run(tc.variant.String()+"/"+tc.std.String()+"/"+tc.id.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.variant, tc.std).Freq(tc.id))
		})
	}
}

func TestDerive_UnknownVariantPanics(t *testing.T) {
	assert.Panics(t, func() { Derive(Variant(99), PAL) })
}

func TestDerive_InexactDividerPanics(t *testing.T) {
	saved := variantDerivations[Standard]
	defer func() { variantDerivations[Standard] = saved }()

	// 32084988 / 16 = 2005311.75
	variantDerivations[Standard] = []derivation{{Sound, Master, 16}}
	assert.Panics(t, func() { Derive(Standard, PAL) })
}

func TestGraph_Clocks(t *testing.T) {
	g := Derive(Enhanced, PAL)
	clocks := g.Clocks()

	require.NotEmpty(t, clocks)
	assert.Equal(t, Master, clocks[0].ID)
	assert.Equal(t, uint32(1), clocks[0].Divider)

	seen := map[ClockID]bool{}
	for _, c := range clocks {
		seen[c.ID] = true
		assert.Equal(t, g.Freq(c.ID), c.Hz)
	}
	assert.True(t, seen[Blitter])
	assert.True(t, seen[MFP])
	assert.False(t, seen[DSP])
}

func TestGraph_RefreshDerivatives(t *testing.T) {
	tests := []struct {
		std          VideoStandard
		rate         uint32
		micros       uint32
		cpuPerFrame  uint32
		samples44100 uint64
	}{
		{PAL, 50, 20000, 160424, 882 << SAMPLES_SHIFT},
		{NTSC, 60, 16667, 133510, 735 << SAMPLES_SHIFT},
		{Mono, 71, 14085, 112975, (44100 << SAMPLES_SHIFT) / 71},
	}

	for _, tc := range tests {
		t.Run(tc.std.String(), func(t *testing.T) {
			g := Derive(Standard, tc.std)
			assert.Equal(t, tc.rate, g.RefreshRate())
			assert.Equal(t, uint64(tc.rate)<<RATE_SHIFT, g.RatePerRefresh())
			assert.Equal(t, tc.micros, g.RefreshDurationMicroseconds())
			assert.Equal(t, tc.cpuPerFrame, g.CyclesPerRefresh(CPU))
			assert.Equal(t, tc.samples44100, g.SamplesPerRefresh(44100))
		})
	}
}

func TestGraph_FrameRate(t *testing.T) {
	assert.Equal(t, "50.053", FormatFixed(Derive(Standard, PAL).FrameRate(), RATE_SHIFT))
	assert.Equal(t, "59.958", FormatFixed(Derive(Standard, NTSC).FrameRate(), RATE_SHIFT))
	assert.Equal(t, "71.475", FormatFixed(Derive(Standard, Mono).FrameRate(), RATE_SHIFT))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("megaenhanced")
	require.NoError(t, err)
	assert.Equal(t, MegaEnhanced, v)

	_, err = ParseVariant("amiga")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	std, err := ParseVideoStandard("NTSC")
	require.NoError(t, err)
	assert.Equal(t, NTSC, std)

	_, err = ParseVideoStandard("secam")
	assert.ErrorIs(t, err, ErrUnknownStandard)
}

func TestModel_SelectPublishesWholeGraph(t *testing.T) {
	var m Model
	assert.Nil(t, m.Current())

	g := m.Select(Standard, PAL)
	assert.Same(t, g, m.Current())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			cur := m.Current()
			// A reader must never see a master clock from one graph paired
			// with a CPU clock from another.
			if cur.Master()%cur.Freq(CPU) != 0 || cur.Master()/cur.Divider(CPU) != cur.Freq(CPU) {
				t.Errorf("torn graph: master %d cpu %d", cur.Master(), cur.Freq(CPU))
				return
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			m.Select(Workstation, NTSC)
		} else {
			m.Select(Standard, PAL)
		}
	}
	close(stop)
	wg.Wait()
}
