package main

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
	"github.com/intuitionamiga/iocore/machine"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		in   string
		want probe
	}{
		{"FF8800:1:r", probe{addr: 0xFF8800, width: 1, dir: iomem.Read}},
		{"$FF8A00:w:w=$1234", probe{addr: 0xFF8A00, width: 2, dir: iomem.Write, value: 0x1234}},
		{"ff7a00:4:w=DEADBEEF", probe{addr: 0xFF7A00, width: 4, dir: iomem.Write, value: 0xDEADBEEF}},
		{"FF8001:l:r", probe{addr: 0xFF8001, width: 4, dir: iomem.Read}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseProbe(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProbe_Errors(t *testing.T) {
	for _, in := range []string{
		"FF8800",
		"FF8800:1",
		"ZZ:1:r",
		"FF8800:3:r",
		"FF8800:1:x",
		"FF8800:1:r=5",
		"FF8800:1:w",
		"FF8800:1:w=XY",
	} {
		_, err := parseProbe(in)
		assert.Error(t, err, in)
	}
}

func TestProbeList_Set(t *testing.T) {
	var l probeList
	require.NoError(t, l.Set("FF8800:1:w=41"))
	require.NoError(t, l.Set("FF8800:1:r"))
	assert.Equal(t, "FF8800:1:w=41,FF8800:1:r", l.String())
	assert.Error(t, l.Set("nope"))
	assert.Len(t, l, 2)
}

func TestRunProbe(t *testing.T) {
	m := machine.New(machine.Config{Variant: clocks.Standard})
	var buf bytes.Buffer

	for _, p := range []probe{
		{addr: 0xFF8800, width: 1, dir: iomem.Write, value: 0x41},
		{addr: 0xFF8800, width: 1, dir: iomem.Read},
		{addr: 0xFF8A00, width: 2, dir: iomem.Read},
		{addr: 0xFF0000, width: 1, dir: iomem.Read},
	} {
		require.NoError(t, runProbe(&buf, m.Bus(), p))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "<- $41")
	assert.Contains(t, lines[0], "psg")
	assert.Contains(t, lines[1], "-> $41")
	assert.Contains(t, lines[2], "BUS ERROR")
	assert.NotContains(t, lines[2], "outside")
	assert.Contains(t, lines[3], "outside I/O window")
}

func TestWriteClocks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeClocks(&buf, clocks.Derive(clocks.Studio, clocks.PAL)))
	out := buf.String()

	assert.Contains(t, out, "Machine: Studio (PAL)")
	assert.Contains(t, out, "32084988")
	assert.Contains(t, out, "crystal (master)")
	assert.Contains(t, out, "MCLK/2")
	assert.Contains(t, out, "XBAR25")
	assert.Contains(t, out, "25175000")
}

func TestWriteTiming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTiming(&buf, clocks.Derive(clocks.Standard, clocks.PAL), 50000))
	out := buf.String()

	assert.Contains(t, out, "50 Hz")
	assert.Contains(t, out, "50.053 Hz")
	assert.Contains(t, out, "20000 us")
	assert.Contains(t, out, "160424") // 8021247 / 50
	assert.Contains(t, out, "1000.000 (50000 Hz)")

	buf.Reset()
	require.NoError(t, writeTiming(&buf, clocks.Derive(clocks.Standard, clocks.NTSC), 0))
	assert.NotContains(t, buf.String(), "samples per refresh")
}

func TestReport(t *testing.T) {
	m := machine.New(machine.Config{Variant: clocks.Mega})
	var buf bytes.Buffer
	opts := options{clocks: true, ioMap: true, audio: 0}
	require.NoError(t, opts.probes.Set("FF8A00:2:w=BEEF"))

	require.NoError(t, report(&buf, m, opts, 10))
	out := buf.String()

	assert.Contains(t, out, "Machine: Mega (PAL)")
	assert.Contains(t, out, "blitter")
	assert.Contains(t, out, "<- $BEEF")
	assert.Equal(t, 3, strings.Count(out, strings.Repeat("-", 10)+"\n"), "separator between sections")
	assert.False(t, m.Running(), "probing leaves the machine stopped")
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, options{audio: 44100}.validate())
	assert.NoError(t, options{audio: math.MaxUint32}.validate())

	if strconv.IntSize < 64 {
		t.Skip("uint cannot exceed 32 bits")
	}
	over := uint(math.MaxUint32)
	over++
	assert.Error(t, options{audio: over}.validate())
}
