// report.go - Clock, timing and probe reports

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
)

// probe is one bus access requested on the command line, written as
// addr:width:r or addr:width:w=value.
type probe struct {
	addr  uint32
	width int
	dir   iomem.Direction
	value uint32
}

type probeList []probe

func (l *probeList) String() string {
	parts := make([]string, len(*l))
	for i, p := range *l {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

func (l *probeList) Set(s string) error {
	p, err := parseProbe(s)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func parseProbe(s string) (probe, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return probe{}, fmt.Errorf("probe %q: want addr:width:r or addr:width:w=value", s)
	}
	var p probe
	addr, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "$"), 16, 32)
	if err != nil {
		return probe{}, fmt.Errorf("probe %q: address: %w", s, err)
	}
	p.addr = uint32(addr)

	switch fields[1] {
	case "1", "b":
		p.width = iomem.Byte
	case "2", "w":
		p.width = iomem.Word
	case "4", "l":
		p.width = iomem.Long
	default:
		return probe{}, fmt.Errorf("probe %q: width must be 1, 2 or 4", s)
	}

	op, val, hasVal := strings.Cut(fields[2], "=")
	switch op {
	case "r":
		if hasVal {
			return probe{}, fmt.Errorf("probe %q: reads take no value", s)
		}
		p.dir = iomem.Read
	case "w":
		if !hasVal {
			return probe{}, fmt.Errorf("probe %q: writes need =value", s)
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(val, "$"), 16, 32)
		if err != nil {
			return probe{}, fmt.Errorf("probe %q: value: %w", s, err)
		}
		p.dir = iomem.Write
		p.value = uint32(v)
	default:
		return probe{}, fmt.Errorf("probe %q: direction must be r or w", s)
	}
	return p, nil
}

func (p probe) String() string {
	if p.dir == iomem.Write {
		return fmt.Sprintf("%06X:%d:w=%X", p.addr, p.width, p.value)
	}
	return fmt.Sprintf("%06X:%d:r", p.addr, p.width)
}

// runProbe performs p and prints one line describing the outcome. Bus errors
// are part of the report, not a failure of the tool.
func runProbe(w io.Writer, bus *iomem.Bus, p probe) error {
	v, err := bus.Access(p.addr, p.width, p.dir, p.value)
	var be *iomem.BusError
	switch {
	case errors.As(err, &be):
		note := ""
		if be.OutOfRange {
			note = " (outside I/O window)"
		}
		_, werr := fmt.Fprintf(w, "%-8s $%06X  BUS ERROR%s\n", p.label(), p.addr, note)
		return werr
	case err != nil:
		return err
	}
	owner := "-"
	if s, ok := bus.Table().SpanAt(p.addr-bus.Window().Base, p.dir); ok {
		owner = s.Name
	}
	digits := p.width * 2
	if p.dir == iomem.Write {
		_, err = fmt.Fprintf(w, "%-8s $%06X  <- $%0*X  %s\n", p.label(), p.addr, digits, p.value, owner)
	} else {
		_, err = fmt.Fprintf(w, "%-8s $%06X  -> $%0*X  %s\n", p.label(), p.addr, digits, v, owner)
	}
	return err
}

func (p probe) label() string {
	suffix := map[int]string{iomem.Byte: ".b", iomem.Word: ".w", iomem.Long: ".l"}[p.width]
	if p.dir == iomem.Write {
		return "write" + suffix
	}
	return "read" + suffix
}

// writeClocks prints every clock of g with its relation to the master.
func writeClocks(w io.Writer, g *clocks.Graph) error {
	fmt.Fprintf(w, "Machine: %s (%s)\n\n", g.Variant(), g.VideoStandard())
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CLOCK\tHZ\tSOURCE")
	for _, c := range g.Clocks() {
		src := "MCLK/" + strconv.FormatUint(uint64(c.Divider), 10)
		switch {
		case c.Oscillator:
			src = "crystal"
		case c.ID == clocks.Master:
			src = "crystal (master)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.ID, c.Hz, src)
	}
	return tw.Flush()
}

// writeTiming prints the per-refresh derivatives a scheduler works from.
func writeTiming(w io.Writer, g *clocks.Graph, audioHz uint32) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "refresh rate\t%d Hz\n", g.RefreshRate())
	fmt.Fprintf(tw, "frame rate\t%s Hz\n", clocks.FormatFixed(g.FrameRate(), clocks.RATE_SHIFT))
	fmt.Fprintf(tw, "refresh period\t%d us\n", g.RefreshDurationMicroseconds())
	fmt.Fprintf(tw, "rate per refresh\t$%X\n", g.RatePerRefresh())
	fmt.Fprintf(tw, "cpu cycles per refresh\t%d\n", g.CyclesPerRefresh(clocks.CPU))
	f := clocks.FrameGeometry(g.VideoStandard())
	fmt.Fprintf(tw, "frame\t%d cycles x %d lines = %d\n", f.CyclesPerLine, f.LinesPerFrame, f.CyclesPerFrame())
	if audioHz != 0 {
		spr := g.SamplesPerRefresh(audioHz)
		fmt.Fprintf(tw, "samples per refresh\t%s (%d Hz)\n", clocks.FormatFixed(spr, clocks.SAMPLES_SHIFT), audioHz)
	}
	return tw.Flush()
}

func rule(width int) string {
	if width <= 0 {
		width = 72
	}
	return strings.Repeat("-", width)
}
