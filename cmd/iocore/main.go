// main.go - iocore: inspect machine clock graphs and I/O maps

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

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/term"

	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
	"github.com/intuitionamiga/iocore/machine"
)

type options struct {
	machine string
	video   string
	profile string
	clocks  bool
	ioMap   bool
	all     bool
	audio   uint
	verbose bool
	probes  probeList
}

func main() {
	var opts options
	flag.StringVar(&opts.machine, "machine", "standard", "Machine variant")
	flag.StringVar(&opts.video, "video", "pal", "Video standard (pal, ntsc or mono)")
	flag.StringVar(&opts.profile, "profile", "", "Machine profile (YAML); overrides -machine and -video")
	flag.BoolVar(&opts.clocks, "clocks", false, "Print the clock graph and refresh timing")
	flag.BoolVar(&opts.ioMap, "map", false, "Print the I/O map")
	flag.BoolVar(&opts.all, "all", false, "Include unclaimed runs in the I/O map")
	flag.UintVar(&opts.audio, "audio", 44100, "Audio output rate for sample timing (0 to omit)")
	flag.BoolVar(&opts.verbose, "v", false, "Log bus diagnostics to stderr")
	flag.Var(&opts.probes, "probe", "Bus access addr:width:r or addr:width:w=value (hex, repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: iocore [options]\n\nInspects machine clock graphs, I/O maps and bus behaviour.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nMachines:")
		for _, v := range clocks.Variants() {
			fmt.Fprintf(os.Stderr, " %s", v)
		}
		fmt.Fprintf(os.Stderr, "\n\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  iocore -machine studio -clocks -map\n")
		fmt.Fprintf(os.Stderr, "  iocore -profile studio.yaml -probe FF8800:1:w=41 -probe FF8800:1:r\n")
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(1)
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !opts.clocks && !opts.ioMap && len(opts.probes) == 0 {
		opts.clocks = true
		opts.ioMap = true
	}

	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (o options) validate() error {
	if uint64(o.audio) > math.MaxUint32 {
		return fmt.Errorf("-audio %d is out of range", o.audio)
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openMachine(opts options, logger *slog.Logger) (*machine.Machine, error) {
	if opts.profile != "" {
		return machine.NewFromProfile(opts.profile, machine.WithLogger(logger))
	}
	v, err := clocks.ParseVariant(opts.machine)
	if err != nil {
		return nil, err
	}
	std, err := clocks.ParseVideoStandard(opts.video)
	if err != nil {
		return nil, err
	}
	return machine.New(machine.Config{Variant: v, Video: std}, machine.WithLogger(logger)), nil
}

func run(out *os.File, opts options) error {
	m, err := openMachine(opts, newLogger(opts.verbose))
	if err != nil {
		return err
	}
	defer m.Close()

	width := 0
	if term.IsTerminal(int(out.Fd())) {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil {
			width = w
		}
	}
	return report(out, m, opts, width)
}

func report(w io.Writer, m *machine.Machine, opts options, width int) error {
	sep := func() { fmt.Fprintln(w, rule(width)) }

	if opts.clocks {
		g := m.Clocks()
		if err := writeClocks(w, g); err != nil {
			return err
		}
		sep()
		if err := writeTiming(w, g, uint32(opts.audio)); err != nil {
			return err
		}
	}
	if opts.ioMap {
		if opts.clocks {
			sep()
		}
		if err := iomem.WriteMap(w, m.Bus().Table(), opts.all); err != nil {
			return err
		}
	}
	if len(opts.probes) > 0 {
		if opts.clocks || opts.ioMap {
			sep()
		}
		m.Start()
		defer m.Stop()
		for _, p := range opts.probes {
			if err := runProbe(w, m.Bus(), p); err != nil {
				return err
			}
		}
	}
	return nil
}
