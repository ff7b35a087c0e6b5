// machine.go - Machine configuration: board map, devices, clocks and bus

package machine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
)

var (
	ErrRunning       = errors.New("machine is running")
	ErrUnknownRegion = errors.New("unknown board region")
)

// Config selects the machine type.
type Config struct {
	Variant clocks.Variant
	Video   clocks.VideoStandard
	Window  iomem.Window // zero value selects iomem.DefaultWindow
}

func (c Config) window() iomem.Window {
	if c.Window == (iomem.Window{}) {
		return iomem.DefaultWindow
	}
	return c.Window
}

type binding struct {
	read, write iomem.Handler
}

// Machine owns the I/O bus and clock model for one configuration. Every
// change to the configuration or the attached devices rebuilds the dispatch
// table from scratch, which is only allowed while the machine is stopped.
type Machine struct {
	log     *slog.Logger
	cfg     Config
	bus     *iomem.Bus
	clocks  clocks.Model
	attach  map[string]binding
	extra   []iomem.Span
	running atomic.Bool
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// New builds a stopped machine for cfg.
func New(cfg Config, opts ...Option) *Machine {
	m := &Machine{
		log:    slog.New(slog.DiscardHandler),
		cfg:    cfg,
		attach: make(map[string]binding),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.clocks.Select(cfg.Variant, cfg.Video)
	m.bus = iomem.NewBus(m.buildTable(), iomem.WithLogger(m.log))
	return m
}

func (m *Machine) Config() Config { return m.cfg }

func (m *Machine) Bus() *iomem.Bus { return m.bus }

// Clocks returns the clock graph of the current configuration. It is safe to
// call from any goroutine.
func (m *Machine) Clocks() *clocks.Graph { return m.clocks.Current() }

func (m *Machine) Running() bool { return m.running.Load() }

// Start marks the machine as running and seals the bus.
func (m *Machine) Start() {
	m.running.Store(true)
	m.bus.Seal()
}

// Stop pauses the machine so it can be reconfigured.
func (m *Machine) Stop() {
	m.bus.Unseal()
	m.running.Store(false)
}

// Reconfigure switches machine type. Devices attached to regions the new
// variant lacks stay registered but are not mapped.
func (m *Machine) Reconfigure(cfg Config) error {
	if m.running.Load() {
		return fmt.Errorf("reconfigure to %v: %w", cfg.Variant, ErrRunning)
	}
	m.cfg = cfg
	g := m.clocks.Select(cfg.Variant, cfg.Video)
	m.log.Info("machine reconfigured", "variant", cfg.Variant.String(), "video", cfg.Video.String(), "mclk", g.Master())
	m.rebuild()
	return nil
}

// Attach binds device handlers to a named board region. A nil handler keeps
// the region's default for that direction.
func (m *Machine) Attach(region string, read, write iomem.Handler) error {
	if m.running.Load() {
		return fmt.Errorf("attach %s: %w", region, ErrRunning)
	}
	if _, ok := m.region(region); !ok {
		return fmt.Errorf("attach %s on %v: %w", region, m.cfg.Variant, ErrUnknownRegion)
	}
	m.attach[region] = binding{read: read, write: write}
	m.rebuild()
	return nil
}

// Detach restores a region's default handlers.
func (m *Machine) Detach(region string) error {
	if m.running.Load() {
		return fmt.Errorf("detach %s: %w", region, ErrRunning)
	}
	delete(m.attach, region)
	m.rebuild()
	return nil
}

// AddSpan maps a span outside the board map, for expansion hardware.
func (m *Machine) AddSpan(s iomem.Span) error {
	if m.running.Load() {
		return fmt.Errorf("add span %s: %w", s.Name, ErrRunning)
	}
	m.extra = append(m.extra, s)
	m.rebuild()
	return nil
}

// Reset clears the register image and resets attached devices.
func (m *Machine) Reset() {
	m.bus.Reset()
}

// Close releases attached devices that hold resources, such as Lua states.
func (m *Machine) Close() {
	for _, b := range m.attach {
		closeHandler(b.read)
		closeHandler(b.write)
	}
	for _, s := range m.extra {
		closeHandler(s.Read)
		closeHandler(s.Write)
	}
}

func closeHandler(h iomem.Handler) {
	if c, ok := h.(interface{ Close() }); ok {
		c.Close()
	}
}

// Spans returns the spans of the installed dispatch table.
func (m *Machine) Spans() []iomem.Span {
	return m.bus.Table().Spans()
}

func (m *Machine) region(name string) (Region, bool) {
	return findRegion(m.cfg.Variant, name)
}

func findRegion(v clocks.Variant, name string) (Region, bool) {
	for _, r := range Layout(v) {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

func (m *Machine) rebuild() {
	m.bus.Install(m.buildTable())
}

func (m *Machine) buildTable() *iomem.Table {
	var spans []iomem.Span
	for _, r := range Layout(m.cfg.Variant) {
		def := defaultHandler(r.Kind)
		s := iomem.Span{Name: r.Name, Start: r.Start, Length: r.Length, Read: def, Write: def}
		if b, ok := m.attach[r.Name]; ok {
			if b.read != nil {
				s.Read = b.read
			}
			if b.write != nil {
				s.Write = b.write
			}
		}
		spans = append(spans, s)
	}
	for name := range m.attach {
		if _, ok := m.region(name); !ok {
			m.log.Warn("attached device has no region on this variant", "region", name, "variant", m.cfg.Variant.String())
		}
	}
	spans = append(spans, m.extra...)
	return iomem.Build(m.cfg.window(), spans, m.log)
}
