// profile.go - YAML machine profiles

package machine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
	"github.com/intuitionamiga/iocore/script"
)

/*
A profile names a machine type and the devices to attach:

	machine: studio
	video: pal
	window:
	  base: 0xFF8000
	  size: 0x8000
	devices:
	  - region: psg
	    read: script
	    write: script
	    script: psg.lua
	  - name: cartridge
	    start: 0x4000
	    length: 0x100
	    read: void
	    write: plain

A device either names a board region or gives its own name, start and length.
Handler kinds are plain (the default), void or script. Script paths are relative to
the profile file.
*/

// MaxWindowSize bounds the I/O window a profile may declare. The dispatch
// tables hold two slots per byte of window.
const MaxWindowSize = 16 << 20

// Profile is the decoded form of a profile file.
type Profile struct {
	Machine string          `yaml:"machine"`
	Video   string          `yaml:"video"`
	Window  *ProfileWindow  `yaml:"window,omitempty"`
	Devices []ProfileDevice `yaml:"devices,omitempty"`

	path string
}

type ProfileWindow struct {
	Base uint32 `yaml:"base"`
	Size uint32 `yaml:"size"`
}

type ProfileDevice struct {
	Region string `yaml:"region,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Start  uint32 `yaml:"start,omitempty"`
	Length uint32 `yaml:"length,omitempty"`
	Read   string `yaml:"read,omitempty"`
	Write  string `yaml:"write,omitempty"`
	Script string `yaml:"script,omitempty"`
	Source string `yaml:"source,omitempty"`
}

func (d ProfileDevice) label() string {
	if d.Region != "" {
		return d.Region
	}
	return d.Name
}

// ProfileError reports a profile that cannot be loaded or applied.
type ProfileError struct {
	File    string
	Message string
	Cause   error
}

func (e *ProfileError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProfileError) Unwrap() error { return e.Cause }

// ParseProfile decodes and validates a profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &ProfileError{Message: "failed to parse YAML", Cause: err}
	}
	if p.Machine == "" {
		return nil, &ProfileError{Message: "machine is required"}
	}
	if _, err := p.Config(); err != nil {
		return nil, &ProfileError{Message: "invalid machine", Cause: err}
	}
	if w := p.Window; w != nil {
		switch {
		case w.Size == 0:
			return nil, &ProfileError{Message: "window size is required"}
		case w.Size > MaxWindowSize:
			return nil, &ProfileError{Message: fmt.Sprintf("window size %#x exceeds %#x", w.Size, MaxWindowSize)}
		case uint64(w.Base)+uint64(w.Size) > 1<<32:
			return nil, &ProfileError{Message: fmt.Sprintf("window %#x+%#x wraps the address space", w.Base, w.Size)}
		}
	}
	for i, d := range p.Devices {
		switch {
		case d.Region == "" && d.Name == "":
			return nil, &ProfileError{Message: fmt.Sprintf("device %d needs a region or a name", i)}
		case d.Region != "" && d.Length != 0:
			return nil, &ProfileError{Message: fmt.Sprintf("device %s: region devices take their range from the board map", d.Region)}
		case d.Region == "" && d.Length == 0:
			return nil, &ProfileError{Message: fmt.Sprintf("device %s: length is required", d.Name)}
		}
		for _, k := range []string{d.Read, d.Write} {
			if _, ok := handlerKinds[strings.ToLower(k)]; !ok {
				return nil, &ProfileError{Message: fmt.Sprintf("device %s: unknown handler kind %q", d.label(), k)}
			}
		}
		if d.uses("script") && d.Script == "" && d.Source == "" {
			return nil, &ProfileError{Message: fmt.Sprintf("device %s: script handler without script or source", d.label())}
		}
	}
	return &p, nil
}

// LoadProfile reads a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ProfileError{File: path, Message: "failed to read file", Cause: err}
	}
	p, err := ParseProfile(data)
	if err != nil {
		if pe, ok := err.(*ProfileError); ok {
			pe.File = path
		}
		return nil, err
	}
	p.path = path
	return p, nil
}

// Config resolves the machine type.
func (p *Profile) Config() (Config, error) {
	var cfg Config
	v, err := clocks.ParseVariant(p.Machine)
	if err != nil {
		return cfg, err
	}
	cfg.Variant = v
	if p.Video != "" {
		if cfg.Video, err = clocks.ParseVideoStandard(p.Video); err != nil {
			return cfg, err
		}
	}
	if p.Window != nil {
		cfg.Window = iomem.Window{Base: p.Window.Base, Size: p.Window.Size}
	}
	return cfg, nil
}

var handlerKinds = map[string]iomem.Handler{
	"":       iomem.Plain,
	"plain":  iomem.Plain,
	"void":   iomem.Void,
	"script": nil,
}

func (d ProfileDevice) uses(kind string) bool {
	return strings.EqualFold(d.Read, kind) || strings.EqualFold(d.Write, kind)
}

// Apply reconfigures m to the profile and attaches its devices. The machine
// must be stopped. Every device is built before the machine changes, so a
// failing profile leaves m as it was.
func (p *Profile) Apply(m *Machine, logger *slog.Logger) error {
	if logger == nil {
		logger = m.log
	}
	cfg, err := p.Config()
	if err != nil {
		return &ProfileError{File: p.path, Message: "invalid machine", Cause: err}
	}
	if m.Running() {
		return fmt.Errorf("apply profile %s: %w", p.path, ErrRunning)
	}

	type built struct {
		dev         ProfileDevice
		read, write iomem.Handler
	}
	var devs []built
	release := func() {
		for _, b := range devs {
			closeHandler(b.read)
			closeHandler(b.write)
		}
	}
	for _, d := range p.Devices {
		if d.Region != "" {
			if _, ok := findRegion(cfg.Variant, d.Region); !ok {
				release()
				return fmt.Errorf("device %s: %w on %v", d.label(), ErrUnknownRegion, cfg.Variant)
			}
		}
		read, write, err := p.handlers(d, logger)
		if err != nil {
			release()
			return err
		}
		devs = append(devs, built{d, read, write})
	}

	if err := m.Reconfigure(cfg); err != nil {
		release()
		return err
	}
	for i, b := range devs {
		var err error
		if b.dev.Region != "" {
			err = m.Attach(b.dev.Region, b.read, b.write)
		} else {
			err = m.AddSpan(iomem.Span{Name: b.dev.Name, Start: b.dev.Start, Length: b.dev.Length, Read: b.read, Write: b.write})
		}
		if err != nil {
			devs = devs[i:]
			release()
			return fmt.Errorf("device %s: %w", b.dev.label(), err)
		}
		logger.Info("device attached", "device", b.dev.label(), "read", b.dev.Read, "write", b.dev.Write)
	}
	return nil
}

func (p *Profile) handlers(d ProfileDevice, logger *slog.Logger) (read, write iomem.Handler, err error) {
	read = handlerKinds[strings.ToLower(d.Read)]
	write = handlerKinds[strings.ToLower(d.Write)]
	if !d.uses("script") {
		return read, write, nil
	}

	src := d.Source
	if d.Script != "" {
		path := d.Script
		if !filepath.IsAbs(path) && p.path != "" {
			path = filepath.Join(filepath.Dir(p.path), path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, &ProfileError{File: path, Message: "failed to read script", Cause: err}
		}
		src = string(data)
	}
	dev, err := script.New(d.label(), src, logger)
	if err != nil {
		return nil, nil, &ProfileError{File: p.path, Message: "device " + d.label(), Cause: err}
	}
	if strings.EqualFold(d.Read, "script") {
		read = dev
	}
	if strings.EqualFold(d.Write, "script") {
		write = dev
	}
	return read, write, nil
}

// NewFromProfile builds a stopped machine from a profile file.
func NewFromProfile(path string, opts ...Option) (*Machine, error) {
	p, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}
	cfg, _ := p.Config()
	m := New(cfg, opts...)
	if err := p.Apply(m, nil); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
