// bus.go - I/O window bus for memory-mapped device registers

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
bus.go - I/O Bus

The Bus decodes CPU accesses that land in the I/O window into calls on the
device handlers installed by Build. It owns the dispatch table and the register
image behind the window, so several independent buses can coexist.

Dispatch rules:

    Accesses are 1, 2 or 4 bytes wide and big-endian.
    Writes store the raw bytes in the register image before any handler runs,
    so handlers observe the value just written. Reads run the handlers first
    and then return the bytes the handlers left in the image.
    The bytes of an access are walked in ascending order. The first byte's
    handler always runs; a later byte's handler runs only when that byte is
    owned by a different span than the byte before it, so a multi-byte
    register is serviced once while an access straddling two registers
    reaches both.
    Every call on the built-in bus error handler counts one unhandled byte.
    The access faults only if every handler invoked was the bus error
    handler. An access that is partly claimed completes normally, as on the
    real hardware.

Concurrency:

    Access never blocks and takes no locks. Install swaps the dispatch table
    and must not run concurrently with Access; Seal turns a late Install into
    a panic so the mistake is caught instead of racing.
*/

package iomem

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
)

// Bus dispatches CPU accesses in the I/O window.
type Bus struct {
	table *Table
	regs  Registers
	log   *slog.Logger
	pc    func() uint32

	// Sealed while the CPU is running; Install panics.
	sealed atomic.Bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger for bus error and void access diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// WithPCReader installs a callback reporting the CPU program counter, used
// for diagnostics and BusError.PC.
func WithPCReader(fn func() uint32) Option {
	return func(b *Bus) { b.pc = fn }
}

// NewBus returns a bus serving the given dispatch table.
func NewBus(t *Table, opts ...Option) *Bus {
	b := &Bus{log: discardLogger}
	for _, opt := range opts {
		opt(b)
	}
	b.table = t
	b.regs = newRegisters(t.window.Size)
	return b
}

// SetPCReader replaces the program counter callback.
func (b *Bus) SetPCReader(fn func() uint32) {
	b.pc = fn
}

// Seal prevents further Install calls until Unseal.
func (b *Bus) Seal() { b.sealed.Store(true) }

func (b *Bus) Unseal() { b.sealed.Store(false) }

func (b *Bus) Sealed() bool { return b.sealed.Load() }

// Install replaces the dispatch table. The register image is kept when the
// window is unchanged and reallocated otherwise.
func (b *Bus) Install(t *Table) {
	if b.sealed.Load() {
		panic(fmt.Sprintf("iomem: Install called while bus is sealed (window %s-%s)", hexAddr(t.window.Base), hexAddr(t.window.End()-1)))
	}
	if t.window != b.table.window {
		b.regs = newRegisters(t.window.Size)
	}
	b.table = t
}

func (b *Bus) Table() *Table { return b.table }

func (b *Bus) Window() Window { return b.table.window }

// Registers exposes the register image for device models.
func (b *Bus) Registers() *Registers { return &b.regs }

func (b *Bus) currentPC() uint32 {
	if b.pc == nil {
		return 0
	}
	return b.pc()
}

// Access performs one CPU access of width 1, 2 or 4 at an absolute address.
// For writes value holds the data; reads return it. A *BusError is returned
// when the access faults. Any other width panics.
func (b *Bus) Access(addr uint32, width int, dir Direction, value uint32) (uint32, error) {
	if width != Byte && width != Word && width != Long {
		panic(fmt.Sprintf("iomem: invalid access width %d at %s", width, hexAddr(addr)))
	}

	t := b.table
	off := addr - t.window.Base
	if uint64(off)+uint64(width) > uint64(t.window.Size) {
		pc := b.currentPC()
		b.log.Debug("access outside I/O window", "addr", hexAddr(addr), "width", width, "dir", dir.String(), "pc", hexAddr(pc))
		return 0, &BusError{Addr: addr, Width: width, Dir: dir, PC: pc, OutOfRange: true}
	}

	ctx := Context{
		Addr:   addr,
		Offset: off,
		Width:  width,
		Dir:    dir,
		PC:     b.currentPC(),
		Regs:   &b.regs,
		log:    b.log,
	}

	slots := t.read
	if dir == Write {
		slots = t.write
		b.regs.store(off, width, value)
	}

	var prev int32
	for i := 0; i < width; i++ {
		s := slots[off+uint32(i)]
		if i > 0 && s.key == prev {
			continue
		}
		prev = s.key
		ctx.Index = i
		if dir == Write {
			s.h.Write(&ctx)
		} else {
			s.h.Read(&ctx)
		}
	}

	if ctx.unhandled == width {
		return 0, &BusError{Addr: addr, Width: width, Dir: dir, PC: ctx.PC}
	}
	if dir == Write {
		return value, nil
	}
	return b.regs.load(off, width), nil
}

func (b *Bus) Read8(addr uint32) (uint8, error) {
	v, err := b.Access(addr, Byte, Read, 0)
	return uint8(v), err
}

func (b *Bus) Read16(addr uint32) (uint16, error) {
	v, err := b.Access(addr, Word, Read, 0)
	return uint16(v), err
}

func (b *Bus) Read32(addr uint32) (uint32, error) {
	return b.Access(addr, Long, Read, 0)
}

func (b *Bus) Write8(addr uint32, value uint8) error {
	_, err := b.Access(addr, Byte, Write, uint32(value))
	return err
}

func (b *Bus) Write16(addr uint32, value uint16) error {
	_, err := b.Access(addr, Word, Write, uint32(value))
	return err
}

func (b *Bus) Write32(addr uint32, value uint32) error {
	_, err := b.Access(addr, Long, Write, value)
	return err
}

// Peek reads the register image without running handlers. It is meant for
// debuggers and never faults; ok is false outside the window.
func (b *Bus) Peek(addr uint32) (uint8, bool) {
	off := addr - b.table.window.Base
	if off >= b.table.window.Size {
		return 0, false
	}
	return b.regs.Byte(off), true
}

// Poke writes the register image without running handlers.
func (b *Bus) Poke(addr uint32, value uint8) bool {
	off := addr - b.table.window.Base
	if off >= b.table.window.Size {
		return false
	}
	b.regs.SetByte(off, value)
	return true
}

// Reset clears the register image and resets every span handler that
// implements Resetter.
func (b *Bus) Reset() {
	b.regs.clear()
	for _, s := range b.table.spans {
		if r, ok := s.Read.(Resetter); ok {
			r.Reset()
		}
		if r, ok := s.Write.(Resetter); ok && !sameHandler(s.Read, s.Write) {
			r.Reset()
		}
	}
}

// sameHandler reports whether a and b are the same handler value. Handlers
// of uncomparable types are never the same.
func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}
