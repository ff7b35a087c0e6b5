// handler.go - Handler capability interface, access context and built-in handlers

package iomem

import (
	"fmt"
	"log/slog"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Direction of a bus access.
type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

// Access widths accepted by the bus.
const (
	Byte = 1
	Word = 2
	Long = 4
)

// Context describes the access being dispatched. Handlers receive it by
// pointer for the duration of one call and must not retain it.
type Context struct {
	Addr   uint32 // absolute address of the first byte
	Offset uint32 // window-relative offset of the first byte
	Width  int
	Dir    Direction
	Index  int    // byte of the access currently being dispatched
	PC     uint32 // program counter of the CPU, 0 when unknown

	// Regs is the register image. On writes it already holds the written
	// bytes; on reads handlers store the value the CPU will see.
	Regs *Registers

	unhandled int
	log       *slog.Logger
}

func (c *Context) logger() *slog.Logger {
	if c.log == nil {
		return discardLogger
	}
	return c.log
}

// Cur returns the window-relative offset of the byte being dispatched.
func (c *Context) Cur() uint32 { return c.Offset + uint32(c.Index) }

// Handler serves the slots of a device span for one direction. A span's read
// handler only ever sees Read calls and its write handler only Write calls,
// so one value may serve both directions.
type Handler interface {
	Read(ctx *Context)
	Write(ctx *Context)
}

// Resetter is implemented by handlers holding state outside the register
// image. Reset may be called more than once per bus reset.
type Resetter interface {
	Reset()
}

// HandlerFuncs adapts plain functions to Handler. Nil functions do nothing.
type HandlerFuncs struct {
	OnRead  func(ctx *Context)
	OnWrite func(ctx *Context)
}

func (h *HandlerFuncs) Read(ctx *Context) {
	if h.OnRead != nil {
		h.OnRead(ctx)
	}
}

func (h *HandlerFuncs) Write(ctx *Context) {
	if h.OnWrite != nil {
		h.OnWrite(ctx)
	}
}

type voidHandler struct{}

// Void marks slots that exist on the board but have nothing behind them.
// Reads float to 0xFF and writes are dropped. Void slots do not fault.
var Void Handler = voidHandler{}

func (voidHandler) Read(ctx *Context) {
	ctx.Regs.SetByte(ctx.Cur(), 0xFF)
	ctx.logger().Debug("void read", "addr", hexAddr(ctx.Addr+uint32(ctx.Index)), "pc", hexAddr(ctx.PC))
}

func (voidHandler) Write(ctx *Context) {
	ctx.logger().Debug("void write", "addr", hexAddr(ctx.Addr+uint32(ctx.Index)), "pc", hexAddr(ctx.PC))
}

type plainHandler struct{}

// Plain claims slots without side effects: the CPU reads back what the
// register image holds.
var Plain Handler = plainHandler{}

func (plainHandler) Read(*Context)  {}
func (plainHandler) Write(*Context) {}

// busErrorHandler is installed in every slot no span claims.
type busErrorHandler struct{}

var busError Handler = busErrorHandler{}

func (busErrorHandler) Read(ctx *Context) {
	ctx.unhandled++
	ctx.logger().Debug("bus error read", "addr", hexAddr(ctx.Addr+uint32(ctx.Index)), "width", ctx.Width, "pc", hexAddr(ctx.PC))
}

func (busErrorHandler) Write(ctx *Context) {
	ctx.unhandled++
	ctx.logger().Debug("bus error write", "addr", hexAddr(ctx.Addr+uint32(ctx.Index)), "width", ctx.Width, "pc", hexAddr(ctx.PC))
}

func hexAddr(a uint32) string {
	return fmt.Sprintf("$%06X", a)
}
