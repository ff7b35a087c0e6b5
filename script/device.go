// device.go - Lua scripted device handlers

/*
A scripted device is a Lua chunk that defines any of these globals:

    on_read(offset, width)   called before the CPU reads; a returned number is
                             stored at offset in the register image
    on_write(offset, width)  called after the written bytes reach the image
    on_reset()               called when the bus resets

offset is window-relative. Inside callbacks the script can use:

    peek(offset)          read a byte of the register image
    poke(offset, value)   write a byte of the register image
    log(message)          emit a diagnostic line

Lua states are not safe for concurrent use; a Device must only be driven from
the emulation goroutine, which is where the bus runs anyway.
*/

package script

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/intuitionamiga/iocore/iomem"
)

// Device runs Lua callbacks for bus accesses.
type Device struct {
	name  string
	state *lua.LState
	log   *slog.Logger

	onRead  *lua.LFunction
	onWrite *lua.LFunction
	onReset *lua.LFunction

	regs   *iomem.Registers // bound for the duration of a callback
	closed bool
}

// New compiles and runs source, then binds its callbacks. The chunk runs
// once, so top-level code can initialise device state.
func New(name, source string, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Device{
		name:  name,
		state: lua.NewState(),
		log:   logger.With("device", name),
	}

	d.state.SetGlobal("peek", d.state.NewFunction(d.luaPeek))
	d.state.SetGlobal("poke", d.state.NewFunction(d.luaPoke))
	d.state.SetGlobal("log", d.state.NewFunction(d.luaLog))

	if err := d.state.DoString(source); err != nil {
		d.state.Close()
		return nil, fmt.Errorf("load script for %s: %w", name, err)
	}

	d.onRead = d.callback("on_read")
	d.onWrite = d.callback("on_write")
	d.onReset = d.callback("on_reset")
	if d.onRead == nil && d.onWrite == nil {
		d.state.Close()
		return nil, fmt.Errorf("script for %s defines neither on_read nor on_write", name)
	}
	return d, nil
}

func (d *Device) callback(name string) *lua.LFunction {
	fn, _ := d.state.GetGlobal(name).(*lua.LFunction)
	return fn
}

func (d *Device) Name() string { return d.name }

// Close releases the Lua state. Closing twice is harmless.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.state.Close()
}

func (d *Device) Read(ctx *iomem.Context) {
	if d.onRead == nil {
		return
	}
	ret, ok := d.call(ctx, d.onRead, 1, lua.LNumber(ctx.Cur()), lua.LNumber(ctx.Width))
	if !ok {
		return
	}
	if n, isNum := ret.(lua.LNumber); isNum {
		ctx.Regs.SetByte(ctx.Cur(), uint8(int64(n)))
	}
}

func (d *Device) Write(ctx *iomem.Context) {
	if d.onWrite == nil {
		return
	}
	d.call(ctx, d.onWrite, 0, lua.LNumber(ctx.Cur()), lua.LNumber(ctx.Width))
}

// Reset runs on_reset if the script defines it.
func (d *Device) Reset() {
	if d.onReset == nil {
		return
	}
	if err := d.state.CallByParam(lua.P{Fn: d.onReset, NRet: 0, Protect: true}); err != nil {
		d.log.Error("on_reset failed", "err", err)
	}
}

// call runs fn with the register image bound. Script errors are logged and
// otherwise ignored: a broken script must not stop the emulated CPU.
func (d *Device) call(ctx *iomem.Context, fn *lua.LFunction, nret int, args ...lua.LValue) (lua.LValue, bool) {
	d.regs = ctx.Regs
	defer func() { d.regs = nil }()

	if err := d.state.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		d.log.Error("script callback failed", "dir", ctx.Dir.String(), "offset", ctx.Cur(), "pc", ctx.PC, "err", err)
		return lua.LNil, false
	}
	if nret == 0 {
		return lua.LNil, true
	}
	ret := d.state.Get(-1)
	d.state.Pop(1)
	return ret, true
}

func (d *Device) checkOffset(L *lua.LState) uint32 {
	off := L.CheckInt(1)
	if d.regs == nil {
		L.RaiseError("register image is only available inside on_read and on_write")
	}
	if off < 0 || off >= d.regs.Len() {
		L.ArgError(1, fmt.Sprintf("offset %d outside register image", off))
	}
	return uint32(off)
}

func (d *Device) luaPeek(L *lua.LState) int {
	off := d.checkOffset(L)
	L.Push(lua.LNumber(d.regs.Byte(off)))
	return 1
}

func (d *Device) luaPoke(L *lua.LState) int {
	off := d.checkOffset(L)
	v := L.CheckInt(2)
	d.regs.SetByte(off, uint8(v))
	return 0
}

func (d *Device) luaLog(L *lua.LState) int {
	d.log.Info(L.CheckString(1))
	return 0
}
