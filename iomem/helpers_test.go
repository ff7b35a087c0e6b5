// helpers_test.go - Shared test handlers for the I/O bus

package iomem

import (
	"bytes"
	"log/slog"

	"github.com/stretchr/testify/mock"
)

// recorder counts calls and remembers the offsets it was dispatched for.
type recorder struct {
	reads  []uint32
	writes []uint32
	seen   []uint8 // register image byte visible during each write
	reset  int
	onRead func(ctx *Context)
}

func (r *recorder) Read(ctx *Context) {
	r.reads = append(r.reads, ctx.Cur())
	if r.onRead != nil {
		r.onRead(ctx)
	}
}

func (r *recorder) Write(ctx *Context) {
	r.writes = append(r.writes, ctx.Cur())
	r.seen = append(r.seen, ctx.Regs.Byte(ctx.Cur()))
}

func (r *recorder) Reset() { r.reset++ }

type mockHandler struct{ mock.Mock }

func (m *mockHandler) Read(ctx *Context)  { m.Called(ctx.Cur(), ctx.Width) }
func (m *mockHandler) Write(ctx *Context) { m.Called(ctx.Cur(), ctx.Width) }

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// flatWindow starts at zero so offsets and addresses coincide.
var flatWindow = Window{Base: 0, Size: 0x10000}

func span(name string, start, length uint32, h Handler) Span {
	return Span{Name: name, Start: start, Length: length, Read: h, Write: h}
}
