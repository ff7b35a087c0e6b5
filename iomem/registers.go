// registers.go - Backing register image of the I/O window

package iomem

import "encoding/binary"

// Window is the address range reserved for device registers.
type Window struct {
	Base uint32
	Size uint32
}

// DefaultWindow covers $FF8000-$FFFFFF.
var DefaultWindow = Window{Base: 0xFF8000, Size: 0x8000}

// Contains reports whether addr lies inside the window.
func (w Window) Contains(addr uint32) bool {
	return addr-w.Base < w.Size
}

// End returns the first address past the window.
func (w Window) End() uint32 { return w.Base + w.Size }

// Registers is the byte image behind the I/O window, addressed by
// window-relative offset. Multi-byte values are big-endian.
type Registers struct {
	b []byte
}

func newRegisters(size uint32) Registers {
	return Registers{b: make([]byte, size)}
}

func (r *Registers) Len() int { return len(r.b) }

func (r *Registers) Byte(off uint32) uint8 { return r.b[off] }

func (r *Registers) SetByte(off uint32, v uint8) { r.b[off] = v }

func (r *Registers) Word(off uint32) uint16 {
	return binary.BigEndian.Uint16(r.b[off : off+2])
}

func (r *Registers) SetWord(off uint32, v uint16) {
	binary.BigEndian.PutUint16(r.b[off:off+2], v)
}

func (r *Registers) Long(off uint32) uint32 {
	return binary.BigEndian.Uint32(r.b[off : off+4])
}

func (r *Registers) SetLong(off uint32, v uint32) {
	binary.BigEndian.PutUint32(r.b[off:off+4], v)
}

func (r *Registers) load(off uint32, width int) uint32 {
	switch width {
	case Byte:
		return uint32(r.b[off])
	case Word:
		return uint32(r.Word(off))
	}
	return r.Long(off)
}

func (r *Registers) store(off uint32, width int, v uint32) {
	switch width {
	case Byte:
		r.b[off] = uint8(v)
	case Word:
		r.SetWord(off, uint16(v))
	default:
		r.SetLong(off, v)
	}
}

func (r *Registers) clear() {
	for i := range r.b {
		r.b[i] = 0
	}
}
