// snapshot.go - Register image snapshots

package iomem

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the saved state of an I/O window's register image.
type Snapshot struct {
	Base uint32 `cbor:"1,keyasint"`
	Size uint32 `cbor:"2,keyasint"`
	Regs []byte `cbor:"3,keyasint"`
}

var snapEncMode cbor.EncMode

func init() {
	var err error
	snapEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}
}

// Snapshot encodes the register image. Handler state is not included;
// devices save their own.
func (b *Bus) Snapshot() ([]byte, error) {
	regs := make([]byte, len(b.regs.b))
	copy(regs, b.regs.b)
	return snapEncMode.Marshal(Snapshot{
		Base: b.table.window.Base,
		Size: b.table.window.Size,
		Regs: regs,
	})
}

// Restore loads a register image produced by Snapshot. The snapshot must
// come from a bus with the same window.
func (b *Bus) Restore(data []byte) error {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode I/O snapshot: %w", err)
	}
	w := b.table.window
	if snap.Base != w.Base || snap.Size != w.Size {
		return fmt.Errorf("I/O snapshot window %s+%#x does not match bus window %s+%#x",
			hexAddr(snap.Base), snap.Size, hexAddr(w.Base), w.Size)
	}
	if uint32(len(snap.Regs)) != snap.Size {
		return fmt.Errorf("I/O snapshot holds %d bytes, want %d", len(snap.Regs), snap.Size)
	}
	copy(b.regs.b, snap.Regs)
	return nil
}
