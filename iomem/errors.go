// errors.go - Bus fault reporting

package iomem

import (
	"errors"
	"fmt"
)

// ErrBusError matches every *BusError with errors.Is.
var ErrBusError = errors.New("bus error")

// BusError is returned for accesses that fall outside the I/O window or
// touch only unclaimed bytes. The CPU core turns it into its own bus error
// exception.
type BusError struct {
	Addr  uint32
	Width int
	Dir   Direction
	PC    uint32

	// OutOfRange is set when the access never reached the dispatch tables.
	OutOfRange bool
}

func (e *BusError) Error() string {
	where := "unclaimed"
	if e.OutOfRange {
		where = "outside I/O window"
	}
	return fmt.Sprintf("bus error: %s of %d byte(s) at $%06X (%s, pc=$%06X)", e.Dir, e.Width, e.Addr, where, e.PC)
}

func (e *BusError) Is(target error) bool {
	return target == ErrBusError
}
