// ioview.go - I/O map viewer for monitors and the command line

package iomem

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Region is one run of the I/O window with a single owner per direction.
type Region struct {
	Name   string
	Start  uint32 // absolute address
	Length uint32
	Access string // "RW", "RO", "WO", or "--" when unclaimed
	Void   bool
}

func accessMode(read, write bool) string {
	switch {
	case read && write:
		return "RW"
	case read:
		return "RO"
	case write:
		return "WO"
	}
	return "--"
}

// Describe splits the window into runs where the read and write owners do
// not change, in address order.
func Describe(t *Table) []Region {
	var out []Region
	var lastR, lastW int32
	for off := uint32(0); off < t.window.Size; off++ {
		r, w := owner(t.read[off].key), owner(t.write[off].key)
		if n := len(out); n > 0 && r == lastR && w == lastW {
			out[n-1].Length++
			continue
		}
		lastR, lastW = r, w

		name := ""
		switch {
		case r >= 0:
			name = t.ownerName(r)
		case w >= 0:
			name = t.ownerName(w)
		case isVoidKey(r) || isVoidKey(w):
			name = "void"
		}
		out = append(out, Region{
			Name:   name,
			Start:  t.window.Base + off,
			Length: 1,
			Access: accessMode(!isBusErrorKey(r), !isBusErrorKey(w)),
			Void:   isVoidKey(r) || isVoidKey(w),
		})
	}
	return out
}

// WriteMap prints the I/O map as an aligned table. Unclaimed runs are
// listed only when all is set.
func WriteMap(w io.Writer, t *Table, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tSIZE\tACCESS\tDEVICE")
	for _, r := range Describe(t) {
		if r.Access == "--" && !all {
			continue
		}
		name := r.Name
		if name == "" {
			name = "(bus error)"
		}
		fmt.Fprintf(tw, "$%06X\t$%06X\t%d\t%s\t%s\n", r.Start, r.Start+r.Length-1, r.Length, r.Access, name)
	}
	return tw.Flush()
}
