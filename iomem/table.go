// table.go - Dispatch table builder for the I/O window

package iomem

import (
	"fmt"
	"log/slog"
	"sort"
)

// Span is a contiguous range of window-relative offsets owned by one device.
// A nil handler leaves that direction unclaimed, so accesses fault there.
type Span struct {
	Name   string
	Start  uint32
	Length uint32
	Read   Handler
	Write  Handler
}

// End returns the first offset past the span.
func (s Span) End() uint32 { return s.Start + s.Length }

// Slot keys. Non-negative keys index Table.spans; the built-in handlers use
// parity-tagged negative keys so adjacent unclaimed bytes dispatch separately.
const (
	keyBusErrorEven int32 = -1 - iota
	keyBusErrorOdd
	keyVoidEven
	keyVoidOdd
)

func isBusErrorKey(k int32) bool { return k == keyBusErrorEven || k == keyBusErrorOdd }
func isVoidKey(k int32) bool     { return k == keyVoidEven || k == keyVoidOdd }

// owner folds the parity tags so a run of unclaimed or void bytes reads as
// one owner.
func owner(k int32) int32 {
	switch {
	case isBusErrorKey(k):
		return keyBusErrorEven
	case isVoidKey(k):
		return keyVoidEven
	}
	return k
}

type slot struct {
	h   Handler
	key int32
}

type ownerRange struct {
	start, end uint32
	key        int32
}

// Table maps every offset of the window to one read and one write handler.
// It is immutable once built; reconfiguration builds a new one.
type Table struct {
	window   Window
	spans    []Span
	read     []slot
	write    []slot
	ranges   [2][]ownerRange
	overlaps int
}

type collision struct {
	prev        int32
	first, last uint32
	dirs        [2]bool
}

// Build fills the window with the bus error handler and overlays the spans in
// order. Spans are expected to be disjoint: a span landing on slots another
// span already owns is logged once per previous owner and wins.
func Build(w Window, spans []Span, logger *slog.Logger) *Table {
	if logger == nil {
		logger = discardLogger
	}

	t := &Table{
		window: w,
		read:   make([]slot, w.Size),
		write:  make([]slot, w.Size),
	}
	for off := range t.read {
		key := keyBusErrorEven
		if off&1 != 0 {
			key = keyBusErrorOdd
		}
		t.read[off] = slot{busError, key}
		t.write[off] = slot{busError, key}
	}

	for _, s := range spans {
		if s.Length == 0 {
			logger.Warn("ignoring empty I/O span", "span", s.Name, "start", hexAddr(w.Base+s.Start))
			continue
		}
		if s.Start >= w.Size {
			logger.Warn("I/O span outside window", "span", s.Name, "start", hexAddr(w.Base+s.Start), "window_end", hexAddr(w.End()))
			continue
		}
		if s.End() > w.Size || s.End() < s.Start {
			logger.Warn("clipping I/O span to window", "span", s.Name, "start", hexAddr(w.Base+s.Start), "length", s.Length)
			s.Length = w.Size - s.Start
		}

		idx := int32(len(t.spans))
		t.spans = append(t.spans, s)

		var hits []*collision
		hits = t.install(t.read, s, idx, s.Read, Read, hits)
		hits = t.install(t.write, s, idx, s.Write, Write, hits)
		for _, c := range hits {
			t.overlaps++
			logger.Warn("I/O span overlaps an earlier registration",
				"span", s.Name,
				"previous", t.ownerName(c.prev),
				"access", accessMode(c.dirs[Read], c.dirs[Write]),
				"from", hexAddr(w.Base+c.first),
				"to", hexAddr(w.Base+c.last))
		}
	}

	t.ranges[Read] = coalesce(t.read)
	t.ranges[Write] = coalesce(t.write)
	return t
}

func (t *Table) install(slots []slot, s Span, idx int32, h Handler, dir Direction, hits []*collision) []*collision {
	if h == nil {
		return hits
	}
	_, void := h.(voidHandler)

	for off := s.Start; off < s.End(); off++ {
		if cur := slots[off].key; !isBusErrorKey(cur) {
			hits = noteCollision(hits, owner(cur), off, dir)
		}

		key := idx
		if void {
			key = keyVoidEven
			if off&1 != 0 {
				key = keyVoidOdd
			}
		}
		slots[off] = slot{h, key}
	}
	return hits
}

func noteCollision(hits []*collision, prev int32, off uint32, dir Direction) []*collision {
	for _, c := range hits {
		if c.prev != prev {
			continue
		}
		c.first = min(c.first, off)
		c.last = max(c.last, off)
		c.dirs[dir] = true
		return hits
	}
	c := &collision{prev: prev, first: off, last: off}
	c.dirs[dir] = true
	return append(hits, c)
}

func coalesce(slots []slot) []ownerRange {
	var out []ownerRange
	for i, s := range slots {
		off := uint32(i)
		k := owner(s.key)
		if n := len(out); n > 0 && out[n-1].key == k && out[n-1].end == off {
			out[n-1].end++
			continue
		}
		out = append(out, ownerRange{start: off, end: off + 1, key: k})
	}
	return out
}

func (t *Table) ownerName(k int32) string {
	switch {
	case isVoidKey(k):
		return "void"
	case isBusErrorKey(k):
		return "unclaimed"
	}
	if name := t.spans[k].Name; name != "" {
		return name
	}
	return fmt.Sprintf("span#%d", k)
}

// Window returns the address window the table covers.
func (t *Table) Window() Window { return t.window }

// Spans returns the spans in registration order, clipped to the window.
func (t *Table) Spans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// Overlaps returns the number of overlap warnings raised while building.
func (t *Table) Overlaps() int { return t.overlaps }

// Handler returns the handler installed at a window offset, and whether a
// span claims it. Unclaimed offsets report the built-in bus error handler.
func (t *Table) Handler(off uint32, dir Direction) (Handler, bool) {
	if off >= t.window.Size {
		return nil, false
	}
	s := t.slots(dir)[off]
	return s.h, !isBusErrorKey(s.key)
}

// SpanAt returns the span owning a window offset for one direction.
// Void slots and unclaimed slots report false.
func (t *Table) SpanAt(off uint32, dir Direction) (Span, bool) {
	r := t.ranges[dir]
	i := sort.Search(len(r), func(i int) bool { return r[i].end > off })
	if i == len(r) || r[i].start > off || r[i].key < 0 {
		return Span{}, false
	}
	return t.spans[r[i].key], true
}

func (t *Table) slots(dir Direction) []slot {
	if dir == Write {
		return t.write
	}
	return t.read
}
