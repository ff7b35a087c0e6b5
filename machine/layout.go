// layout.go - Board I/O register map per machine variant

/*
layout.go - Board I/O Map

Offsets are relative to the I/O window base ($FF8000).

Offset          Size    Region          Variants
---------------------------------------------------------------------------
$0001           1B      mmu             all
$0200-$020D     14B     video           all
$0240-$025F     32B     palette         all
$0260-$0261     2B      shifter         all
$0282-$02C3     66B     videl           Studio
$0400-$05FF     512B    tt-palette      Workstation
$0604-$060D     10B     dma             all
$0800-$08FF     256B    psg             all
$0900-$093F     64B     dma-sound       Enhanced, MegaEnhanced, Studio
$0A00-$0A3D     62B     blitter         Mega, Enhanced, MegaEnhanced, Studio
$0C80-$0C87     8B      scc             MegaEnhanced, Workstation, Studio
$0E21           1B      cache           MegaEnhanced
$1200-$1223     36B     joypad          Enhanced, MegaEnhanced, Studio
$2200-$2207     8B      dsp             Studio
$7A00-$7A3F     64B     mfp             all
$7A80-$7ABF     64B     mfp2            Workstation
$7C00-$7C07     8B      acia            all
$7C20-$7C3F     32B     rtc             Mega, MegaEnhanced

Void runs cover the gaps the hardware decodes but leaves unconnected, so
software probing them reads $FF instead of taking a bus error.
*/

package machine

import (
	"github.com/intuitionamiga/iocore/clocks"
	"github.com/intuitionamiga/iocore/iomem"
)

// RegionKind selects the handler a region gets before a device attaches.
type RegionKind int

const (
	KindPlain RegionKind = iota
	KindVoid
)

// Region is a named span of the board I/O map.
type Region struct {
	Name   string
	Start  uint32
	Length uint32
	Kind   RegionKind
}

type variantSet uint32

func only(vs ...clocks.Variant) variantSet {
	var s variantSet
	for _, v := range vs {
		s |= 1 << uint(v)
	}
	return s
}

const allVariants variantSet = 1<<6 - 1

type layoutEntry struct {
	Region
	variants variantSet
}

var boardLayout = []layoutEntry{
	{Region{"mmu", 0x0001, 1, KindPlain}, allVariants},
	{Region{"video", 0x0200, 0x0E, KindPlain}, allVariants},
	{Region{"video-gap", 0x020E, 0x32, KindVoid}, only(clocks.Standard, clocks.Mega)},
	{Region{"palette", 0x0240, 0x20, KindPlain}, allVariants},
	{Region{"shifter", 0x0260, 2, KindPlain}, allVariants},
	{Region{"videl", 0x0282, 0x42, KindPlain}, only(clocks.Studio)},
	{Region{"tt-palette", 0x0400, 0x200, KindPlain}, only(clocks.Workstation)},
	{Region{"dma", 0x0604, 0x0A, KindPlain}, allVariants},
	{Region{"psg", 0x0800, 0x100, KindPlain}, allVariants},
	{Region{"dma-sound", 0x0900, 0x40, KindPlain}, only(clocks.Enhanced, clocks.MegaEnhanced, clocks.Studio)},
	{Region{"blitter", 0x0A00, 0x3E, KindPlain}, only(clocks.Mega, clocks.Enhanced, clocks.MegaEnhanced, clocks.Studio)},
	{Region{"scc", 0x0C80, 8, KindPlain}, only(clocks.MegaEnhanced, clocks.Workstation, clocks.Studio)},
	{Region{"cache", 0x0E21, 1, KindPlain}, only(clocks.MegaEnhanced)},
	{Region{"joypad", 0x1200, 0x24, KindPlain}, only(clocks.Enhanced, clocks.MegaEnhanced, clocks.Studio)},
	{Region{"dsp", 0x2200, 8, KindPlain}, only(clocks.Studio)},
	{Region{"mfp", 0x7A00, 0x40, KindPlain}, allVariants},
	{Region{"mfp2", 0x7A80, 0x40, KindPlain}, only(clocks.Workstation)},
	{Region{"acia", 0x7C00, 8, KindPlain}, allVariants},
	{Region{"acia-gap", 0x7C08, 0x18, KindVoid}, only(clocks.Standard, clocks.Enhanced)},
	{Region{"rtc", 0x7C20, 0x20, KindPlain}, only(clocks.Mega, clocks.MegaEnhanced)},
}

// Layout returns the board regions present on a variant, in address order.
func Layout(v clocks.Variant) []Region {
	var out []Region
	for _, e := range boardLayout {
		if e.variants&(1<<uint(v)) != 0 {
			out = append(out, e.Region)
		}
	}
	return out
}

func defaultHandler(k RegionKind) iomem.Handler {
	if k == KindVoid {
		return iomem.Void
	}
	return iomem.Plain
}
