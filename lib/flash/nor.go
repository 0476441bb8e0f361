package flash

import (
	"encoding/binary"
	"sync/atomic"
)

// norArray implements NOR programming rules on a byte slice laid out in the
// target's little endian byte order. Programming can only clear bits; setting a
// bit back to one requires erasing the whole page.
type norArray struct {
	geo      Geometry
	data     []byte
	erases   []atomic.Uint64
	programs atomic.Uint64
}

func newNorArray(geo Geometry, data []byte) *norArray {
	return &norArray{
		geo:    geo,
		data:   data,
		erases: make([]atomic.Uint64, geo.PageCount),
	}
}

// erase sets the first limit bytes of the page containing addr to 0xFF.
// A negative limit erases the whole page.
func (a *norArray) erase(addr uint32, limit int) error {
	page, err := a.geo.page(addr)
	if err != nil {
		return err
	}
	start := page * int(a.geo.PageSize)
	end := start + int(a.geo.PageSize)
	if limit >= 0 && start+limit < end {
		end = start + limit
	}
	for i := start; i < end; i++ {
		a.data[i] = 0xFF
	}
	a.erases[page].Add(1)
	return nil
}

func (a *norArray) writeWord(addr uint32, value uint32) error {
	off, err := a.geo.offset(addr, 4)
	if err != nil {
		return err
	}
	cur := binary.LittleEndian.Uint32(a.data[off:])
	binary.LittleEndian.PutUint32(a.data[off:], cur&value)
	a.programs.Add(1)
	return nil
}

func (a *norArray) writeHalfWord(addr uint32, value uint16) error {
	off, err := a.geo.offset(addr, 2)
	if err != nil {
		return err
	}
	cur := binary.LittleEndian.Uint16(a.data[off:])
	binary.LittleEndian.PutUint16(a.data[off:], cur&value)
	a.programs.Add(1)
	return nil
}

func (a *norArray) readWord(addr uint32) uint32 {
	off, err := a.geo.offset(addr, 4)
	if err != nil {
		return ErasedWord
	}
	return binary.LittleEndian.Uint32(a.data[off:])
}

// eraseCounts returns a copy of the per page erase counters.
func (a *norArray) eraseCounts() []uint64 {
	out := make([]uint64, len(a.erases))
	for i := range a.erases {
		out[i] = a.erases[i].Load()
	}
	return out
}
