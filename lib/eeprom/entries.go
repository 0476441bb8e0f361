package eeprom

import (
	"github.com/google/btree"
)

// liveRecords collects the current record of every address in page p.
func (e *EEPROM) liveRecords(p int) *btree.BTreeG[Record] {
	live := btree.NewG[Record](8, func(a, b Record) bool {
		return a.Address < b.Address
	})
	// newest first, so the first record seen for an address is its current value
	for slot := e.lastSlot(p); slot >= 1; slot-- {
		rec, ok := e.readSlot(p, slot)
		if !ok || rec.Address > MaxAddress || live.Has(rec) {
			continue
		}
		live.ReplaceOrInsert(rec)
	}
	return live
}

// Entries returns the current value of every address present in the active page,
// ordered by address.
func (e *EEPROM) Entries() ([]Record, error) {
	p, err := e.activePage()
	if err != nil {
		return nil, err
	}

	live := e.liveRecords(p)
	out := make([]Record, 0, live.Len())
	live.Ascend(func(rec Record) bool {
		out = append(out, rec)
		return true
	})
	return out, nil
}
