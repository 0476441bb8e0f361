package eeprom

// cursor caches the last written slot of one page. A slot of 0 with valid set means
// the page is known to be empty.
type cursor struct {
	page  int
	slot  int
	valid bool
}

func (c *cursor) invalidate() {
	*c = cursor{}
}

// slotAddress returns the flash address of a slot. Slot 0 is the status marker.
func (e *EEPROM) slotAddress(p, slot int) uint32 {
	return e.pageBase(p) + uint32(slot)*recordSize
}

// readSlot decodes a slot.
func (e *EEPROM) readSlot(p, slot int) (Record, bool) {
	return DecodeRecord(e.flash.ReadWord(e.slotAddress(p, slot)))
}

// find returns the newest slot at or below from that holds a record for address.
func (e *EEPROM) find(p int, address uint16, from int) (int, bool) {
	for slot := from; slot >= 1; slot-- {
		if rec, ok := e.readSlot(p, slot); ok && rec.Address == address {
			return slot, true
		}
	}
	return 0, false
}

// lastWrittenSlot scans page p from the top and returns the highest non-sentinel slot,
// or 0 for an empty page.
func (e *EEPROM) lastWrittenSlot(p int) int {
	for slot := e.capacity; slot >= 1; slot-- {
		if e.flash.ReadWord(e.slotAddress(p, slot)) != SentinelWord {
			return slot
		}
	}
	return 0
}

// lastSlot is lastWrittenSlot behind the cursor cache.
func (e *EEPROM) lastSlot(p int) int {
	if e.cursor.valid && e.cursor.page == p {
		return e.cursor.slot
	}
	slot := e.lastWrittenSlot(p)
	e.cursor = cursor{page: p, slot: slot, valid: true}
	log.Debugf("cursor recomputed: page %d, last slot %d", p, slot)
	return slot
}

// lookup returns the current record for a record address in page p.
// A missing record reads as value 0.
func (e *EEPROM) lookup(p int, address uint16) (Record, bool) {
	slot, ok := e.find(p, address, e.lastSlot(p))
	if !ok {
		return Record{Address: address}, false
	}
	rec, _ := e.readSlot(p, slot)
	return rec, true
}
