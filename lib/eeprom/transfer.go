package eeprom

import (
	"fmt"
)

// transfer compacts the active page src into its companion.
//
// The companion is marked ReceiveData (unless an interrupted run already did), then
// src is walked from its newest slot to its oldest and every address not yet present
// in the destination is copied. Because presence is checked against the destination
// itself, re-running an interrupted transfer appends only what is still missing.
// Finally src is erased and the destination marked Active.
func (e *EEPROM) transfer(src int) error {
	dst := 1 - src
	log.Infof("compacting page %d into page %d", src, dst)

	if e.pageStatus(dst) != PageReceiveData {
		if !e.isBlank(dst) {
			if err := e.erasePage(dst); err != nil {
				return err
			}
		}
		if err := e.setPageStatus(dst, PageReceiveData); err != nil {
			return err
		}
	}

	// the cursor follows the destination while it is being filled
	e.cursor.invalidate()
	dstLast := e.lastWrittenSlot(dst)
	copied := 0

	for slot := e.lastWrittenSlot(src); slot >= 1; slot-- {
		rec, ok := e.readSlot(src, slot)
		if !ok || rec.Address > MaxAddress {
			continue
		}
		if _, found := e.find(dst, rec.Address, dstLast); found {
			continue
		}
		if dstLast >= e.capacity {
			// cannot happen with equally sized pages, the guard keeps a corrupt
			// destination from being written past its end
			return fmt.Errorf("%w: destination page %d overflowed", ErrStoreFull, dst)
		}
		dstLast++
		if err := e.flash.WriteWord(e.slotAddress(dst, dstLast), EncodeRecord(rec)); err != nil {
			return fmt.Errorf("copy record %s to page %d: %w", rec, dst, err)
		}
		copied++
	}

	if err := e.erasePage(src); err != nil {
		return err
	}
	if err := e.setPageStatus(dst, PageActive); err != nil {
		return err
	}

	e.cursor = cursor{page: dst, slot: dstLast, valid: true}
	e.counters.compactions++
	log.Infof("compaction done: %d records copied, %d live, page %d active", copied, dstLast, dst)
	return nil
}
