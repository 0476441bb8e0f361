package eeprom

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("eeprom")

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// EEPROM emulates a byte addressable EEPROM on two pages of flash.
//
// An EEPROM owns its pages exclusively and is not safe for concurrent use;
// wrappers that share a store between goroutines must serialize calls.
type EEPROM struct {
	flash    flash.Flash
	opts     Options
	capacity int    // record slots per page
	cursor   cursor // last written slot of the active page
	counters counters
}

type counters struct {
	erases      [pageCount]uint64
	compactions uint64
	appended    uint64
	elided      uint64
}

// New creates an EEPROM on top of f. opts may be nil to use DefaultOptions and
// must place both pages on erase pages of f.
// The store is not usable until Init has run.
func New(f flash.Flash, opts *Options) (*EEPROM, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Fits(f.Geometry()); err != nil {
		return nil, err
	}
	return &EEPROM{
		flash:    f,
		opts:     *opts,
		capacity: opts.Capacity(),
	}, nil
}

// Options returns the layout of the store.
func (e *EEPROM) Options() Options {
	return e.opts
}

// Capacity returns the number of record slots per page.
func (e *EEPROM) Capacity() int {
	return e.capacity
}

func (e *EEPROM) pageBase(p int) uint32 {
	return e.opts.BaseAddress + uint32(p)*e.opts.PageSize
}

// PageStatus returns the status of page p (0 or 1).
func (e *EEPROM) PageStatus(p int) PageStatus {
	return e.pageStatus(p)
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Init brings the pages into a consistent state after power up.
//
// A page with an unknown marker, or one that claims to be erased but still holds
// records, is erased. Two pages with the same status are formatted. A compaction
// interrupted after its copy finished is completed by promoting the destination;
// one interrupted during the copy is run again.
func (e *EEPROM) Init() error {
	e.cursor.invalidate()
	defer e.cursor.invalidate()

	for p := 0; p < pageCount; p++ {
		switch status := e.pageStatus(p); {
		case status == PageInvalid:
			log.Warningf("page %d: %v, erasing", p, ErrPageCorrupted)
			if err := e.erasePage(p); err != nil {
				return err
			}
		case status == PageErased && e.lastWrittenSlot(p) != 0:
			log.Warningf("page %d is marked erased but holds records, erasing", p)
			if err := e.erasePage(p); err != nil {
				return err
			}
		}
	}

	s0, s1 := e.pageStatus(0), e.pageStatus(1)
	switch {
	case s0 == s1:
		if s0 != PageErased {
			log.Warningf("%v (%s), formatting", ErrStoreInconsistent, s0)
		}
		return e.Format()
	case s0 == PageErased && s1 == PageReceiveData:
		log.Infof("completing interrupted compaction: promoting page 1")
		return e.setPageStatus(1, PageActive)
	case s1 == PageErased && s0 == PageReceiveData:
		log.Infof("completing interrupted compaction: promoting page 0")
		return e.setPageStatus(0, PageActive)
	case s0 == PageActive && s1 == PageReceiveData:
		log.Infof("resuming interrupted compaction of page 0")
		return e.transfer(0)
	case s1 == PageActive && s0 == PageReceiveData:
		log.Infof("resuming interrupted compaction of page 1")
		return e.transfer(1)
	}
	return nil
}

// Format erases both pages and makes page 1 the active page. All data is lost.
func (e *EEPROM) Format() error {
	log.Infof("formatting store at 0x%08X", e.opts.BaseAddress)
	for p := 0; p < pageCount; p++ {
		if !e.isBlank(p) {
			if err := e.erasePage(p); err != nil {
				return err
			}
		}
	}
	if err := e.setPageStatus(1, PageActive); err != nil {
		return err
	}
	e.cursor = cursor{page: 1, slot: 0, valid: true}
	return nil
}

// --------------------------------------------------------------------------
// Data access
// --------------------------------------------------------------------------

// Read fills buf with the bytes stored at address, address+1, ... Bytes that were
// never written read as 0. It returns the number of bytes read; a count short of
// len(buf) always comes with an error.
func (e *EEPROM) Read(address uint16, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	p, err := e.activePage()
	if err != nil {
		return 0, err
	}

	n := 0
	for n < len(buf) {
		a, err := byteAddress(address, n)
		if err != nil {
			return n, err
		}
		rec, _ := e.lookup(p, recordAddress(a))
		if e.wholeRecord(a, len(buf)-n) {
			buf[n] = byte(rec.Value)
			buf[n+1] = byte(rec.Value >> 8)
			n += 2
		} else {
			buf[n] = rec.Byte(a)
			n++
		}
	}
	return n, nil
}

// Write stores data at address, address+1, ... A record is appended only when the
// stored value changes. When the active page is full it is compacted first.
// It returns the number of bytes written; a count short of len(data) always comes
// with an error.
func (e *EEPROM) Write(address uint16, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	p, err := e.activePage()
	if err != nil {
		return 0, err
	}

	n := 0
	for n < len(data) {
		a, err := byteAddress(address, n)
		if err != nil {
			return n, err
		}
		cur, _ := e.lookup(p, recordAddress(a))
		next, width := cur, 1
		if e.wholeRecord(a, len(data)-n) {
			next.Value = uint16(data[n]) | uint16(data[n+1])<<8
			width = 2
		} else {
			next = cur.WithByte(a, data[n])
		}

		if next.Value == cur.Value {
			e.counters.elided++
		} else if p, err = e.append(p, next); err != nil {
			return n, err
		}
		n += width
	}
	return n, nil
}

// append writes rec into the next free slot of page p, compacting first if p is full.
// It returns the page that is active afterwards.
func (e *EEPROM) append(p int, rec Record) (int, error) {
	last := e.lastSlot(p)
	if last >= e.capacity {
		// a page of distinct addresses would compact into another full page
		if live := e.liveRecords(p).Len(); live >= e.capacity {
			return p, fmt.Errorf("%w: %d distinct addresses in use", ErrStoreFull, live)
		}
		if err := e.transfer(p); err != nil {
			return p, err
		}
		p = 1 - p
		if last = e.lastSlot(p); last >= e.capacity {
			return p, fmt.Errorf("%w: %d distinct addresses in use", ErrStoreFull, last)
		}
	}

	slot := last + 1
	if err := e.flash.WriteWord(e.slotAddress(p, slot), EncodeRecord(rec)); err != nil {
		e.cursor.invalidate()
		return p, fmt.Errorf("append record %s: %w", rec, err)
	}
	e.cursor = cursor{page: p, slot: slot, valid: true}
	e.counters.appended++
	return p, nil
}

// wholeRecord reports whether an access at byte address a with remaining bytes can
// cover the full record: a is even and both bytes are in range.
func (e *EEPROM) wholeRecord(a uint16, remaining int) bool {
	return a&1 == 0 && remaining >= 2 && a < MaxAddress
}

// byteAddress returns address+offset if it is a usable logical address.
func byteAddress(address uint16, offset int) (uint16, error) {
	a := uint32(address) + uint32(offset)
	if a > uint32(MaxAddress) {
		return 0, fmt.Errorf("%w: 0x%X", ErrAddressOutOfRange, a)
	}
	return uint16(a), nil
}
