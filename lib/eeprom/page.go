package eeprom

import "fmt"

// --------------------------------------------------------------------------
// Page status
// --------------------------------------------------------------------------

// PageStatus is the state of a page as encoded in its first word.
type PageStatus int

const (
	PageInvalid     PageStatus = iota // unknown marker pattern
	PageErased                        // blank page, free for the next compaction
	PageReceiveData                   // destination of a running compaction
	PageActive                        // the page reads and writes go to
)

// Marker words. Each one is reachable from the previous by clearing bits only.
const (
	MarkerErased      uint32 = 0xFFFFFFFF
	MarkerReceiveData uint32 = 0x0000FFFF
	MarkerActive      uint32 = 0x00000000
)

// StatusFromMarker classifies a marker word by exact match.
func StatusFromMarker(word uint32) PageStatus {
	switch word {
	case MarkerErased:
		return PageErased
	case MarkerReceiveData:
		return PageReceiveData
	case MarkerActive:
		return PageActive
	default:
		return PageInvalid
	}
}

func (s PageStatus) String() string {
	switch s {
	case PageErased:
		return "erased"
	case PageReceiveData:
		return "receive-data"
	case PageActive:
		return "active"
	default:
		return "invalid"
	}
}

// MarshalText renders the status by name.
func (s PageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *PageStatus) UnmarshalText(b []byte) error {
	for _, st := range []PageStatus{PageInvalid, PageErased, PageReceiveData, PageActive} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown page status %q", b)
}

// --------------------------------------------------------------------------
// Page access
// --------------------------------------------------------------------------

// pageStatus reads and classifies the marker of page p.
func (e *EEPROM) pageStatus(p int) PageStatus {
	return StatusFromMarker(e.flash.ReadWord(e.pageBase(p)))
}

// setPageStatus moves page p forward in its lifecycle. The active marker is written
// as two half-words, upper half first, so an interrupted write reads as ReceiveData.
func (e *EEPROM) setPageStatus(p int, status PageStatus) error {
	base := e.pageBase(p)
	switch status {
	case PageReceiveData:
		if err := e.flash.WriteWord(base, MarkerReceiveData); err != nil {
			return fmt.Errorf("mark page %d receive-data: %w", p, err)
		}
	case PageActive:
		if err := e.flash.WriteHalfWord(base+2, uint16(MarkerActive>>16)); err != nil {
			return fmt.Errorf("mark page %d active: %w", p, err)
		}
		if err := e.flash.WriteHalfWord(base, uint16(MarkerActive)); err != nil {
			return fmt.Errorf("mark page %d active: %w", p, err)
		}
	default:
		return fmt.Errorf("page status %s cannot be programmed", status)
	}
	return nil
}

// erasePage erases page p and drops the cursor if it pointed there.
func (e *EEPROM) erasePage(p int) error {
	if e.cursor.valid && e.cursor.page == p {
		e.cursor.invalidate()
	}
	if err := e.flash.ErasePage(e.pageBase(p)); err != nil {
		return fmt.Errorf("erase page %d: %w", p, err)
	}
	e.counters.erases[p]++
	return nil
}

// isBlank reports whether page p is fully erased, marker included.
func (e *EEPROM) isBlank(p int) bool {
	return e.pageStatus(p) == PageErased && e.lastWrittenSlot(p) == 0
}

// activePage returns the page that is Active while its companion is not Invalid.
func (e *EEPROM) activePage() (int, error) {
	s0, s1 := e.pageStatus(0), e.pageStatus(1)
	switch {
	case s0 == PageActive && s1 != PageActive && s1 != PageInvalid:
		return 0, nil
	case s1 == PageActive && s0 != PageActive && s0 != PageInvalid:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: pages are %s/%s", ErrNoActivePage, s0, s1)
	}
}
