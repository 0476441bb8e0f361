package eeprom

import "errors"

var (
	// ErrPageCorrupted is reported for a page whose status marker is not a known pattern.
	// Init recovers from it by erasing the page.
	ErrPageCorrupted = errors.New("eeprom: page marker corrupted")
	// ErrStoreInconsistent is reported when both pages carry the same status.
	// Init recovers from it by formatting the store.
	ErrStoreInconsistent = errors.New("eeprom: both pages report the same status")
	// ErrAddressOutOfRange is returned when an access reaches the reserved address 0xFFFF.
	ErrAddressOutOfRange = errors.New("eeprom: address out of range")
	// ErrNoActivePage is returned by Read and Write when no page is active, typically
	// because Init has not been run on a fresh or damaged region.
	ErrNoActivePage = errors.New("eeprom: no active page")
	// ErrStoreFull is returned when a record has to be appended but every slot of the
	// compacted page holds a distinct address.
	ErrStoreFull = errors.New("eeprom: store is full")
	// ErrInvalidLayout is returned by New for unusable options or options that do not
	// match the erase pages of the flash.
	ErrInvalidLayout = errors.New("eeprom: invalid layout")
)
