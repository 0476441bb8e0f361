package eeprom

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/flash"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	pageCount  = 2 // the store always alternates between two pages
	recordSize = 4 // one 32 bit flash word per record

	// MaxAddress is the highest usable logical address. 0xFFFF is the sentinel.
	MaxAddress uint16 = 0xFFFE

	defaultFlashBase = 0x08000000
	defaultFlashSize = 32 * 1024
	defaultPageSize  = 1024
)

// Options describes where the two pages of the store live.
type Options struct {
	BaseAddress uint32 // address of page 0, page 1 follows immediately
	PageSize    uint32 // size of one erase page in bytes
}

// DefaultOptions returns the layout used on the MM32F031K6: the last two 1 KiB pages
// of its 32 KiB program flash.
func DefaultOptions() *Options {
	return &Options{
		BaseAddress: defaultFlashBase + defaultFlashSize - pageCount*defaultPageSize,
		PageSize:    defaultPageSize,
	}
}

// Geometry returns the flash region the store occupies.
func (o *Options) Geometry() flash.Geometry {
	return flash.Geometry{
		BaseAddress: o.BaseAddress,
		PageSize:    o.PageSize,
		PageCount:   pageCount,
	}
}

// Capacity returns the number of record slots per page.
func (o *Options) Capacity() int {
	return int(o.PageSize/recordSize) - 1
}

// Validate checks the layout.
func (o *Options) Validate() error {
	if err := o.Geometry().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	// the byte offset of a slot must fit the 16 bit address space of a record
	if o.Capacity() > int(MaxAddress) {
		return fmt.Errorf("%w: page size %d is too large", ErrInvalidLayout, o.PageSize)
	}
	return nil
}

// Fits checks that both pages of the store are whole erase pages of geo. A page
// smaller than the erase page would be wiped together with its companion.
func (o *Options) Fits(geo flash.Geometry) error {
	if o.PageSize != geo.PageSize {
		return fmt.Errorf("%w: page size %d does not match the flash erase page of %d bytes",
			ErrInvalidLayout, o.PageSize, geo.PageSize)
	}
	if o.BaseAddress < geo.BaseAddress || (o.BaseAddress-geo.BaseAddress)%geo.PageSize != 0 {
		return fmt.Errorf("%w: base address 0x%08X is not an erase page of %s",
			ErrInvalidLayout, o.BaseAddress, geo)
	}
	if o.Geometry().End() > geo.End() {
		return fmt.Errorf("%w: pages at 0x%08X exceed %s", ErrInvalidLayout, o.BaseAddress, geo)
	}
	return nil
}
