package flash

import (
	"errors"
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("flash")

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrOutOfRange is returned for an access outside the region.
	ErrOutOfRange = errors.New("flash: address out of range")
	// ErrMisaligned is returned when addr is not a multiple of the access width.
	ErrMisaligned = errors.New("flash: misaligned address")
	// ErrPowerLoss is returned by MemFlash once its power cut has triggered.
	ErrPowerLoss = errors.New("flash: power lost during operation")
	// ErrClosed is returned by a FileFlash after Close.
	ErrClosed = errors.New("flash: device is closed")
	// ErrImageInUse means another process holds the image lock.
	ErrImageInUse = errors.New("flash: image is locked by another process")
	// ErrImageSize means the image file is not exactly one region long.
	ErrImageSize = errors.New("flash: image size does not match geometry")
	// ErrBadGeometry is returned by Geometry.Validate.
	ErrBadGeometry = errors.New("flash: invalid geometry")
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Flash is the set of primitives the host platform provides for one flash region.
//
// Every mutating call blocks until the operation has completed and calls must not
// overlap. A word program is atomic with respect to power loss, a page erase is not:
// an interrupted erase may leave the page partially erased.
type Flash interface {
	// ErasePage erases the page containing addr to the all-ones pattern.
	ErasePage(addr uint32) error
	// WriteWord programs one 32-bit word. addr must be word aligned.
	WriteWord(addr uint32, value uint32) error
	// WriteHalfWord programs one 16-bit half-word. addr must be half-word aligned.
	WriteHalfWord(addr uint32, value uint16) error
	// ReadWord returns the word at addr. Flash is memory mapped on the target, so
	// reads cannot fail; addresses outside the region read as erased.
	ReadWord(addr uint32) uint32
	// Geometry returns the erase pages of the region.
	Geometry() Geometry
}

// --------------------------------------------------------------------------
// Geometry
// --------------------------------------------------------------------------

// ErasedWord is the content of a word after a page erase.
const ErasedWord uint32 = 0xFFFFFFFF

// Geometry describes a contiguous run of equally sized erase pages.
type Geometry struct {
	BaseAddress uint32 // address of the first byte of page 0
	PageSize    uint32 // size of one erase page in bytes
	PageCount   int    // number of pages in the region
}

// Size returns the size of the region in bytes.
func (g Geometry) Size() int {
	return int(g.PageSize) * g.PageCount
}

// PageAddress returns the base address of page i.
func (g Geometry) PageAddress(i int) uint32 {
	return g.BaseAddress + uint32(i)*g.PageSize
}

// Validate checks that the geometry describes a usable region.
func (g Geometry) Validate() error {
	if g.PageCount <= 0 {
		return fmt.Errorf("%w: page count %d", ErrBadGeometry, g.PageCount)
	}
	if g.PageSize < 8 || g.PageSize%4 != 0 {
		return fmt.Errorf("%w: page size %d must be a multiple of 4 and at least 8", ErrBadGeometry, g.PageSize)
	}
	if g.BaseAddress%4 != 0 {
		return fmt.Errorf("%w: base address 0x%08X is not word aligned", ErrBadGeometry, g.BaseAddress)
	}
	if uint64(g.BaseAddress)+uint64(g.Size()) > 1<<32 {
		return fmt.Errorf("%w: region exceeds the 32 bit address space", ErrBadGeometry)
	}
	return nil
}

// End returns the first address after the region.
func (g Geometry) End() uint64 {
	return uint64(g.BaseAddress) + uint64(g.Size())
}

// String returns a short description of the geometry.
func (g Geometry) String() string {
	return fmt.Sprintf("%d x %d bytes @ 0x%08X", g.PageCount, g.PageSize, g.BaseAddress)
}

// offset translates an absolute address into an index into the backing array
// and checks bounds and alignment for an access of the given width.
func (g Geometry) offset(addr uint32, width uint32) (int, error) {
	if addr < g.BaseAddress || uint64(addr)+uint64(width) > g.End() {
		return 0, fmt.Errorf("%w: 0x%08X", ErrOutOfRange, addr)
	}
	if addr%width != 0 {
		return 0, fmt.Errorf("%w: 0x%08X (width %d)", ErrMisaligned, addr, width)
	}
	return int(addr - g.BaseAddress), nil
}

// page returns the index of the page containing addr.
func (g Geometry) page(addr uint32) (int, error) {
	off, err := g.offset(addr, 1)
	if err != nil {
		return 0, err
	}
	return off / int(g.PageSize), nil
}
