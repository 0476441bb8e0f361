package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/flash"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// EEPROMFactory creates the emulated EEPROM a store is backed by.
// This is used to abstract the flash backend (memory, image file) from the store implementation.
type EEPROMFactory func() (*eeprom.EEPROM, error)

// MaxReadLength is the largest read a single call may request.
const MaxReadLength = int(eeprom.MaxAddress) + 1

// IStore is the generic interface for interacting with an emulated EEPROM.
// All methods return a *Error (nil on success) so that callers can act on the
// return code no matter whether the store is local or remote.
type IStore interface {
	// Init recovers the pages after power up. It must be called before any other operation
	// on a fresh or freshly rebooted store and may be called again at any time.
	Init() (err error)
	// Format erases all data.
	Format() (err error)
	// Read returns length bytes starting at address. Bytes that were never written read as 0.
	// If the read stops early the bytes read so far are returned together with the error.
	Read(address uint16, length int) (data []byte, err error)
	// Write stores data starting at address and returns the number of bytes written.
	// A count short of len(data) always comes with an error.
	Write(address uint16, data []byte) (n int, err error)
	// Entries returns the current value of every record, ordered by address.
	Entries() (entries []eeprom.Record, err error)
	// GetInfo returns the page states and counters of the store.
	GetInfo() (info eeprom.Info, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// ErrorFrom converts an error of the eeprom or flash package into an *Error.
// nil stays nil and an *Error is returned unchanged.
func ErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr
	}

	code := RetCInternalError
	switch {
	case errors.Is(err, eeprom.ErrAddressOutOfRange):
		code = RetCAddressOutOfRange
	case errors.Is(err, eeprom.ErrStoreFull):
		code = RetCStoreFull
	case errors.Is(err, eeprom.ErrNoActivePage):
		code = RetCInvalidOperation
	case errors.Is(err, flash.ErrPowerLoss),
		errors.Is(err, flash.ErrClosed),
		errors.Is(err, flash.ErrOutOfRange),
		errors.Is(err, flash.ErrMisaligned):
		code = RetCFlashError
	}
	return NewError(code, err.Error())
}

// CodeOf returns the return code carried by err, RetCSuccess for nil and
// RetCInternalError for errors that are not an *Error.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Command executed successfully.
	RetCInternalError                    // 1: Command failed due to an internal error.
	RetCInvalidOperation                 // 2: Invalid operation, e.g. access before Init.
	RetCAddressOutOfRange                // 3: The access reached the reserved address 0xFFFF.
	RetCStoreFull                        // 4: No record slot could be freed by compaction.
	RetCFlashError                       // 5: The flash backend failed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCAddressOutOfRange:
		return "AddressOutOfRange"
	case RetCStoreFull:
		return "StoreFull"
	case RetCFlashError:
		return "FlashError"
	default:
		return "Unknown"
	}
}
