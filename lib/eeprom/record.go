package eeprom

import "fmt"

// SentinelWord is the content of an unwritten slot.
const SentinelWord uint32 = 0xFFFFFFFF

// Record is one (address, value) pair as stored in a single flash word.
//
// Byte address a of the emulated EEPROM lives in the record with Address a&^1:
// even byte addresses in the low byte of Value, odd ones in the high byte.
type Record struct {
	Address uint16 `json:"address"`
	Value   uint16 `json:"value"`
}

// EncodeRecord packs r into a flash word: address in the upper, value in the lower half.
func EncodeRecord(r Record) uint32 {
	return uint32(r.Address)<<16 | uint32(r.Value)
}

// DecodeRecord unpacks a flash word. The second return value is false for the sentinel.
func DecodeRecord(word uint32) (Record, bool) {
	if word == SentinelWord {
		return Record{}, false
	}
	return Record{Address: uint16(word >> 16), Value: uint16(word)}, true
}

// Byte returns the value byte for byte address addr.
func (r Record) Byte(addr uint16) byte {
	if addr&1 == 1 {
		return byte(r.Value >> 8)
	}
	return byte(r.Value)
}

// WithByte returns r with the byte for byte address addr replaced.
func (r Record) WithByte(addr uint16, b byte) Record {
	if addr&1 == 1 {
		r.Value = r.Value&0x00FF | uint16(b)<<8
	} else {
		r.Value = r.Value&0xFF00 | uint16(b)
	}
	return r
}

func (r Record) String() string {
	return fmt.Sprintf("0x%04X=0x%04X", r.Address, r.Value)
}

// recordAddress maps a byte address to the address of the record holding it.
func recordAddress(addr uint16) uint16 {
	return addr &^ 1
}
