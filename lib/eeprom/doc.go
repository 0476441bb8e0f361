/*
Package eeprom emulates a small byte addressable EEPROM on two pages of program flash.

Microcontrollers without a real EEPROM keep their configuration in flash, but flash
can only be erased a whole page at a time and wears out after a limited number of
erase cycles. The emulation turns every write into an appended record and only
erases when a page runs full, which spreads wear over both pages and keeps each
individual update atomic.

# Layout

Both pages have the same format. The first word is a status marker, every following
word is a record slot:

	slot 0       status marker  0xFFFFFFFF erased
	                            0x0000FFFF receive-data
	                            0x00000000 active
	slot 1..N    record         address<<16 | value, 0xFFFFFFFF = unwritten

with N = page size / 4 - 1. Records are appended in slot order, so the last record
for an address is its current value. A record holds two bytes: byte address a is
stored in record a&^1, even addresses in the low byte. Address 0xFFFF is the sentinel
and can never be used.

# Compaction

When the active page is full the live records (the newest one per address) are
copied to the other page, which is marked receive-data first. Then the full page is
erased and the copy marked active. Every step leaves markers that Init can act on:

	active       + receive-data   copy was interrupted, run it again
	erased       + receive-data   copy finished, promote the destination
	invalid      + anything       erase was interrupted, erase again
	same status  + same status    unrecoverable, format

# Usage

	f, _ := flash.NewMemFlash(eeprom.DefaultOptions().Geometry())
	ee, err := eeprom.New(f, nil)
	if err != nil {
		return err
	}
	if err := ee.Init(); err != nil {
		return err
	}
	_, err = ee.Write(42, []byte{0x01, 0x02})

Read and Write return the number of bytes processed and an error whenever that
number is short. An EEPROM is not safe for concurrent use, see lib/store/lstore
for a synchronized wrapper.
*/
package eeprom
