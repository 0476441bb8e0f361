/*
Package flash provides the flash memory primitives the EEPROM emulation is built on,
together with two host side implementations.

# Model

A flash region is a run of equally sized erase pages starting at a base address.
Three rules from NOR flash are enforced by every implementation in this package:

  - An erase sets every byte of a page to 0xFF.
  - Programming can only clear bits. Writing a word ANDs the new value into the
    cell, so a word can be programmed more than once as long as no bit has to go
    back to one.
  - Words are stored little endian, matching the Cortex-M parts the layout was
    designed for. Programming the half-word at base+2 therefore touches the upper
    16 bits of the word at base.

# Implementations

MemFlash keeps the region in RAM. It is used by tests and by shards started with
the "mem" backend. Power loss can be injected with CutPowerAfter:

	f, _ := flash.NewMemFlash(flash.Geometry{BaseAddress: 0x08007800, PageSize: 1024, PageCount: 2})
	f.CutPowerAfter(3) // the fourth mutating call fails with ErrPowerLoss
	...
	f.Restore()

FileFlash maps an image file with mmap and syncs it after every operation, so a
killed process leaves the image in a state a real power cut could have produced.
Images are guarded by a sidecar lock file (gofrs/flock).

	f, err := flash.OpenFileFlash("eeprom.img", geo)
	if err != nil {
		return err
	}
	defer f.Close()
*/
package flash
