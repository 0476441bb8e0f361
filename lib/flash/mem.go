package flash

import (
	"fmt"
	"sync"
)

// MemFlash is a RAM backed Flash used for tests and ephemeral stores.
//
// It supports power loss injection: after CutPowerAfter(n) the next n mutating
// operations succeed and every later one fails with ErrPowerLoss until Restore is
// called. The operation that hits the cut is torn the way real hardware tears it:
// a program is dropped entirely, an erase leaves the upper half of the page
// unerased.
type MemFlash struct {
	mu     sync.Mutex
	nor    *norArray
	budget int // remaining mutating operations, -1 means unlimited
}

// NewMemFlash creates an erased in-memory flash region.
func NewMemFlash(geo Geometry) (*MemFlash, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	data := make([]byte, geo.Size())
	for i := range data {
		data[i] = 0xFF
	}
	return &MemFlash{nor: newNorArray(geo, data), budget: -1}, nil
}

// Geometry returns the layout of the region.
func (m *MemFlash) Geometry() Geometry {
	return m.nor.geo
}

// --------------------------------------------------------------------------
// Flash implementation
// --------------------------------------------------------------------------

func (m *MemFlash) ErasePage(addr uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.consume() {
		if _, err := m.nor.geo.page(addr); err != nil {
			return err
		}
		_ = m.nor.erase(addr, int(m.nor.geo.PageSize)/2)
		log.Debugf("power cut during erase of 0x%08X", addr)
		return ErrPowerLoss
	}
	return m.nor.erase(addr, -1)
}

func (m *MemFlash) WriteWord(addr uint32, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.consume() {
		return ErrPowerLoss
	}
	return m.nor.writeWord(addr, value)
}

func (m *MemFlash) WriteHalfWord(addr uint32, value uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.consume() {
		return ErrPowerLoss
	}
	return m.nor.writeHalfWord(addr, value)
}

func (m *MemFlash) ReadWord(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nor.readWord(addr)
}

// --------------------------------------------------------------------------
// Power loss injection
// --------------------------------------------------------------------------

// CutPowerAfter lets n more mutating operations through, then fails all others.
func (m *MemFlash) CutPowerAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 {
		n = 0
	}
	m.budget = n
}

// Restore powers the device back up.
func (m *MemFlash) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budget = -1
}

// PoweredDown reports whether the injected power cut has been reached.
func (m *MemFlash) PoweredDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget == 0
}

// consume takes one operation from the budget. Callers must hold mu.
func (m *MemFlash) consume() bool {
	switch {
	case m.budget < 0:
		return true
	case m.budget == 0:
		return false
	default:
		m.budget--
		return true
	}
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Snapshot returns a copy of the raw contents.
func (m *MemFlash) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.nor.data))
	copy(out, m.nor.data)
	return out
}

// Load replaces the raw contents. data must be exactly the region size.
func (m *MemFlash) Load(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(data) != len(m.nor.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrImageSize, len(data), len(m.nor.data))
	}
	copy(m.nor.data, data)
	return nil
}

// EraseCounts returns the number of erases per page.
func (m *MemFlash) EraseCounts() []uint64 {
	return m.nor.eraseCounts()
}

// ProgramCount returns the number of program operations.
func (m *MemFlash) ProgramCount() uint64 {
	return m.nor.programs.Load()
}
