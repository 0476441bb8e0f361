package testing

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// StoreFactory creates a new store on fresh, erased flash. Init is run by the suite.
// The pages must hold at least 32 records.
type StoreFactory func() store.IStore

// RunIStoreTests runs the conformance suite for an IStore implementation.
func RunIStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Init", func(t *testing.T) {
			testInit(t, factory())
		})

		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, initialized(t, factory))
		})

		t.Run("UnwrittenReadsZero", func(t *testing.T) {
			testUnwrittenReadsZero(t, initialized(t, factory))
		})

		t.Run("PartialRecord", func(t *testing.T) {
			testPartialRecord(t, initialized(t, factory))
		})

		t.Run("WriteElision", func(t *testing.T) {
			testWriteElision(t, initialized(t, factory))
		})

		t.Run("AddressRange", func(t *testing.T) {
			testAddressRange(t, initialized(t, factory))
		})

		t.Run("Compaction", func(t *testing.T) {
			testCompaction(t, initialized(t, factory))
		})

		t.Run("StoreFull", func(t *testing.T) {
			testStoreFull(t, initialized(t, factory))
		})

		t.Run("Entries", func(t *testing.T) {
			testEntries(t, initialized(t, factory))
		})

		t.Run("Format", func(t *testing.T) {
			testFormat(t, initialized(t, factory))
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, initialized(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func initialized(t *testing.T, factory StoreFactory) store.IStore {
	t.Helper()
	s := factory()
	require.NoError(t, s.Init())
	return s
}

func mustWrite(t *testing.T, s store.IStore, address uint16, data []byte) {
	t.Helper()
	n, err := s.Write(address, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func mustRead(t *testing.T, s store.IStore, address uint16, length int) []byte {
	t.Helper()
	data, err := s.Read(address, length)
	require.NoError(t, err)
	require.Len(t, data, length)
	return data
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInit(t *testing.T, s store.IStore) {
	_, err := s.Write(0, []byte{1})
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err), "writes need an active page")

	require.NoError(t, s.Init())
	info, err := s.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info.ActivePage)
	assert.Equal(t, eeprom.PageErased, info.Pages[0].Status)
	assert.Equal(t, eeprom.PageActive, info.Pages[1].Status)
	assert.Equal(t, info.Capacity, info.FreeSlots)

	require.NoError(t, s.Init(), "init is repeatable")
}

func testWriteRead(t *testing.T, s store.IStore) {
	cfg := []byte{0x01, 0x00, 0x2C, 0x01, 0x0A, 0xFF, 0x00, 0x80}
	mustWrite(t, s, 42, cfg)
	assert.Equal(t, cfg, mustRead(t, s, 42, len(cfg)))

	mustWrite(t, s, 42, []byte{0x02})
	assert.Equal(t, byte(0x02), mustRead(t, s, 42, 1)[0], "the most recent write wins")
	assert.Equal(t, cfg[1:], mustRead(t, s, 43, len(cfg)-1))
}

func testUnwrittenReadsZero(t *testing.T, s store.IStore) {
	assert.Equal(t, make([]byte, 16), mustRead(t, s, 1000, 16))
	assert.Empty(t, mustRead(t, s, 0, 0))

	_, err := s.Read(0, -1)
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err))
}

func testPartialRecord(t *testing.T, s store.IStore) {
	mustWrite(t, s, 10, []byte{0xAA, 0xBB})
	mustWrite(t, s, 11, []byte{0xCC})
	assert.Equal(t, []byte{0xAA, 0xCC}, mustRead(t, s, 10, 2))

	mustWrite(t, s, 9, []byte{0x01, 0x02, 0x03})
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, mustRead(t, s, 9, 3))
}

func testWriteElision(t *testing.T, s store.IStore) {
	mustWrite(t, s, 4, []byte{1, 2})
	before, err := s.GetInfo()
	require.NoError(t, err)

	mustWrite(t, s, 4, []byte{1, 2})
	mustWrite(t, s, 100, []byte{0, 0})

	after, err := s.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, before.UsedSlots, after.UsedSlots)
	assert.Equal(t, before.Elided+2, after.Elided)
}

func testAddressRange(t *testing.T, s store.IStore) {
	n, err := s.Write(eeprom.MaxAddress, []byte{7, 8})
	assert.Equal(t, 1, n)
	assert.Equal(t, store.RetCAddressOutOfRange, store.CodeOf(err))

	data, err := s.Read(eeprom.MaxAddress, 2)
	assert.Equal(t, []byte{7}, data, "the bytes before the reserved address are returned")
	assert.Equal(t, store.RetCAddressOutOfRange, store.CodeOf(err))
}

func testCompaction(t *testing.T, s store.IStore) {
	info, err := s.GetInfo()
	require.NoError(t, err)

	// a few addresses rewritten until the page has wrapped twice
	values := make(map[uint16]byte)
	for i := 0; i < 2*info.Capacity+3; i++ {
		address := uint16(i%5) * 2
		value := byte(i + 1)
		mustWrite(t, s, address, []byte{value})
		values[address] = value
	}
	for address, value := range values {
		assert.Equal(t, []byte{value}, mustRead(t, s, address, 1), "address %d", address)
	}

	info, err = s.GetInfo()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Compactions, uint64(2))
	assert.Equal(t, 5, info.LiveRecords)
}

func testStoreFull(t *testing.T, s store.IStore) {
	info, err := s.GetInfo()
	require.NoError(t, err)

	for i := 0; i < info.Capacity; i++ {
		mustWrite(t, s, uint16(i)*2, []byte{1, 1})
	}
	n, err := s.Write(uint16(info.Capacity)*2, []byte{1, 1})
	assert.Zero(t, n)
	assert.Equal(t, store.RetCStoreFull, store.CodeOf(err))

	assert.Equal(t, []byte{1, 1}, mustRead(t, s, 0, 2))
}

func testEntries(t *testing.T, s store.IStore) {
	mustWrite(t, s, 20, []byte{0x01, 0x02})
	mustWrite(t, s, 2, []byte{0x03})
	mustWrite(t, s, 20, []byte{0x04})

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, []eeprom.Record{
		{Address: 2, Value: 0x0003},
		{Address: 20, Value: 0x0204},
	}, entries)
}

func testFormat(t *testing.T, s store.IStore) {
	mustWrite(t, s, 0, []byte{9, 9, 9, 9})
	require.NoError(t, s.Format())
	assert.Equal(t, make([]byte, 4), mustRead(t, s, 0, 4))

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testConcurrentWriters(t *testing.T, s store.IStore) {
	const workers, perWorker = 4, 8

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				address := uint16(w*perWorker+i) * 2
				if _, err := s.Write(address, []byte{byte(w), byte(i)}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			data := mustRead(t, s, uint16(w*perWorker+i)*2, 2)
			if !bytes.Equal([]byte{byte(w), byte(i)}, data) {
				t.Errorf("worker %d write %d: got %v", w, i, data)
			}
		}
	}
}
