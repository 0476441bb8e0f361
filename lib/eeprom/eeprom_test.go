package eeprom

import (
	"math/rand"
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEEPROM(t *testing.T) (*EEPROM, *flash.MemFlash) {
	t.Helper()
	ee, f := newRawEEPROM(t)
	require.NoError(t, ee.Init())
	return ee, f
}

func write(t *testing.T, ee *EEPROM, address uint16, data ...byte) {
	t.Helper()
	n, err := ee.Write(address, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func read(t *testing.T, ee *EEPROM, address uint16, length int) []byte {
	t.Helper()
	buf := make([]byte, length)
	n, err := ee.Read(address, buf)
	require.NoError(t, err)
	require.Equal(t, length, n)
	return buf
}

func TestInitFormatsFreshFlash(t *testing.T) {
	ee, f := newTestEEPROM(t)

	assert.Equal(t, PageErased, ee.PageStatus(0))
	assert.Equal(t, PageActive, ee.PageStatus(1))
	assert.Equal(t, []uint64{0, 0}, f.EraseCounts(), "blank pages are not erased again")
	assert.Equal(t, make([]byte, 8), read(t, ee, 0, 8), "unwritten bytes read as zero")
}

func TestReadWriteBeforeInit(t *testing.T) {
	ee, _ := newRawEEPROM(t)

	n, err := ee.Write(0, []byte{1})
	assert.ErrorIs(t, err, ErrNoActivePage)
	assert.Zero(t, n)

	n, err = ee.Read(0, make([]byte, 1))
	assert.ErrorIs(t, err, ErrNoActivePage)
	assert.Zero(t, n)
}

func TestLayoutMustMatchFlash(t *testing.T) {
	// four erase pages of 128 bytes
	geo := flash.Geometry{BaseAddress: 0x08000000, PageSize: 128, PageCount: 4}
	f, err := flash.NewMemFlash(geo)
	require.NoError(t, err)

	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"first two pages", Options{BaseAddress: 0x08000000, PageSize: 128}, true},
		{"last two pages", Options{BaseAddress: 0x08000100, PageSize: 128}, true},
		{"both pages in one erase page", Options{BaseAddress: 0x08000000, PageSize: 64}, false},
		{"pages larger than erase pages", Options{BaseAddress: 0x08000000, PageSize: 256}, false},
		{"straddles erase pages", Options{BaseAddress: 0x08000040, PageSize: 128}, false},
		{"below the region", Options{BaseAddress: 0x07FFFF80, PageSize: 128}, false},
		{"past the region", Options{BaseAddress: 0x08000180, PageSize: 128}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(f, &tt.opts)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLayout)
			}
		})
	}
}

func TestCompactionKeepsDataOnLargeErasePages(t *testing.T) {
	// two 128 byte erase pages used with a matching layout: a compaction
	// must not touch the destination page while erasing the source
	opts := &Options{BaseAddress: 0x08000000, PageSize: 128}
	f, err := flash.NewMemFlash(opts.Geometry())
	require.NoError(t, err)
	ee, err := New(f, opts)
	require.NoError(t, err)
	require.NoError(t, ee.Init())

	// ten addresses rewritten until the page overflows once
	latest := make(map[uint16]byte)
	for i := 0; i <= ee.Capacity(); i++ {
		a := uint16(i%10) * 2
		write(t, ee, a, byte(i+1))
		latest[a] = byte(i + 1)
	}

	assert.Equal(t, uint64(1), ee.Info().Compactions)
	for a, v := range latest {
		assert.Equal(t, []byte{v}, read(t, ee, a, 1), "address %d", a)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		address uint16
		data    []byte
	}{
		{"single even byte", 0, []byte{0x11}},
		{"single odd byte", 7, []byte{0x22}},
		{"aligned word", 42, []byte{0x34, 0x12}},
		{"unaligned run", 3, []byte{1, 2, 3, 4, 5}},
		{"last address", MaxAddress, []byte{0x7F}},
		{"config struct", 100, []byte{0x01, 0x00, 0x2C, 0x01, 0x0A, 0xFF, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee, _ := newTestEEPROM(t)
			write(t, ee, tt.address, tt.data...)
			assert.Equal(t, tt.data, read(t, ee, tt.address, len(tt.data)))
		})
	}
}

func TestUntouchedByteSurvives(t *testing.T) {
	ee, _ := newTestEEPROM(t)

	write(t, ee, 10, 0xAA, 0xBB)
	write(t, ee, 11, 0xCC)
	assert.Equal(t, []byte{0xAA, 0xCC}, read(t, ee, 10, 2))
	write(t, ee, 10, 0xDD)
	assert.Equal(t, []byte{0xDD, 0xCC}, read(t, ee, 10, 2))
}

func TestMostRecentWins(t *testing.T) {
	ee, _ := newTestEEPROM(t)

	write(t, ee, 20, 0x01, 0x01)
	for a := uint16(0); a < 12; a += 2 {
		write(t, ee, a, byte(a), 0)
	}
	write(t, ee, 20, 0x02, 0x02)
	assert.Equal(t, []byte{0x02, 0x02}, read(t, ee, 20, 2))
}

func TestWriteElision(t *testing.T) {
	ee, _ := newTestEEPROM(t)

	write(t, ee, 8, 0x55, 0x66)
	write(t, ee, 8, 0x55, 0x66)
	write(t, ee, 9, 0x66)
	write(t, ee, 30, 0x00, 0x00)

	info := ee.Info()
	assert.Equal(t, 1, info.UsedSlots)
	assert.Equal(t, uint64(1), info.Appended)
	assert.Equal(t, uint64(3), info.Elided)
}

func TestAddressRange(t *testing.T) {
	ee, _ := newTestEEPROM(t)

	n, err := ee.Write(MaxAddress, []byte{1, 2})
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	assert.Equal(t, 1, n, "the bytes before the reserved address are written")
	assert.Equal(t, []byte{1}, read(t, ee, MaxAddress, 1))

	n, err = ee.Read(0xFFFF, make([]byte, 1))
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	assert.Zero(t, n)

	n, err = ee.Write(0xFFF0, make([]byte, 32))
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	assert.Equal(t, 15, n)

	n, err = ee.Write(0, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

// The page in this layout holds 15 records. Fifteen byte writes fill it, the next
// changed value has to compact it first.
func TestCompactionScenario(t *testing.T) {
	ee, f := newTestEEPROM(t)
	require.Equal(t, 15, ee.Capacity())

	for a := uint16(1); a <= 15; a++ {
		write(t, ee, a, 0xAA)
	}
	info := ee.Info()
	require.Equal(t, 1, info.ActivePage)
	require.Zero(t, info.FreeSlots)

	write(t, ee, 1, 0xBB)

	assert.Equal(t, []byte{0xBB}, read(t, ee, 1, 1))
	for a := uint16(2); a <= 15; a++ {
		assert.Equal(t, []byte{0xAA}, read(t, ee, a, 1), "address %d", a)
	}
	assert.Equal(t, PageErased, ee.PageStatus(1), "the originally active page is erased")
	assert.Equal(t, PageActive, ee.PageStatus(0))
	assert.Equal(t, []uint64{0, 1}, f.EraseCounts())

	info = ee.Info()
	assert.Equal(t, 0, info.ActivePage)
	assert.Equal(t, uint64(1), info.Compactions)
	assert.Equal(t, 8, info.LiveRecords)
	assert.Equal(t, 9, info.UsedSlots, "8 live records plus the new one")
}

func TestCompactionSafety(t *testing.T) {
	ee, _ := newTestEEPROM(t)
	model := map[uint16]byte{}
	rnd := rand.New(rand.NewSource(7))

	// 11 distinct records fit a 15 slot page with room to spare after compaction
	for i := 0; i < 600; i++ {
		a := uint16(rnd.Intn(22))
		v := byte(rnd.Intn(256))
		write(t, ee, a, v)
		model[a] = v
	}
	for a, v := range model {
		assert.Equal(t, []byte{v}, read(t, ee, a, 1), "address %d", a)
	}

	info := ee.Info()
	assert.Greater(t, info.Compactions, uint64(10))
	assert.NotZero(t, info.Pages[0].Erases)
	assert.NotZero(t, info.Pages[1].Erases)
	assert.Greater(t, info.Wear.DistributionQuality, 0.9, "compaction alternates between pages")

	write(t, ee, 40, 1, 2)
	assert.Equal(t, []byte{1, 2}, read(t, ee, 40, 2))
}

func TestStoreFull(t *testing.T) {
	ee, f := newTestEEPROM(t)

	for a := uint16(0); a < 30; a += 2 {
		write(t, ee, a, byte(a), 0x10)
	}

	n, err := ee.Write(30, []byte{1, 1})
	assert.ErrorIs(t, err, ErrStoreFull)
	assert.Zero(t, n)

	n, err = ee.Write(0, []byte{9, 9})
	assert.ErrorIs(t, err, ErrStoreFull, "an update needs a free slot as well")
	assert.Zero(t, n)
	assert.Zero(t, ee.Info().Compactions, "a page of distinct addresses is not compacted")
	assert.Equal(t, []uint64{0, 0}, f.EraseCounts())

	for a := uint16(0); a < 30; a += 2 {
		assert.Equal(t, []byte{byte(a), 0x10}, read(t, ee, a, 2))
	}
	n, err = ee.Write(0, []byte{0, 0x10})
	assert.NoError(t, err, "unchanged values need no slot")
	assert.Equal(t, 2, n)
}

func TestEntries(t *testing.T) {
	ee, _ := newTestEEPROM(t)

	write(t, ee, 12, 0x01, 0x02)
	write(t, ee, 2, 0x03)
	write(t, ee, 12, 0x04, 0x05)
	write(t, ee, 7, 0x06)

	entries, err := ee.Entries()
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Address: 2, Value: 0x0003},
		{Address: 6, Value: 0x0600},
		{Address: 12, Value: 0x0504},
	}, entries)
}

func TestFormatDropsData(t *testing.T) {
	ee, f := newTestEEPROM(t)
	write(t, ee, 4, 1, 2)

	require.NoError(t, ee.Format())
	assert.Equal(t, []byte{0, 0}, read(t, ee, 4, 2))
	assert.Equal(t, PageActive, ee.PageStatus(1))
	assert.Equal(t, []uint64{0, 1}, f.EraseCounts())
}

func TestWriteFlashError(t *testing.T) {
	ee, f := newTestEEPROM(t)

	f.CutPowerAfter(0)
	n, err := ee.Write(0, []byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, flash.ErrPowerLoss)
	assert.Zero(t, n)
	assert.False(t, ee.cursor.valid)
}

func TestStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.StdDeviation)

	assert.Equal(t, Stats{}, NewStats(nil))

	even := NewDistributionStats([]float64{3, 3})
	assert.Equal(t, 1.0, even.DistributionQuality)
	skewed := NewDistributionStats([]float64{0, 6})
	assert.Less(t, skewed.DistributionQuality, even.DistributionQuality)
}
