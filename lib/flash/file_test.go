package flash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFlashPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")

	ff, err := OpenFileFlash(path, testGeo)
	require.NoError(t, err)
	assert.Equal(t, ErasedWord, ff.ReadWord(testGeo.BaseAddress))
	require.NoError(t, ff.WriteWord(testGeo.BaseAddress, 0x002A1234))
	require.NoError(t, ff.WriteHalfWord(testGeo.PageAddress(1)+2, 0))
	require.NoError(t, ff.Close())
	require.NoError(t, ff.Close(), "close is idempotent")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, testGeo.Size())
	assert.Equal(t, []byte{0x34, 0x12, 0x2A, 0x00}, raw[:4])

	ff, err = OpenFileFlash(path, testGeo)
	require.NoError(t, err)
	defer ff.Close()
	assert.Equal(t, uint32(0x002A1234), ff.ReadWord(testGeo.BaseAddress))
	assert.Equal(t, uint32(0x0000FFFF), ff.ReadWord(testGeo.PageAddress(1)))
}

func TestFileFlashIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")

	ff, err := OpenFileFlash(path, testGeo)
	require.NoError(t, err)

	_, err = OpenFileFlash(path, testGeo)
	assert.ErrorIs(t, err, ErrImageInUse)

	require.NoError(t, ff.Close())
	ff, err = OpenFileFlash(path, testGeo)
	require.NoError(t, err)
	require.NoError(t, ff.Close())
}

func TestFileFlashRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	_, err := OpenFileFlash(path, testGeo)
	assert.ErrorIs(t, err, ErrImageSize)
}

func TestCreateImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")
	require.NoError(t, CreateImage(path, testGeo))
	assert.Error(t, CreateImage(path, testGeo), "existing images are not overwritten")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, testGeo.Size())
	for _, b := range raw {
		require.Equal(t, byte(0xFF), b)
	}
}

func TestFileFlashClosed(t *testing.T) {
	ff, err := OpenFileFlash(filepath.Join(t.TempDir(), "eeprom.img"), testGeo)
	require.NoError(t, err)
	require.NoError(t, ff.Close())
	assert.ErrorIs(t, ff.WriteWord(testGeo.BaseAddress, 0), ErrClosed)
	assert.ErrorIs(t, ff.ErasePage(testGeo.BaseAddress), ErrClosed)
	assert.Equal(t, ErasedWord, ff.ReadWord(testGeo.BaseAddress))
}
