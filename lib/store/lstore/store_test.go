package lstore

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/store"
	storetesting "github.com/ValentinKolb/fKV/lib/store/testing"
	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFactory() (*eeprom.EEPROM, error) {
	f, err := flash.NewMemFlash(eeprom.DefaultOptions().Geometry())
	if err != nil {
		return nil, err
	}
	return eeprom.New(f, nil)
}

func Test(t *testing.T) {
	storetesting.RunIStoreTests(t, "LocalStore", func() store.IStore {
		s, err := NewLocalStore("test", memFactory)
		require.NoError(t, err)
		return s
	})
}

func TestFactoryError(t *testing.T) {
	_, err := NewLocalStore("broken", func() (*eeprom.EEPROM, error) {
		return nil, errors.New("no flash")
	})
	assert.ErrorContains(t, err, "no flash")
}

func TestErrorCodes(t *testing.T) {
	f, err := flash.NewMemFlash(eeprom.DefaultOptions().Geometry())
	require.NoError(t, err)
	s, err := NewLocalStore("codes", func() (*eeprom.EEPROM, error) {
		return eeprom.New(f, nil)
	})
	require.NoError(t, err)
	require.NoError(t, s.Init())

	f.CutPowerAfter(0)
	_, err = s.Write(0, []byte{1})
	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, store.RetCFlashError, storeErr.Code)
	assert.Contains(t, storeErr.Error(), "FlashError")
	f.Restore()

	_, err = s.Read(0, store.MaxReadLength+1)
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err))
}

func TestMetrics(t *testing.T) {
	s, err := NewLocalStore("metrics-test", memFactory)
	require.NoError(t, err)
	require.NoError(t, s.Init())
	_, err = s.Write(0, []byte{1, 2, 3})
	require.NoError(t, err)
	_, err = s.Read(0, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	out := buf.String()
	assert.True(t, strings.Contains(out, `fkv_store_ops_total{store="metrics-test",op="write"} 1`), out)
	assert.True(t, strings.Contains(out, `fkv_store_bytes_written_total{store="metrics-test"} 3`), out)
	assert.True(t, strings.Contains(out, `fkv_store_bytes_read_total{store="metrics-test"} 3`), out)
}
