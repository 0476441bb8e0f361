package eeprom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCodec(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		word uint32
	}{
		{"zero", Record{Address: 0, Value: 0}, 0x00000000},
		{"config address", Record{Address: 42, Value: 0x1234}, 0x002A1234},
		{"highest address", Record{Address: MaxAddress, Value: 0xFFFF}, 0xFFFEFFFF},
		{"value all ones", Record{Address: 0x0100, Value: 0xFFFF}, 0x0100FFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.word, EncodeRecord(tt.rec))
			rec, ok := DecodeRecord(tt.word)
			assert.True(t, ok)
			assert.Equal(t, tt.rec, rec)
		})
	}
}

func TestRecordSentinel(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), SentinelWord)
	_, ok := DecodeRecord(SentinelWord)
	assert.False(t, ok, "the erased word is never a record")
}

func TestRecordBytes(t *testing.T) {
	rec := Record{Address: 10, Value: 0xBBAA}
	assert.Equal(t, byte(0xAA), rec.Byte(10))
	assert.Equal(t, byte(0xBB), rec.Byte(11))

	rec = rec.WithByte(11, 0x11)
	assert.Equal(t, uint16(0x11AA), rec.Value)
	rec = rec.WithByte(10, 0x22)
	assert.Equal(t, uint16(0x1122), rec.Value)

	assert.Equal(t, uint16(10), recordAddress(10))
	assert.Equal(t, uint16(10), recordAddress(11))
	assert.Equal(t, "0x000A=0x1122", rec.String())
}
