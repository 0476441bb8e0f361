package serializer

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages(t *testing.T) []common.Message {
	info := eeprom.Info{ActivePage: 1, Capacity: 255, UsedSlots: 3, FreeSlots: 252}
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		*common.NewReadRequest(42, 8),
		*common.NewReadResponse([]byte{1, 2, 3}, nil),
		*common.NewWriteRequest(0xFFFE, []byte{0xAA}),
		*common.NewWriteResponse(1, store.NewError(store.RetCAddressOutOfRange, "eeprom: address out of range: 0xFFFF")),
		*common.NewEntriesResponse([]eeprom.Record{{Address: 2, Value: 0x0102}, {Address: 42, Value: 0}}, nil),
		*common.NewInfoResponse(info, nil),
		*common.NewErrorResponse(store.RetCInternalError, "test error message"),

		// Message with all fields filled
		{
			MsgType: common.MsgTEEWrite,
			Address: 0x1234,
			Length:  70000,
			Value:   []byte("value"),
			Code:    uint64(store.RetCFlashError),
			Err:     "flash: power lost during operation",
			Meta:    []byte("meta"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range testMessages(t) {
				data, err := serializer.Serialize(msg)
				require.NoError(t, err, "message %d", i)

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), "message %d", i)
				assert.Equal(t, msg, result, "message %d", i)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// MsgTUnknown is left out since the JSON serializer rejects it
			for msgType := common.MsgTSuccess; msgType <= common.MsgTEEInfo; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				require.NoError(t, err, msgType.String())

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), msgType.String())
				assert.Equal(t, msgType, result.MsgType)
			}
		})
	}
}

// TestPayloadHelpers checks that entries, info and errors survive every serializer
func TestPayloadHelpers(t *testing.T) {
	entries := []eeprom.Record{{Address: 0, Value: 0xFFFF}, {Address: 0xFFFE, Value: 1}}
	info := eeprom.Info{ActivePage: 0, Compactions: 3}
	info.Pages[0].Status = eeprom.PageActive

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			roundTrip := func(msg *common.Message) common.Message {
				data, err := serializer.Serialize(*msg)
				require.NoError(t, err)
				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result))
				return result
			}

			msg := roundTrip(common.NewEntriesResponse(entries, nil))
			got, err := msg.Entries()
			require.NoError(t, err)
			assert.Equal(t, entries, got)
			assert.NoError(t, msg.Error())

			msg = roundTrip(common.NewInfoResponse(info, nil))
			gotInfo, err := msg.Info()
			require.NoError(t, err)
			assert.Equal(t, info, gotInfo)

			msg = roundTrip(common.NewReadResponse([]byte{7}, store.NewError(store.RetCAddressOutOfRange, "0xFFFF")))
			assert.Equal(t, []byte{7}, msg.Value)
			assert.Equal(t, store.RetCAddressOutOfRange, store.CodeOf(msg.Error()))
		})
	}
}

// TestBinarySerializerSpecific tests edge cases of the binary format
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{"Empty message", common.Message{}},
		{"Empty value slice but not nil", common.Message{MsgType: common.MsgTEERead, Value: []byte{}}},
		{"Empty meta slice but not nil", common.Message{MsgType: common.MsgTEEInfo, Meta: []byte{}}},
		{"Address only", common.Message{MsgType: common.MsgTEERead, Address: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			require.NoError(t, err)

			var result common.Message
			require.NoError(t, serializer.Deserialize(data, &result))
			assert.Equal(t, tc.msg, result)
		})
	}

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTEEWrite, Address: 0x0102, Value: []byte{9}})
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(common.MsgTEEWrite), hasAddress | hasValue, 0x01, 0x02, 0, 0, 0, 1, 9}, data)
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{"Empty data", []byte{}, true},
		{"Too short header", []byte{1}, true},
		{"Valid header only", []byte{1, 0}, false},
		{"Truncated address", []byte{5, hasAddress, 0}, true},
		{"Invalid length for value", []byte{5, hasValue, 0, 0, 0, 10}, true},
		{"Truncated error", []byte{2, hasErr, 0, 0, 0, 5, 'a', 'b'}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestJSONRejectsUnknownFields makes sure messages from a mismatched protocol version fail loudly
func TestJSONRejectsUnknownFields(t *testing.T) {
	var msg common.Message
	err := NewJSONSerializer().Deserialize([]byte(`{"msg_type":"read","key":"x"}`), &msg)
	assert.Error(t, err)

	require.NoError(t, NewJSONSerializer().Deserialize([]byte(`{"msg_type":"read","address":4}`), &msg))
	assert.Equal(t, common.MsgTEERead, msg.MsgType)
	assert.Equal(t, uint16(4), msg.Address)
}
