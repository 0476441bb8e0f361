package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/fKV/rpc/common"
)

// NewBinarySerializer creates a new serializer using a compact custom binary format
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: 1 byte type, 1 byte flags, then every field whose flag is set in the
// order of the flags below. Integers are big endian, byte fields carry a
// 4 byte length prefix.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasAddress byte = 1 << 0
	hasLength  byte = 1 << 1
	hasValue   byte = 1 << 2
	hasCode    byte = 1 << 3
	hasErr     byte = 1 << 4
	hasMeta    byte = 1 << 5
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Address != 0 {
		flags |= hasAddress
		result = binary.BigEndian.AppendUint16(result, msg.Address)
	}
	if msg.Length != 0 {
		flags |= hasLength
		result = binary.BigEndian.AppendUint32(result, msg.Length)
	}
	if msg.Value != nil {
		flags |= hasValue
		result = appendBytes(result, msg.Value)
	}
	if msg.Code != 0 {
		flags |= hasCode
		result = binary.BigEndian.AppendUint64(result, msg.Code)
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendBytes(result, []byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		result = appendBytes(result, msg.Meta)
	}

	// set flags byte after knowing which fields are present
	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := reader{data: data, pos: 2}

	if flags&hasAddress != 0 {
		v, err := r.uint(2, "address")
		if err != nil {
			return err
		}
		msg.Address = uint16(v)
	}
	if flags&hasLength != 0 {
		v, err := r.uint(4, "length")
		if err != nil {
			return err
		}
		msg.Length = uint32(v)
	}
	if flags&hasValue != 0 {
		v, err := r.bytes("value")
		if err != nil {
			return err
		}
		msg.Value = v
	}
	if flags&hasCode != 0 {
		v, err := r.uint(8, "code")
		if err != nil {
			return err
		}
		msg.Code = v
	}
	if flags&hasErr != 0 {
		v, err := r.bytes("error")
		if err != nil {
			return err
		}
		msg.Err = string(v)
	}
	if flags&hasMeta != 0 {
		v, err := r.bytes("meta")
		if err != nil {
			return err
		}
		msg.Meta = v
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Address != 0 {
		size += 2
	}
	if msg.Length != 0 {
		size += 4
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value) // 4 bytes for length + value bytes
	}
	if msg.Code != 0 {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}
	return size
}

// appendBytes appends a length prefixed byte field
func appendBytes(dst, field []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(field)))
	return append(dst, field...)
}

// reader walks a serialized message with bounds checks
type reader struct {
	data []byte
	pos  int
}

func (r *reader) uint(width int, field string) (uint64, error) {
	if r.pos+width > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	b := r.data[r.pos : r.pos+width]
	r.pos += width
	switch width {
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	default:
		return binary.BigEndian.Uint64(b), nil
	}
}

// bytes reads a length prefixed field. The result is a copy, empty but not nil
// for a zero length field.
func (r *reader) bytes(field string) ([]byte, error) {
	n, err := r.uint(4, field+" length")
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}
