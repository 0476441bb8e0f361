// Package serializer encodes the RPC messages of fKV. It defines a common
// interface and three implementations for turning a common.Message into bytes
// and back.
//
// Key Components:
//
//   - IRPCSerializer: the interface every format implements.
//
//   - binarySerializerImpl: Custom binary format. A flag byte records which of
//     address, length, value, code, error and meta are present; only those are
//     written. A two byte write to a non-zero address takes 10 bytes on the wire.
//
//   - gobSerializerImpl: Go's gob encoding. Each message repeats its type
//     description, which makes it the largest format.
//
//   - jsonSerializerImpl: JSON with string message types ("read", "write", ...).
//     Unknown fields are rejected. Useful with the HTTP transport and curl.
//
// Choosing a format:
//
//	EEPROM requests are tiny (an address and a few bytes), so per message overhead
//	dominates. Binary is the default of the fkv CLI. JSON is the one to pick when
//	a human or another language is on the other end. Client and server must use
//	the same format, nothing on the wire identifies it.
//
// Thread Safety:
//
//	All serializers are stateless and safe for concurrent use.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewReadRequest(0x10, 4))
//	// ... send data ...
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
