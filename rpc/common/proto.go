package common

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Address uint16 `json:"address,omitempty"` // Used for: Read, Write requests
	Length  uint32 `json:"length,omitempty"`  // Used for: Read requests, Write responses (bytes written)
	Value   []byte `json:"value,omitempty"`   // Used for: Write requests, Read and Entries responses

	// Response only fields
	Code uint64 `json:"code,omitempty"` // store.RetCode of Err
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info responses (json encoded eeprom.Info)
}

// withErr stores err and its return code in the message.
func (m *Message) withErr(err error) *Message {
	if err == nil {
		return m
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		m.Code = uint64(storeErr.Code)
		m.Err = storeErr.Msg
	} else {
		m.Code = uint64(store.RetCInternalError)
		m.Err = err.Error()
	}
	return m
}

// Error returns the error carried by a response, or nil.
func (m *Message) Error() error {
	if m.Err == "" && m.MsgType != MsgTError {
		return nil
	}
	code := store.RetCode(m.Code)
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewInitRequest creates a new Init request
func NewInitRequest() *Message {
	return &Message{MsgType: MsgTEEInit}
}

// NewInitResponse creates a new Init response
func NewInitResponse(err error) *Message {
	return (&Message{MsgType: MsgTEEInit}).withErr(err)
}

// NewFormatRequest creates a new Format request
func NewFormatRequest() *Message {
	return &Message{MsgType: MsgTEEFormat}
}

// NewFormatResponse creates a new Format response
func NewFormatResponse(err error) *Message {
	return (&Message{MsgType: MsgTEEFormat}).withErr(err)
}

// NewReadRequest creates a new Read request
func NewReadRequest(address uint16, length int) *Message {
	return &Message{
		MsgType: MsgTEERead,
		Address: address,
		Length:  uint32(length),
	}
}

// NewReadResponse creates a new Read response. data may be shorter than requested
// if err is set.
func NewReadResponse(data []byte, err error) *Message {
	if data == nil {
		data = []byte{}
	}
	return (&Message{
		MsgType: MsgTEERead,
		Value:   data,
	}).withErr(err)
}

// NewWriteRequest creates a new Write request
func NewWriteRequest(address uint16, data []byte) *Message {
	return &Message{
		MsgType: MsgTEEWrite,
		Address: address,
		Value:   data,
	}
}

// NewWriteResponse creates a new Write response
func NewWriteResponse(n int, err error) *Message {
	return (&Message{
		MsgType: MsgTEEWrite,
		Length:  uint32(n),
	}).withErr(err)
}

// NewEntriesRequest creates a new Entries request
func NewEntriesRequest() *Message {
	return &Message{MsgType: MsgTEEEntries}
}

// NewEntriesResponse creates a new Entries response. The records are packed into
// Value as big endian words in flash record format.
func NewEntriesResponse(entries []eeprom.Record, err error) *Message {
	packed := make([]byte, 4*len(entries))
	for i, rec := range entries {
		binary.BigEndian.PutUint32(packed[4*i:], eeprom.EncodeRecord(rec))
	}
	return (&Message{
		MsgType: MsgTEEEntries,
		Value:   packed,
	}).withErr(err)
}

// Entries unpacks the records of an Entries response.
func (m *Message) Entries() ([]eeprom.Record, error) {
	if len(m.Value)%4 != 0 {
		return nil, fmt.Errorf("entries payload of %d bytes is not a multiple of 4", len(m.Value))
	}
	entries := make([]eeprom.Record, 0, len(m.Value)/4)
	for i := 0; i < len(m.Value); i += 4 {
		rec, ok := eeprom.DecodeRecord(binary.BigEndian.Uint32(m.Value[i:]))
		if !ok {
			return nil, fmt.Errorf("entries payload holds an unwritten record at %d", i/4)
		}
		entries = append(entries, rec)
	}
	return entries, nil
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{MsgType: MsgTEEInfo}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(info eeprom.Info, err error) *Message {
	msg := &Message{MsgType: MsgTEEInfo}
	if err != nil {
		return msg.withErr(err)
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return msg.withErr(err)
	}
	msg.Meta = meta
	return msg
}

// Info decodes the payload of an Info response.
func (m *Message) Info() (eeprom.Info, error) {
	var info eeprom.Info
	if err := json.Unmarshal(m.Meta, &info); err != nil {
		return eeprom.Info{}, fmt.Errorf("decode info: %w", err)
	}
	return info, nil
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code store.RetCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    uint64(code),
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:   "success",
	MsgTError:     "error",
	MsgTEEInit:    "init",
	MsgTEEFormat:  "format",
	MsgTEERead:    "read",
	MsgTEEWrite:   "write",
	MsgTEEEntries: "entries",
	MsgTEEInfo:    "info",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTEEInit    // Recover the pages after power up
	MsgTEEFormat  // Erase all data
	MsgTEERead    // Read a byte range
	MsgTEEWrite   // Write a byte range
	MsgTEEEntries // List all live records
	MsgTEEInfo    // Page states and counters
)
