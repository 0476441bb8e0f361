package serializer

import "github.com/ValentinKolb/fKV/rpc/common"

// IRPCSerializer turns a common.Message into bytes and back. Implementations are
// stateless and may be shared between goroutines.
type IRPCSerializer interface {
	// Serialize encodes msg. The returned slice is owned by the caller.
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg, overwriting all of its fields
	Deserialize(b []byte, msg *common.Message) error
}
