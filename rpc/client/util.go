package client

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/serializer"
	"github.com/ValentinKolb/fKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest sends req to the shard and decodes the response.
// Transport and decoding failures return a nil message with an error of code
// store.RetCInternalError. A store error reported by the server is returned
// together with the response, since responses may carry partial results.
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("serialize request: %s", err))
	}

	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("send request: %s", err))
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("deserialize response: %s", err))
	}

	if resp.MsgType == common.MsgTError {
		return nil, resp.Error()
	}
	if resp.MsgType != req.MsgType {
		return nil, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, resp.Error()
}
