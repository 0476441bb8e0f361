package server

import (
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It translates a request message into calls on the store of a shard.
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// Errors are reported inside the response, never as a nil response.
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
