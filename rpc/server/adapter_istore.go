package server

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse(store.RetCInternalError, "handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTEEInit:
		return common.NewInitResponse(s.Init())
	case common.MsgTEEFormat:
		return common.NewFormatResponse(s.Format())
	case common.MsgTEERead:
		data, err := s.Read(req.Address, int(req.Length))
		return common.NewReadResponse(data, err)
	case common.MsgTEEWrite:
		n, err := s.Write(req.Address, req.Value)
		return common.NewWriteResponse(n, err)
	case common.MsgTEEEntries:
		entries, err := s.Entries()
		return common.NewEntriesResponse(entries, err)
	case common.MsgTEEInfo:
		info, err := s.GetInfo()
		return common.NewInfoResponse(info, err)
	default:
		return common.NewErrorResponse(
			store.RetCInvalidOperation,
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
