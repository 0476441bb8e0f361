package client

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/serializer"
	"github.com/ValentinKolb/fKV/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It connects the transport and returns a store.IStore that forwards every call to the shard
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Init() error {
	_, err := invokeRPCRequest(i.shardId, common.NewInitRequest(), i.transport, i.serializer)
	return err
}

func (i *rpcStore) Format() error {
	_, err := invokeRPCRequest(i.shardId, common.NewFormatRequest(), i.transport, i.serializer)
	return err
}

func (i *rpcStore) Read(address uint16, length int) ([]byte, error) {
	if length < 0 || length > store.MaxReadLength {
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("invalid read length %d", length))
	}
	resp, err := invokeRPCRequest(i.shardId, common.NewReadRequest(address, length), i.transport, i.serializer)
	if resp == nil {
		return nil, err
	}
	return resp.Value, err
}

func (i *rpcStore) Write(address uint16, data []byte) (int, error) {
	resp, err := invokeRPCRequest(i.shardId, common.NewWriteRequest(address, data), i.transport, i.serializer)
	if resp == nil {
		return 0, err
	}
	return int(resp.Length), err
}

func (i *rpcStore) Entries() ([]eeprom.Record, error) {
	resp, err := invokeRPCRequest(i.shardId, common.NewEntriesRequest(), i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	entries, err := resp.Entries()
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}
	return entries, nil
}

func (i *rpcStore) GetInfo() (eeprom.Info, error) {
	resp, err := invokeRPCRequest(i.shardId, common.NewInfoRequest(), i.transport, i.serializer)
	if err != nil {
		return eeprom.Info{}, err
	}
	info, err := resp.Info()
	if err != nil {
		return eeprom.Info{}, store.NewError(store.RetCInternalError, err.Error())
	}
	return info, nil
}
