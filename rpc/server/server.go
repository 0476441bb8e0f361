package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/lstore"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/serializer"
	"github.com/ValentinKolb/fKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles
// requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// RPCServer serves a set of emulated EEPROMs, one per shard, over a transport.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	closeMu sync.Mutex
	closers []io.Closer
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// Serve creates the shards, recovers their pages and listens until Close is called.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		s.closeShards()
		return err
	}
	defer s.closeShards()
	return s.transport.Listen(s.config)
}

// Addr returns the address the transport is bound to, nil before Serve listens.
func (s *RPCServer) Addr() string {
	if addr := s.transport.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Close stops the transport. Serve returns once in-flight requests are answered
// and all flash images are unmapped.
func (s *RPCServer) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		shard, ok := s.shards.Load(shardId)
		if !ok {
			respMsg = common.NewErrorResponse(store.RetCInvalidOperation, fmt.Sprintf("shard %d not found", shardId))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(store.RetCInternalError, fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = shard.Adapter.Handle(&msg, shard.Store)
		}

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response for shard %d: %v", shardId, err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(store.RetCInternalError, fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

func (s *RPCServer) init() error {
	opts := s.config.EEPROMOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	for _, shardConfig := range s.config.Shards {
		factory, err := s.flashFactory(shardConfig, opts)
		if err != nil {
			return fmt.Errorf("shard %d: %w", shardConfig.ShardID, err)
		}

		st, err := lstore.NewLocalStore(fmt.Sprintf("shard-%d", shardConfig.ShardID), factory)
		if err != nil {
			return fmt.Errorf("shard %d: %w", shardConfig.ShardID, err)
		}

		// a shard that fails recovery stays reachable so it can be inspected or formatted
		if !s.config.SkipRecovery {
			if err := st.Init(); err != nil {
				Logger.Errorf("shard %d: recovery failed: %v", shardConfig.ShardID, err)
			}
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   st,
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created shard %d on %s", shardConfig.ShardID, shardConfig.Backend)
	}

	Logger.Infof("fKV setup completed successfully")

	s.registerTransportHandler()
	return nil
}

// flashFactory returns the EEPROM factory of a shard. Image backed shards
// create their image on first use and are closed when the server stops.
func (s *RPCServer) flashFactory(shard common.ServerShard, opts *eeprom.Options) (store.EEPROMFactory, error) {
	geo := opts.Geometry()

	if shard.IsMemory() {
		return func() (*eeprom.EEPROM, error) {
			f, err := flash.NewMemFlash(geo)
			if err != nil {
				return nil, err
			}
			return eeprom.New(f, opts)
		}, nil
	}

	if _, err := os.Stat(shard.Backend); errors.Is(err, os.ErrNotExist) {
		if err := flash.CreateImage(shard.Backend, geo); err != nil {
			return nil, err
		}
		Logger.Infof("created flash image %s (%s)", shard.Backend, geo)
	}

	return func() (*eeprom.EEPROM, error) {
		f, err := flash.OpenFileFlash(shard.Backend, geo)
		if err != nil {
			return nil, err
		}
		s.closeMu.Lock()
		s.closers = append(s.closers, f)
		s.closeMu.Unlock()
		return eeprom.New(f, opts)
	}, nil
}

// closeShards releases all flash images
func (s *RPCServer) closeShards() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			Logger.Errorf("failed to close flash image: %v", err)
		}
	}
	s.closers = nil
}
