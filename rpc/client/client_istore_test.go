package client_test

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
	storetesting "github.com/ValentinKolb/fKV/lib/store/testing"
	"github.com/ValentinKolb/fKV/rpc/client"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/serializer"
	"github.com/ValentinKolb/fKV/rpc/server"
	"github.com/ValentinKolb/fKV/rpc/transport"
	httpTransport "github.com/ValentinKolb/fKV/rpc/transport/http"
	"github.com/ValentinKolb/fKV/rpc/transport/tcp"
	"github.com/ValentinKolb/fKV/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shardCount covers one fresh shard per subtest of the store suite
const shardCount = 16

type setup struct {
	name       string
	endpoint   func(t *testing.T) string
	server     func() transport.IRPCServerTransport
	client     func() transport.IRPCClientTransport
	serializer func() serializer.IRPCSerializer
}

var setups = []setup{
	{
		name:       "unix/binary",
		endpoint:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "fkv.sock") },
		server:     unix.NewUnixDefaultServerTransport,
		client:     unix.NewUnixClientTransport,
		serializer: serializer.NewBinarySerializer,
	},
	{
		name:       "tcp/gob",
		endpoint:   func(*testing.T) string { return "127.0.0.1:0" },
		server:     tcp.NewTCPDefaultServerTransport,
		client:     tcp.NewTCPClientTransport,
		serializer: serializer.NewGOBSerializer,
	},
	{
		name:       "http/json",
		endpoint:   func(*testing.T) string { return "127.0.0.1:0" },
		server:     httpTransport.NewHttpServerTransport,
		client:     httpTransport.NewHttpClientTransport,
		serializer: serializer.NewJSONSerializer,
	},
}

// startServer serves shardCount uninitialized in-memory shards with ids 1..shardCount.
func startServer(t *testing.T, s setup) string {
	t.Helper()

	shards := make([]common.ServerShard, shardCount)
	for i := range shards {
		shards[i] = common.ServerShard{ShardID: uint64(i + 1), Backend: common.BackendMemory}
	}

	srv := server.NewRPCServer(common.ServerConfig{
		Shards:        shards,
		PageSize:      1024,
		BaseAddress:   0x08007800,
		SkipRecovery:  true,
		TimeoutSecond: 5,
		Endpoint:      s.endpoint(t),
		LogLevel:      "error",
	}, s.server(), s.serializer())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	addr := srv.Addr()

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		require.NoError(t, <-done)
	})
	return addr
}

func newClient(t *testing.T, s setup, addr string, shardId uint64) store.IStore {
	t.Helper()

	tr := s.client()
	st, err := client.NewRPCStore(shardId, common.ClientConfig{
		Endpoints:     []string{addr},
		TimeoutSecond: 5,
		RetryCount:    1,
	}, tr, s.serializer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return st
}

func TestRPCStore(t *testing.T) {
	for _, s := range setups {
		addr := startServer(t, s)

		var next atomic.Uint64
		storetesting.RunIStoreTests(t, "RPCStore/"+s.name, func() store.IStore {
			shardId := next.Add(1)
			require.LessOrEqual(t, shardId, uint64(shardCount), "not enough shards")
			return newClient(t, s, addr, shardId)
		})
	}
}

func TestUnknownShard(t *testing.T) {
	s := setups[0]
	st := newClient(t, s, startServer(t, s), 999)

	err := st.Init()
	require.Error(t, err)
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err))
	assert.Contains(t, err.Error(), "shard 999 not found")
}

func TestShardsAreIsolated(t *testing.T) {
	s := setups[0]
	addr := startServer(t, s)

	a, b := newClient(t, s, addr, 1), newClient(t, s, addr, 2)
	require.NoError(t, a.Init())
	require.NoError(t, b.Init())

	_, err := a.Write(0, []byte{0x11})
	require.NoError(t, err)

	data, err := b.Read(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, data, fmt.Sprintf("shard 2 saw %v", data))
}
