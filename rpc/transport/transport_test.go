package transport_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/transport"
	httpTransport "github.com/ValentinKolb/fKV/rpc/transport/http"
	"github.com/ValentinKolb/fKV/rpc/transport/tcp"
	"github.com/ValentinKolb/fKV/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportCase struct {
	name     string
	endpoint func(t *testing.T) string
	server   func() transport.IRPCServerTransport
	client   func() transport.IRPCClientTransport
}

var transportCases = []transportCase{
	{
		name:     "tcp",
		endpoint: func(*testing.T) string { return "127.0.0.1:0" },
		server:   tcp.NewTCPDefaultServerTransport,
		client:   tcp.NewTCPClientTransport,
	},
	{
		name:     "unix",
		endpoint: func(t *testing.T) string { return filepath.Join(t.TempDir(), "fkv.sock") },
		server:   unix.NewUnixDefaultServerTransport,
		client:   unix.NewUnixClientTransport,
	},
	{
		name:     "http",
		endpoint: func(*testing.T) string { return "127.0.0.1:0" },
		server:   httpTransport.NewHttpServerTransport,
		client:   httpTransport.NewHttpClientTransport,
	},
}

// startServer runs the server transport in the background and returns its bound address.
func startServer(t *testing.T, tc transportCase, handler transport.ServerHandleFunc) string {
	t.Helper()

	srv := tc.server()
	srv.RegisterHandler(handler)

	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(common.ServerConfig{Endpoint: tc.endpoint(t), TimeoutSecond: 5})
	}()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	addr := srv.Addr().String()

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Listen did not return after Close")
		}
	})
	return addr
}

func connect(t *testing.T, tc transportCase, addr string) transport.IRPCClientTransport {
	t.Helper()
	client := tc.client()
	require.NoError(t, client.Connect(common.ClientConfig{
		Endpoints:              []string{addr},
		TimeoutSecond:          5,
		RetryCount:             2,
		ConnectionsPerEndpoint: 2,
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// echo prefixes the request with the shard id
func echo(shardId uint64, req []byte) []byte {
	return append([]byte(fmt.Sprintf("%d:", shardId)), req...)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range transportCases {
		t.Run(tc.name, func(t *testing.T) {
			client := connect(t, tc, startServer(t, tc, echo))

			resp, err := client.Send(7, []byte("hello"))
			require.NoError(t, err)
			assert.Equal(t, "7:hello", string(resp))

			resp, err = client.Send(8, nil)
			require.NoError(t, err)
			assert.Equal(t, "8:", string(resp))
		})
	}
}

func TestConcurrentRequests(t *testing.T) {
	for _, tc := range transportCases {
		t.Run(tc.name, func(t *testing.T) {
			client := connect(t, tc, startServer(t, tc, echo))

			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					payload := bytes.Repeat([]byte{byte(i)}, 100+i)
					resp, err := client.Send(uint64(i), payload)
					if assert.NoError(t, err) {
						assert.Equal(t, echo(uint64(i), payload), resp)
					}
				}(i)
			}
			wg.Wait()
		})
	}
}

func TestLargePayload(t *testing.T) {
	for _, tc := range transportCases {
		t.Run(tc.name, func(t *testing.T) {
			client := connect(t, tc, startServer(t, tc, func(_ uint64, req []byte) []byte { return req }))

			payload := bytes.Repeat([]byte{0xAB}, 1024*1024)
			resp, err := client.Send(1, payload)
			require.NoError(t, err)
			assert.Equal(t, payload, resp)
		})
	}
}

func TestConnectFailure(t *testing.T) {
	client := unix.NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{
		Endpoints: []string{filepath.Join(t.TempDir(), "missing.sock")},
	})
	assert.Error(t, err)

	assert.Error(t, tcp.NewTCPClientTransport().Connect(common.ClientConfig{}))
}

func TestHttpMetrics(t *testing.T) {
	tc := transportCases[2]
	addr := startServer(t, tc, echo)

	// one request so the transport has served something
	_, err := connect(t, tc, addr).Send(1, []byte("x"))
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}
