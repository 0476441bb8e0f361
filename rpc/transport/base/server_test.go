package base

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueListener hands out the connections sent on conns and fails once conns is closed.
type queueListener struct {
	conns chan net.Conn
}

func (l *queueListener) Accept() (net.Conn, error) {
	conn, ok := <-l.conns
	if !ok {
		return nil, net.ErrClosed
	}
	return conn, nil
}

func (l *queueListener) Close() error   { return nil }
func (l *queueListener) Addr() net.Addr { return &net.UnixAddr{Name: "queue", Net: "unix"} }

type queueConnector struct {
	listener *queueListener
}

func (c queueConnector) Listen(common.ServerConfig) (net.Listener, error) { return c.listener, nil }
func (c queueConnector) GetName() string                                  { return "queue" }
func (c queueConnector) UpgradeConnection(net.Conn) error                 { return nil }

// A connection accepted while Close runs must be closed as well, otherwise Listen
// waits for the peer to hang up.
func TestCloseDropsConnectionAcceptedLate(t *testing.T) {
	listener := &queueListener{conns: make(chan net.Conn, 1)}
	tr := NewBaseServerTransport(queueConnector{listener: listener}, 1024, 1)
	tr.RegisterHandler(func(shardId uint64, req []byte) []byte { return req })

	done := make(chan error, 1)
	go func() { done <- tr.Listen(common.ServerConfig{TimeoutSecond: 1}) }()
	require.Eventually(t, func() bool { return tr.Addr() != nil }, time.Second, time.Millisecond)

	require.NoError(t, tr.Close())

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	listener.conns <- serverSide
	close(listener.conns)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Close")
	}

	_ = clientSide.SetReadDeadline(time.Now().Add(time.Second))
	_, err := clientSide.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF, "the late connection is closed by the server")
}
