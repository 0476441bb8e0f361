package server

import (
	"net"

	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/ValentinKolb/fKV/rpc/transport"
)

// captureTransport hands the registered handler to the test instead of listening
type captureTransport struct {
	handle *func(uint64, []byte) []byte
}

func (c *captureTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	*c.handle = handler
}

func (c *captureTransport) Listen(common.ServerConfig) error { return nil }

func (c *captureTransport) Addr() net.Addr { return nil }

func (c *captureTransport) Close() error { return nil }
