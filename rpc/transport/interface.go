package transport

import (
	"net"

	"github.com/ValentinKolb/fKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles one request addressed to a shard.
// The transport calls it for every request frame it receives and sends the
// returned bytes back to the caller unchanged.
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the server side of a transport
type IRPCServerTransport interface {
	// RegisterHandler sets the handler requests are routed to.
	// It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen accepts requests on config.Endpoint until Close is called.
	// It returns nil after a regular Close.
	Listen(config common.ServerConfig) error
	// Addr returns the bound address, nil while the transport is not listening
	Addr() net.Addr
	// Close stops accepting requests and releases the listener
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the client side of a transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to a shard and waits for the response
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close closes all connections
	Close() error
}
