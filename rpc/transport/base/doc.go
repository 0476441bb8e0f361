// Package base implements the framed, multiplexed transport shared by the tcp
// and unix packages. Protocol specific code is injected through
// IClientConnector and IServerConnector; everything else lives here.
//
// Frame layout (big endian):
//
//	+-----------+-------------+------------+-----------------+
//	| shardID 8 | requestID 8 | length 4   | payload length  |
//	+-----------+-------------+------------+-----------------+
//
// Payloads larger than MaxFrameSize are rejected on both sides.
//
// Client:
//
//   - Keeps ConnectionsPerEndpoint connections to every endpoint and picks
//     one round-robin per request.
//   - Correlates responses by requestID, so many requests can be in flight
//     on one connection. A dedicated goroutine reads responses.
//   - When a connection breaks all requests pending on it fail with
//     ErrConnectionLost and the reader reconnects once.
//   - Failed requests are retried RetryCount times with exponential backoff.
//
// Server:
//
//   - Serves every accepted connection in its own goroutine and handles up to
//     maxWorkersPerConn requests of one connection concurrently.
//   - Reuses read buffers through a sync.Pool.
//   - Close stops the listener, closes open connections and makes Listen
//     return nil once in-flight requests are answered.
package base
