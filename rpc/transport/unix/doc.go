// Package unix implements the framed RPC transport over Unix domain sockets.
// It is the preferred transport when the fkv CLI and server share a host.
//
// The connectors only create listeners and dial sockets; framing, request
// correlation and retries come from the base package. A stale socket file at
// the endpoint path is removed before listening.
package unix
