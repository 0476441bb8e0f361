// Package tcp implements the framed RPC transport over TCP.
//
// Both sides disable Nagle's algorithm and enable keep-alive on every
// connection, since EEPROM requests are small and latency bound.
// Framing, request correlation and retries come from the base package.
package tcp
