// Package transport defines the contract between the RPC layer and the wire.
// A transport only moves opaque byte slices tagged with a shard ID; encoding
// is left to the serializer package and dispatch to the server package.
//
// Implementations:
//
//   - tcp and unix: framed, multiplexed connections built on the base package.
//
//   - http: one POST request per call to /{shardId}. The server also exposes
//     the process metrics under GET /metrics.
package transport
