// Package rpc exposes emulated EEPROMs over the network. It sits between the
// fkv command line tool and the store package.
//
// The package is organized into several subpackages:
//
//   - common: the Message protocol, server and client configuration and the
//     logger setup shared by all fKV binaries.
//
//   - transport: byte level communication with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message encoding (Binary, JSON, GOB).
//
//   - client: a store.IStore that forwards every call to a server shard.
//
//   - server: hosts one store per shard and answers requests through an adapter.
package rpc
