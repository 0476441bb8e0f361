// Package server implements the RPC server of fKV. Every shard of a server is
// one emulated EEPROM; its flash lives either in memory or in a flash image
// file that is created on first start.
//
// Requests arrive through a transport.IRPCServerTransport, are decoded with
// the configured serializer and handed to the IRPCServerAdapter of the shard,
// which turns them into calls on a store.IStore. Store errors travel back to
// the client as return code plus message.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Backend: common.BackendMemory},
//	    {ShardID: 200, Backend: "/var/lib/fkv/cfg.img"},
//	  },
//	  PageSize:      1024,
//	  BaseAddress:   0x08007800,
//	  Endpoint:      "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Every shard runs Init on startup. A shard whose recovery fails is still
// served, so a client can read its Info or Format it.
//
// Thread Safety:
//
//	Requests for different shards run in parallel, requests for the same
//	shard are serialized by its store. Serve must be called only once.
package server
