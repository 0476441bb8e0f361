// Package client implements the RPC client of fKV: a store.IStore whose calls
// are executed by a shard of a remote server.
//
// Errors keep their store.RetCode across the wire, so store.CodeOf works the
// same on a remote store as on a local one. Transport and decoding failures
// are reported as store.RetCInternalError. Read and Write return the partial
// result of an operation that stopped early together with its error, exactly
// like the local store.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:8080"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	ee, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  return err
//	}
//
//	if _, err := ee.Write(0x10, []byte{0x01, 0x2C}); err != nil {
//	  return err
//	}
//	data, err := ee.Read(0x10, 2)
//
// Retries are done by the transport. A retried Write is safe: writing a value
// that is already stored is elided by the EEPROM.
//
// Thread Safety:
//
//	The client is safe for concurrent use. Requests of one client are
//	serialized per shard on the server.
package client
