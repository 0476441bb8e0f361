// Package common provides core data structures and utilities shared by the RPC
// server, the RPC client and the command line tool.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with the Dragonboat logger package
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with factory methods
//     for every request and response. Errors travel as return code plus message and
//     are turned back into a *store.Error by Message.Error. Entries are packed as
//     record words, Info as JSON in the Meta field.
//
//   - MessageType: Enumeration of all supported operations (init, format, read,
//     write, entries, info) plus the success and error control messages.
//
//   - ServerConfig: Shards, flash layout, endpoint, timeout and log level of a
//     server. ParseShards reads the "<id>=<mem|path>" list given on the command line.
//
//   - ClientConfig: Connection parameters, timeouts and retry behaviour of clients.
//
//   - Logger: Custom logging implementation for the dragonboat logger.ILogger
//     interface providing consistent formatting across the application.
package common
