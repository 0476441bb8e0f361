// Package store provides a high-level interface for emulated EEPROM stores with unified
// error handling. It serves as an abstraction layer over lib/eeprom, adding
// synchronization, metrics and standardized error reporting.
//
// The package focuses on:
//   - A unified interface (IStore) implemented by the local store and by the RPC client
//   - Pluggable flash backends through the EEPROMFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining the operations Init, Format, Read,
//     Write, Entries and GetInfo. Applications can switch between an in-process store and
//     a store served over RPC without code changes.
//
//   - Error System: A structured error reporting mechanism using typed return codes
//     (RetCode) and descriptive messages. ErrorFrom maps the sentinel errors of the
//     eeprom and flash packages to return codes; codes survive the trip over RPC.
//
//   - EEPROMFactory: A function type that abstracts the creation of the underlying
//     eeprom.EEPROM and its flash backend.
//
// Implementations:
//
//   - Local Store (lstore): wraps an eeprom.EEPROM behind a mutex and counts operations
//     with VictoriaMetrics. Available in "github.com/ValentinKolb/fKV/lib/store/lstore".
//
//   - RPC Client: implements IStore by forwarding calls to a remote shard.
//     Available in "github.com/ValentinKolb/fKV/rpc/client".
//
// The conformance suite in lib/store/testing is run against both implementations.
package store
