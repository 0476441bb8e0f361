// Package cmd implements the fkv command-line interface. It provides commands
// for running the server, talking to it as a client and working with flash
// image files directly.
//
// The package is organized into several subpackages:
//
//   - serve: starts an RPC server hosting one emulated EEPROM per shard
//   - ee: EEPROM operations (init, format, read, write, entries, info, perf)
//     against a server shard or, with --image, a local flash image
//   - image: creates erased flash images and dumps their pages
//   - util: shared flag, configuration and parsing helpers (internal use)
//
// Every flag can also be set through the environment as FKV_<FLAG> with dashes
// replaced by underscores; .env and .env.local are loaded first.
//
// See fkv -help for a list of all commands.
package cmd
