// Package testing provides a standardised conformance suite for implementations
// of the store.IStore interface.
//
// The suite only relies on the behaviour documented on store.IStore, so it runs
// unchanged against the local store and against a store reached over RPC.
//
// Example usage:
//
//	factory := func() store.IStore {
//		s, _ := lstore.NewLocalStore("test", newMemEEPROM)
//		return s
//	}
//	storetesting.RunIStoreTests(t, "LocalStore", factory)
package testing
