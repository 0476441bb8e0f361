// Package lstore implements a local, single-node store based on the store.IStore
// interface. It is a thin wrapper around an eeprom.EEPROM that makes the emulation
// safe for concurrent callers.
//
// Key Features:
//   - A mutex serializes all calls, the EEPROM itself expects a single owner
//   - Errors of the eeprom and flash packages are mapped to store return codes
//   - Operation counts, error counts, transferred bytes and latencies are exported
//     through github.com/VictoriaMetrics/metrics, labeled with the store name
//
// Usage Example:
//
//	factory := func() (*eeprom.EEPROM, error) {
//		f, err := flash.NewMemFlash(eeprom.DefaultOptions().Geometry())
//		if err != nil {
//			return nil, err
//		}
//		return eeprom.New(f, nil)
//	}
//	s, err := lstore.NewLocalStore("config", factory)
//	if err != nil {
//		return err
//	}
//	if err := s.Init(); err != nil {
//		return err
//	}
//	_, err = s.Write(42, cfgBytes)
//
// Metrics are registered in the default VictoriaMetrics set and can be written with
// metrics.WritePrometheus; the HTTP transport serves them under /metrics.
package lstore
