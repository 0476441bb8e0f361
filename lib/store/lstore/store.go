package lstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	mu   sync.Mutex
	ee   *eeprom.EEPROM
	name string

	// metrics
	ops          map[string]*metrics.Counter
	errs         *metrics.Counter
	bytesRead    *metrics.Counter
	bytesWritten *metrics.Counter
	duration     *metrics.Histogram
}

// NewLocalStore creates a new local store instance backed by the EEPROM the factory returns.
// The name labels the metrics of the store, stores sharing a name share their metrics.
func NewLocalStore(name string, factory store.EEPROMFactory) (store.IStore, error) {
	ee, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create eeprom for store %s: %w", name, err)
	}

	s := &storeImpl{
		ee:           ee,
		name:         name,
		ops:          make(map[string]*metrics.Counter),
		errs:         metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_errors_total{store=%q}`, name)),
		bytesRead:    metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_bytes_read_total{store=%q}`, name)),
		bytesWritten: metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_bytes_written_total{store=%q}`, name)),
		duration:     metrics.GetOrCreateHistogram(fmt.Sprintf(`fkv_store_op_duration_seconds{store=%q}`, name)),
	}
	for _, op := range []string{"init", "format", "read", "write", "entries", "info"} {
		s.ops[op] = metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_ops_total{store=%q,op=%q}`, name, op))
	}

	log.Infof("store %s created (%d slots per page)", name, ee.Capacity())
	return s, nil
}

// track counts one operation and returns a func that records its outcome.
// The caller must hold mu.
func (s *storeImpl) track(op string) func(err error) error {
	start := time.Now()
	s.ops[op].Inc()
	return func(err error) error {
		s.duration.UpdateDuration(start)
		if err != nil {
			s.errs.Inc()
			log.Debugf("store %s: %s failed: %v", s.name, op, err)
		}
		return store.ErrorFrom(err)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("init")
	return done(s.ee.Init())
}

func (s *storeImpl) Format() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("format")
	return done(s.ee.Format())
}

func (s *storeImpl) Read(address uint16, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("read")

	if length < 0 || length > store.MaxReadLength {
		return nil, done(store.NewError(store.RetCInvalidOperation, fmt.Sprintf("invalid read length %d", length)))
	}
	buf := make([]byte, length)
	n, err := s.ee.Read(address, buf)
	s.bytesRead.Add(n)
	return buf[:n], done(err)
}

func (s *storeImpl) Write(address uint16, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("write")

	n, err := s.ee.Write(address, data)
	s.bytesWritten.Add(n)
	return n, done(err)
}

func (s *storeImpl) Entries() ([]eeprom.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("entries")

	entries, err := s.ee.Entries()
	return entries, done(err)
}

func (s *storeImpl) GetInfo() (eeprom.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.track("info")
	return s.ee.Info(), done(nil)
}
