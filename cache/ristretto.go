package cache

import (
	"github.com/dgraph-io/ristretto"

	"github.com/funnelmesh/funnelmesh/core"
)

const (
	defaultNumCounters = 1e6
	defaultMaxCost     = 1e7
	defaultBufferItems = 64
)

// RistrettoStore is the default in-process Store backed by ristretto, which
// handles TTL expiry and cost-based admission for us.
type RistrettoStore struct {
	cache *ristretto.Cache
}

// RistrettoOptions size the underlying cache.
type RistrettoOptions struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// NewRistrettoStore constructs a store with sane defaults for reply-sized
// payloads.
func NewRistrettoStore(optFns ...func(o *RistrettoOptions)) (*RistrettoStore, error) {
	opts := RistrettoOptions{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
		BufferItems: defaultBufferItems,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: opts.NumCounters,
		MaxCost:     opts.MaxCost,
		BufferItems: opts.BufferItems,
	})
	if err != nil {
		return nil, core.WrapOp("cache.ristretto", err)
	}
	return &RistrettoStore{cache: c}, nil
}

// Get implements Store.
func (s *RistrettoStore) Get(key string) (*Entry, bool, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	entry, ok := value.(*Entry)
	if !ok {
		return nil, false, nil
	}
	return entry, true, nil
}

// Set implements Store. Cost is approximated by the reply length.
func (s *RistrettoStore) Set(key string, entry *Entry) error {
	cost := int64(64)
	if entry.Response != nil {
		cost += int64(len(entry.Response.Text))
	}
	s.cache.SetWithTTL(key, entry, cost, entry.TTL)
	return nil
}

// Wait blocks until pending async writes are applied. Tests use this to make
// Set visible before the next Get.
func (s *RistrettoStore) Wait() { s.cache.Wait() }

// Close releases the cache resources.
func (s *RistrettoStore) Close() { s.cache.Close() }
