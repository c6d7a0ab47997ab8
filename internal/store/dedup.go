package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore provides thread-safe deduplication of processed update IDs
// using a Bloom filter backed by an LRU cache. Webhook delivery of chat
// updates is at-least-once; an update ID seen here must not be dispatched to
// the state machine again.
type DedupStore struct {
	ids                    map[string]struct{}
	bloom                  *bloom.BloomFilter
	lru                    *lru.Cache[string, struct{}]
	mutex                  sync.RWMutex
	maxIDs                 int
	bloomFalsePositiveRate float64
}

// NewDedupStore creates a deduplication store with the specified capacity
// and false positive rate.
func NewDedupStore(maxIDs int, bloomFalsePositiveRate float64) *DedupStore {
	lruCache, _ := lru.New[string, struct{}](maxIDs)

	if maxIDs < 0 || maxIDs > int(^uint(0)>>1) {
		panic("maxIDs value out of range for uint conversion")
	}
	bloomFilter := bloom.NewWithEstimates(uint(maxIDs), bloomFalsePositiveRate)

	return &DedupStore{
		ids:                    make(map[string]struct{}),
		bloom:                  bloomFilter,
		lru:                    lruCache,
		maxIDs:                 maxIDs,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}
}

// Has checks if an update ID has already been processed.
func (ds *DedupStore) Has(id string) bool {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.bloom.TestString(id) {
		return false
	}

	_, exists := ds.ids[id]
	return exists
}

// Add marks an update ID as processed.
func (ds *DedupStore) Add(id string) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if _, exists := ds.ids[id]; exists {
		return
	}

	ds.ids[id] = struct{}{}
	ds.bloom.AddString(id)
	ds.lru.Add(id, struct{}{})

	if len(ds.ids) > ds.maxIDs {
		ds.evictOldest()
	}
}

// Size returns the number of update IDs currently tracked.
func (ds *DedupStore) Size() int {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return len(ds.ids)
}

func (ds *DedupStore) evictOldest() {
	if ds.lru.Len() == 0 {
		return
	}

	oldestKey, _, ok := ds.lru.GetOldest()
	if !ok {
		return
	}

	delete(ds.ids, oldestKey)
	ds.lru.Remove(oldestKey)
}
