// Package cache implements the bounded in-memory object store behind the
// proxy. Objects are whole origin responses keyed by the raw request URI;
// the store keeps them in least-recently-used order and holds the total
// resident size under a fixed budget.
//
// One mutex serialises every structural change and every reader-count
// update. It is never held across I/O: readers take a Lease, stream the
// pinned bytes outside the lock, and release when done.
package cache

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultMaxObjectSize is the largest admissible object payload.
	DefaultMaxObjectSize = 102400
	// DefaultMaxCacheSize bounds the sum of resident object sizes.
	DefaultMaxCacheSize = 1048576
)

// ErrNotFound is returned by Remove for keys with no resident object.
var ErrNotFound = errors.New("cache: object not found")

type entry struct {
	key      string
	data     []byte
	inUse    int
	admitted time.Time
	lastRef  time.Time
}

// Store is the whole cache. The recency list runs front = least recently
// used to back = most recently used.
type Store struct {
	mu        sync.Mutex
	ll        *list.List
	index     map[string]*list.Element
	totalSize int

	maxObjectSize int
	maxCacheSize  int
}

type Option func(*Store)

// WithMaxObjectSize overrides the admissible object bound.
func WithMaxObjectSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxObjectSize = n
		}
	}
}

// WithMaxCacheSize overrides the resident-size budget.
func WithMaxCacheSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxCacheSize = n
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		ll:            list.New(),
		index:         make(map[string]*list.Element, 16),
		maxObjectSize: DefaultMaxObjectSize,
		maxCacheSize:  DefaultMaxCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxObjectSize returns the admission bound for a single object.
func (s *Store) MaxObjectSize() int {
	return s.maxObjectSize
}

// Lookup returns a Lease on the object stored under key. A hit pins the
// object against eviction and promotes it to the most-recently-used
// position; the caller must Release the lease exactly once.
func (s *Store) Lookup(key string) (*Lease, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		missesTotal.Inc()
		return nil, false
	}

	ent := el.Value.(*entry)
	ent.inUse++
	ent.lastRef = time.Now()
	s.ll.MoveToBack(el)

	hitsTotal.Inc()
	return &Lease{store: s, ent: ent}, true
}

// Admit inserts the response bytes under key. Admission never reports
// failure: oversize payloads, duplicate keys (first writer wins) and a
// fully pinned cache all drop the new object silently. Ownership of both
// arguments passes to the store.
func (s *Store) Admit(key string, data []byte) {
	size := len(data)
	if size < 1 || size > s.maxObjectSize {
		dropsTotal.WithLabelValues("oversize").Inc()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; ok {
		dropsTotal.WithLabelValues("duplicate").Inc()
		return
	}

	// Reclaim until the new object fits. Victims are taken in LRU order,
	// skipping objects pinned by active readers; when every resident is
	// pinned the admission is abandoned.
	for s.totalSize+size > s.maxCacheSize {
		victim := s.firstEvictable()
		if victim == nil {
			dropsTotal.WithLabelValues("no_victim").Inc()
			return
		}
		s.removeLocked(victim)
		evictionsTotal.Inc()
	}

	now := time.Now()
	el := s.ll.PushBack(&entry{key: key, data: data, admitted: now, lastRef: now})
	s.index[key] = el
	s.totalSize += size

	admissionsTotal.Inc()
	s.updateGauges()
}

// Remove deletes the object stored under key. Outstanding leases on the
// object stay valid; only the index entry and size accounting go away.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return ErrNotFound
	}
	s.removeLocked(el)
	return nil
}

// Len returns the number of resident objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// TotalSize returns the sum of resident object sizes.
func (s *Store) TotalSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSize
}

// EntryInfo is one row of the admin index export.
type EntryInfo struct {
	Key        string    `json:"key" cbor:"1,keyasint"`
	Size       int       `json:"size" cbor:"2,keyasint"`
	InUse      int       `json:"in_use" cbor:"3,keyasint"`
	AdmittedAt time.Time `json:"admitted_at" cbor:"4,keyasint"`
	LastRefAt  time.Time `json:"last_ref_at" cbor:"5,keyasint"`
}

// Snapshot lists resident objects in LRU→MRU order.
func (s *Store) Snapshot() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EntryInfo, 0, s.ll.Len())
	for el := s.ll.Front(); el != nil; el = el.Next() {
		ent := el.Value.(*entry)
		out = append(out, EntryInfo{
			Key:        ent.key,
			Size:       len(ent.data),
			InUse:      ent.inUse,
			AdmittedAt: ent.admitted,
			LastRefAt:  ent.lastRef,
		})
	}
	return out
}

func (s *Store) firstEvictable() *list.Element {
	for el := s.ll.Front(); el != nil; el = el.Next() {
		if el.Value.(*entry).inUse == 0 {
			return el
		}
	}
	return nil
}

func (s *Store) removeLocked(el *list.Element) {
	ent := el.Value.(*entry)
	s.ll.Remove(el)
	delete(s.index, ent.key)
	s.totalSize -= len(ent.data)
	s.updateGauges()
}

func (s *Store) release(ent *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent.inUse--
}

func (s *Store) updateGauges() {
	residentObjects.Set(float64(s.ll.Len()))
	residentBytes.Set(float64(s.totalSize))
}
