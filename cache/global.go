package cache

import "sync"

var (
	globalMu    sync.RWMutex
	globalStore *Store
)

// SetDefault installs the process-wide store instance.
func SetDefault(s *Store) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalStore = s
}

// Current returns the process-wide store instance.
func Current() *Store {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalStore
}
