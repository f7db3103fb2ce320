// Package intern deduplicates node id strings.
//
// A public channel graph repeats every node pubkey once per channel it takes
// part in. Interning keeps a single backing string per id.
package intern

import "sync"

type Pool struct {
	mu    sync.RWMutex
	store map[string]string
}

var globalPool = NewPool()

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{store: make(map[string]string, 1024)}
}

// String returns the canonical instance of s.
func (p *Pool) String(s string) string {
	if s == "" {
		return s
	}

	p.mu.RLock()
	v, ok := p.store[s]
	p.mu.RUnlock()
	if ok {
		return v
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if v, ok := p.store[s]; ok {
		return v
	}
	p.store[s] = s
	return s
}

// Len reports the number of distinct strings held.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.store)
}

// String interns s in the global pool.
func String(s string) string {
	return globalPool.String(s)
}

// Reset clears the global pool.
func Reset() {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	globalPool.store = make(map[string]string, 1024)
}
