// Package index maintains the lookup from a block hash to the payload that
// was appended with it. It is a flat map, it provides no prefix sharing or
// inclusion proofs.
package index

import "sync"

// Index maps keys to values. A later insert of an existing key replaces
// the earlier value without notice.
type Index[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// New constructs an empty index.
func New[V any]() *Index[V] {
	return &Index[V]{
		m: make(map[string]V),
	}
}

// Insert stores the value under the key.
func (idx *Index[V]) Insert(key string, value V) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.m[key] = value
}

// Retrieve returns the value stored under the key and whether it exists.
func (idx *Index[V]) Retrieve(key string) (V, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	v, exists := idx.m[key]
	return v, exists
}

// Len returns the number of keys in the index.
func (idx *Index[V]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.m)
}
