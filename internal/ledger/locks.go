package ledger

import (
	"slices"
	"sync"
)

// KeyedMutex serializes ledger mutations per entity key within this process.
// Lock takes several keys at once in sorted order so that two callers locking
// overlapping sets cannot deadlock.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until every key is held and returns the function releasing them.
func (k *KeyedMutex) Lock(keys ...string) (unlock func()) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*keyLock, 0, len(keys))
	for _, key := range keys {
		k.mu.Lock()
		l, ok := k.locks[key]
		if !ok {
			l = &keyLock{}
			k.locks[key] = l
		}
		l.refs++
		k.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			k.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(k.locks, keys[i])
			}
			k.mu.Unlock()
		}
	}
}

// Len is the number of keys currently tracked.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func ProductKey(productID string) string { return "product:" + productID }

func FabricKey(fabricID string) string { return "fabric:" + fabricID }
