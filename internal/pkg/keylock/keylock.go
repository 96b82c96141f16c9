// Package keylock provides string-keyed mutual exclusion. The auth flow uses
// it to serialize the check-increment-compare-delete sequence of OTP
// verification per email, and refresh-token rotation per token, so two
// concurrent submissions of the same credential cannot both succeed.
package keylock

import (
	"hash/fnv"
	"sync"
)

const shards = 64

// KeyLock is a striped lock: keys hash onto a fixed set of mutexes. Distinct
// keys may occasionally share a mutex, which costs contention but never
// correctness.
type KeyLock struct {
	mus [shards]sync.Mutex
}

func New() *KeyLock {
	return &KeyLock{}
}

// Lock acquires the mutex for key.
func (k *KeyLock) Lock(key string) {
	k.mus[shard(key)].Lock()
}

// Unlock releases the mutex for key.
func (k *KeyLock) Unlock(key string) {
	k.mus[shard(key)].Unlock()
}

func shard(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shards
}
