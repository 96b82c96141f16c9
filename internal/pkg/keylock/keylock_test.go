package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLock_SerializesSameKey(t *testing.T) {
	kl := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("a@b.com")
			defer kl.Unlock("a@b.com")
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}

func TestLock_DifferentKeysIndependent(t *testing.T) {
	kl := New()
	kl.Lock("first")
	// A different key hashing to a different shard must not block. Pick a key
	// on another shard.
	other := ""
	for _, candidate := range []string{"second", "third", "fourth", "fifth"} {
		if shard(candidate) != shard("first") {
			other = candidate
			break
		}
	}
	assert.NotEmpty(t, other)

	done := make(chan struct{})
	go func() {
		kl.Lock(other)
		kl.Unlock(other)
		close(done)
	}()
	<-done
	kl.Unlock("first")
}
