package sales

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSet_ReleasesEntries(t *testing.T) {
	locks := newLockSet()

	release := locks.acquire([]int64{3, 1, 3, 2})
	assert.Equal(t, 3, locks.size())
	release()
	assert.Equal(t, 0, locks.size())
}

func TestLockSet_SerializesOverlappingSets(t *testing.T) {
	locks := newLockSet()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every set shares product 5, in varying order
			ids := []int64{5, int64(i % 4)}
			if i%2 == 0 {
				ids = []int64{int64(i % 4), 5}
			}
			release := locks.acquire(ids)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestLockSet_DisjointSetsDoNotBlock(t *testing.T) {
	locks := newLockSet()

	release := locks.acquire([]int64{1})
	defer release()

	done := make(chan struct{})
	go func() {
		locks.acquire([]int64{2})()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on a disjoint set blocked")
	}
}
