package sales

import (
	"sort"
	"sync"
)

// lockSet hands out one mutex per product id. Entries are reference counted
// and removed once nobody holds or waits on them.
type lockSet struct {
	mu    sync.Mutex
	locks map[int64]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[int64]*productLock)}
}

// acquire locks every id in ascending order and returns the release func.
// Ascending order across all callers rules out deadlock.
func (s *lockSet) acquire(ids []int64) func() {
	sorted := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	held := make([]*productLock, 0, len(sorted))
	for _, id := range sorted {
		s.mu.Lock()
		l, ok := s.locks[id]
		if !ok {
			l = &productLock{}
			s.locks[id] = l
		}
		l.refs++
		s.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		s.mu.Lock()
		for i, id := range sorted {
			held[i].refs--
			if held[i].refs == 0 {
				delete(s.locks, id)
			}
		}
		s.mu.Unlock()
	}
}

// size is the number of live entries
func (s *lockSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
