package window

import (
	"sync"

	"fraudwatch/pkg/model"
)

// Store owns every window collection. It is the only place window contents
// are mutated: pollers call Replace and Merge, everyone else reads
// snapshots. Mutations are whole-collection replaces or guarded appends, so
// readers always observe a complete, consistent list.
//
// Within any one window, transaction ids are unique. A record already
// present by id is never appended again.
type Store struct {
	mu      sync.RWMutex
	windows map[Horizon]*collection
}

// collection holds one window's records plus the id set used for
// de-duplication. Records keep arrival order, not timestamp order.
type collection struct {
	records []model.Transaction
	ids     map[string]struct{}
}

// NewStore creates a store with every horizon present and empty.
func NewStore() *Store {
	windows := make(map[Horizon]*collection, len(Horizons()))
	for _, h := range Horizons() {
		windows[h] = &collection{ids: make(map[string]struct{})}
	}
	return &Store{windows: windows}
}

// Replace swaps the window's entire contents for the given records,
// rebuilding the id set. This is the wholesale refresh path: it is the only
// way records age out of a window. Entries duplicated by id inside the
// incoming list are dropped past the first occurrence.
func (s *Store) Replace(h Horizon, records []model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.windows[h]
	if !ok {
		return
	}

	fresh := make([]model.Transaction, 0, len(records))
	ids := make(map[string]struct{}, len(records))
	for _, t := range records {
		if _, seen := ids[t.TransactionID]; seen {
			continue
		}
		ids[t.TransactionID] = struct{}{}
		fresh = append(fresh, t)
	}

	c.records = fresh
	c.ids = ids
}

// Merge appends the record to every window that does not already contain
// its id, including the unbounded one. It never removes or reorders
// existing entries, and re-applying the same record is a no-op. Returns the
// number of windows the record was appended to.
//
// Membership against the horizon span is deliberately not re-checked here:
// a record just observed as the newest transaction is recent enough for
// every tracked window, and the next wholesale refresh re-synchronizes any
// slight overshoot.
func (s *Store) Merge(t model.Transaction) int {
	if t.TransactionID == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appended := 0
	for _, c := range s.windows {
		if _, seen := c.ids[t.TransactionID]; seen {
			continue
		}
		c.ids[t.TransactionID] = struct{}{}
		c.records = append(c.records, t)
		appended++
	}
	return appended
}

// Snapshot returns a copy of the window's current records. Callers may
// retain and iterate the result without holding any lock.
func (s *Store) Snapshot(h Horizon) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.windows[h]
	if !ok {
		return nil
	}
	out := make([]model.Transaction, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records currently in the window.
func (s *Store) Len(h Horizon) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.windows[h]
	if !ok {
		return 0
	}
	return len(c.records)
}

// Contains reports whether the window currently holds the given id.
func (s *Store) Contains(h Horizon, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.windows[h]
	if !ok {
		return false
	}
	_, seen := c.ids[id]
	return seen
}

// Sizes returns the current record count per horizon.
func (s *Store) Sizes() map[Horizon]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sizes := make(map[Horizon]int, len(s.windows))
	for h, c := range s.windows {
		sizes[h] = len(c.records)
	}
	return sizes
}
