package pushcomm

import (
	"bytes"
	"sort"
	"sync"

	"github.com/coregx/pushcomm/model"
)

// lockTable hands out per-location mutexes. Entries are reference counted and
// dropped once no request holds or waits on them.
type lockTable struct {
	mu      sync.Mutex
	entries map[model.Location]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[model.Location]*lockEntry)}
}

// acquire locks every location in locs and returns the matching release.
// Locations are locked in ascending byte order so two requests naming
// overlapping sets can never deadlock.
func (t *lockTable) acquire(locs []model.Location) func() {
	ordered := sortedUnique(locs)

	held := make([]*lockEntry, 0, len(ordered))
	for _, loc := range ordered {
		e := t.ref(loc)
		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			t.unref(ordered[i])
		}
	}
}

func (t *lockTable) ref(loc model.Location) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[loc]
	if !ok {
		e = &lockEntry{}
		t.entries[loc] = e
	}
	e.refs++
	return e
}

func (t *lockTable) unref(loc model.Location) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[loc]
	e.refs--
	if e.refs == 0 {
		delete(t.entries, loc)
	}
}

// size returns the number of live entries.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func sortedUnique(locs []model.Location) []model.Location {
	out := make([]model.Location, 0, len(locs))
	seen := make(map[model.Location]struct{}, len(locs))
	for _, loc := range locs {
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
