package pushcomm

import (
	"sync"
	"testing"

	"github.com/coregx/pushcomm/model"
	"github.com/stretchr/testify/assert"
)

func TestSortedUnique(t *testing.T) {
	a := model.SubscriberLocation(model.Identity{1})
	b := model.SubscriberLocation(model.Identity{2})

	out := sortedUnique([]model.Location{a, b, a, b})
	assert.Len(t, out, 2)
	assert.ElementsMatch(t, []model.Location{a, b}, out)

	rev := sortedUnique([]model.Location{b, a})
	assert.Equal(t, out, rev)
}

func TestLockTable_ReleasesEntries(t *testing.T) {
	locks := newLockTable()
	locs := []model.Location{model.RegistryLocation(), model.SubscriberLocation(model.Identity{1})}

	release := locks.acquire(locs)
	assert.Equal(t, 2, locks.size())
	release()
	assert.Equal(t, 0, locks.size())
}

func TestLockTable_OpposingOrderDoesNotDeadlock(t *testing.T) {
	locks := newLockTable()
	a := model.SubscriberLocation(model.Identity{1})
	b := model.SubscriberLocation(model.Identity{2})

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release := locks.acquire([]model.Location{a, b})
			counter++
			release()
		}()
		go func() {
			defer wg.Done()
			release := locks.acquire([]model.Location{b, a})
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, counter)
	assert.Equal(t, 0, locks.size())
}
