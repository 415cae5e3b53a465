package pushcomm_test

import (
	"math"
	"sync"
	"testing"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_Lifecycle(t *testing.T) {
	f := newFixture(t)
	subscriber, channel := id(2), id(3)

	receipt, err := f.dir.Subscribe(f.ctx, subscriber, channel)
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, model.EventSubscribed, receipt.Events[0].Kind)

	var payload model.Subscribed
	require.NoError(t, receipt.Events[0].Decode(&payload))
	assert.Equal(t, model.Subscribed{Subscriber: subscriber, Channel: channel}, payload)

	before := f.store.Commits()
	_, err = f.dir.Subscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrAlreadySubscribed)

	receipt, err = f.dir.Unsubscribe(f.ctx, subscriber, channel)
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, model.EventUnsubscribed, receipt.Events[0].Kind)

	before = f.store.Commits()
	_, err = f.dir.Unsubscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrNotSubscribed)

	assert.Equal(t, 2, f.sink.count())
}

func TestSubscribe_LedgerTracksActiveSubscriptions(t *testing.T) {
	f := newFixture(t)
	subscriber := id(2)

	_, err := f.dir.Subscribe(f.ctx, subscriber, id(10))
	require.NoError(t, err)
	_, err = f.dir.Subscribe(f.ctx, subscriber, id(11))
	require.NoError(t, err)

	ledger, err := f.dir.Subscriber(f.ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ledger.SubscribeCount)
	assert.True(t, ledger.Activated)
	assert.Equal(t, testNow, ledger.FirstActiveAt)

	_, err = f.dir.Unsubscribe(f.ctx, subscriber, id(10))
	require.NoError(t, err)
	_, err = f.dir.Unsubscribe(f.ctx, subscriber, id(11))
	require.NoError(t, err)

	ledger, err = f.dir.Subscriber(f.ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ledger.SubscribeCount)
	assert.True(t, ledger.Activated, "activation never reverts")

	ok, err := f.dir.IsSubscribed(f.ctx, subscriber, id(10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscribe_UserCountCountsFirstActivationOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.dir.Subscribe(f.ctx, id(2), id(10))
	require.NoError(t, err)
	_, err = f.dir.Subscribe(f.ctx, id(2), id(11))
	require.NoError(t, err)
	_, err = f.dir.Unsubscribe(f.ctx, id(2), id(10))
	require.NoError(t, err)
	_, err = f.dir.Subscribe(f.ctx, id(2), id(10))
	require.NoError(t, err)
	_, err = f.dir.Subscribe(f.ctx, id(4), id(10))
	require.NoError(t, err)

	reg, err := f.dir.Registry(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reg.UserCount)
}

func TestSubscribe_ResubscribeAfterUnsubscribe(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.dir.Subscribe(f.ctx, id(2), id(3))
		require.NoError(t, err)
		_, err = f.dir.Unsubscribe(f.ctx, id(2), id(3))
		require.NoError(t, err)
	}

	ledger, err := f.dir.Subscriber(f.ctx, id(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ledger.SubscribeCount)
}

func TestSubscribe_ConcurrentChannels(t *testing.T) {
	f := newFixture(t)
	subscriber := id(2)
	const channels = 32

	var wg sync.WaitGroup
	for i := 0; i < channels; i++ {
		wg.Add(1)
		go func(c byte) {
			defer wg.Done()
			_, err := f.dir.Subscribe(f.ctx, subscriber, id(100+c))
			assert.NoError(t, err)
		}(byte(i))
	}
	wg.Wait()

	ledger, err := f.dir.Subscriber(f.ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, uint64(channels), ledger.SubscribeCount)
	assert.Equal(t, channels, f.sink.count())
}

func TestSubscribe_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, duplicates := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.dir.Subscribe(f.ctx, id(2), id(3))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, pushcomm.ErrAlreadySubscribed) {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 15, duplicates)

	ledger, err := f.dir.Subscriber(f.ctx, id(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ledger.SubscribeCount)
}

// seed writes v straight to the store, bypassing directory checks.
func (f *fixture) seed(t *testing.T, loc model.Location, kind model.Kind, v interface{}) {
	t.Helper()
	rec, err := model.EncodeRecord(loc, kind, v, testNow)
	require.NoError(t, err)
	_, err = f.store.Commit(f.ctx, &pushcomm.Batch{RequestID: "seed", Puts: []model.Record{rec}})
	require.NoError(t, err)
}

func (f *fixture) assertNoSubscription(t *testing.T, subscriber, channel model.Identity) {
	t.Helper()
	_, err := f.store.Get(f.ctx, model.SubscriptionLocation(subscriber, channel))
	assert.True(t, pushcomm.IsNoData(err), "subscription must not exist: %v", err)
}

func TestSubscribe_LedgerCountOverflow(t *testing.T) {
	f := newFixture(t)
	subscriber, channel := id(2), id(3)

	ledger := model.NewSubscriberLedger(subscriber)
	ledger.Activate(testNow)
	ledger.SubscribeCount = math.MaxUint64
	f.seed(t, model.SubscriberLocation(subscriber), model.KindSubscriber, ledger)

	before := f.store.Commits()
	_, err := f.dir.Subscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrOverflow)
	assert.Equal(t, pushcomm.ErrCodeOverflow, pushcomm.CodeOf(err))
	f.assertNoSubscription(t, subscriber, channel)
	assert.Equal(t, 0, f.sink.count())
}

func TestSubscribe_UserCountOverflow(t *testing.T) {
	f := newFixture(t)
	subscriber, channel := id(2), id(3)

	reg, err := f.dir.Registry(f.ctx)
	require.NoError(t, err)
	reg.UserCount = math.MaxUint64
	f.seed(t, model.RegistryLocation(), model.KindRegistry, reg)

	before := f.store.Commits()
	_, err = f.dir.Subscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrOverflow)
	f.assertNoSubscription(t, subscriber, channel)

	_, err = f.store.Get(f.ctx, model.SubscriberLocation(subscriber))
	assert.True(t, pushcomm.IsNoData(err), "ledger must not be activated")

	reg, err = f.dir.Registry(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), reg.UserCount)
}

func TestUnsubscribe_LedgerCountUnderflow(t *testing.T) {
	f := newFixture(t)
	subscriber, channel := id(2), id(3)

	f.seed(t, model.SubscriptionLocation(subscriber, channel), model.KindSubscription,
		model.NewSubscription(subscriber, channel, testNow))

	// No ledger at all.
	before := f.store.Commits()
	_, err := f.dir.Unsubscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrUnderflow)

	// Ledger present with a zero count.
	ledger := model.NewSubscriberLedger(subscriber)
	ledger.Activate(testNow)
	f.seed(t, model.SubscriberLocation(subscriber), model.KindSubscriber, ledger)

	before = f.store.Commits()
	_, err = f.dir.Unsubscribe(f.ctx, subscriber, channel)
	f.assertRejected(t, before, err, pushcomm.ErrUnderflow)
	assert.Equal(t, pushcomm.ErrCodeUnderflow, pushcomm.CodeOf(err))

	_, err = f.store.Get(f.ctx, model.SubscriptionLocation(subscriber, channel))
	assert.NoError(t, err, "subscription must survive the rejected request")
	assert.Equal(t, 0, f.sink.count())
}
