package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// Registry returns the current Registry, or ErrNotInitialized.
func (d *Directory) Registry(ctx context.Context) (model.Registry, error) {
	var reg model.Registry
	if err := d.read(ctx, model.RegistryLocation(), &reg); err != nil {
		if IsNoData(err) {
			return reg, ErrNotInitialized
		}
		return reg, err
	}
	return reg, nil
}

// Subscriber returns the subscriber's ledger.
// Returns ErrNoData if the subscriber never subscribed.
func (d *Directory) Subscriber(ctx context.Context, subscriber model.Identity) (model.SubscriberLedger, error) {
	var ledger model.SubscriberLedger
	err := d.read(ctx, model.SubscriberLocation(subscriber), &ledger)
	return ledger, err
}

// Subscription returns the (subscriber, channel) subscription.
// Returns ErrNoData if the subscriber is not subscribed.
func (d *Directory) Subscription(ctx context.Context, subscriber, channel model.Identity) (model.Subscription, error) {
	var sub model.Subscription
	err := d.read(ctx, model.SubscriptionLocation(subscriber, channel), &sub)
	return sub, err
}

// IsSubscribed reports whether subscriber currently follows channel.
func (d *Directory) IsSubscribed(ctx context.Context, subscriber, channel model.Identity) (bool, error) {
	_, err := d.Subscription(ctx, subscriber, channel)
	if err != nil {
		if IsNoData(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delegate returns the (channel, delegate) grant.
// Returns ErrNoData if none exists.
func (d *Directory) Delegate(ctx context.Context, channel, delegate model.Identity) (model.Delegate, error) {
	var grant model.Delegate
	err := d.read(ctx, model.DelegateLocation(channel, delegate), &grant)
	return grant, err
}

// NotificationSettings returns the subscriber's settings for channel.
// Returns ErrNoData if none were ever written.
func (d *Directory) NotificationSettings(ctx context.Context, subscriber, channel model.Identity) (model.NotificationSettings, error) {
	var ns model.NotificationSettings
	err := d.read(ctx, model.NotifSettingsLocation(subscriber, channel), &ns)
	return ns, err
}

// Events returns up to limit journal entries after the given sequence number.
func (d *Directory) Events(ctx context.Context, afterSeq int64, limit int) ([]model.Event, error) {
	events, err := d.store.ListEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, wrapStoreError("failed to list events", err)
	}
	return events, nil
}

// read loads committed state without taking location locks.
func (d *Directory) read(ctx context.Context, loc model.Location, v interface{}) error {
	rec, err := d.store.Get(ctx, loc)
	if err != nil {
		if IsNoData(err) {
			return ErrNoData
		}
		return wrapStoreError("failed to load record", err)
	}
	if err := rec.Decode(v); err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "corrupt record", err)
	}
	return nil
}
