package pushcomm

import (
	"context"
	"fmt"
	"math"

	"github.com/coregx/pushcomm/model"
)

// Subscribe creates the (subscriber, channel) subscription.
//
// The subscriber's ledger is created on first use and activated on its first
// subscription, which also counts the subscriber in Registry.UserCount.
// Subscribing twice to the same channel fails with ErrAlreadySubscribed.
func (d *Directory) Subscribe(ctx context.Context, subscriber, channel model.Identity) (*Receipt, error) {
	subLoc := model.SubscriptionLocation(subscriber, channel)
	ledgerLoc := model.SubscriberLocation(subscriber)
	locs := []model.Location{model.RegistryLocation(), ledgerLoc, subLoc}

	return d.execute(ctx, "subscribe", locs, func(tx *txn) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}

		subscribed, err := tx.exists(subLoc)
		if err != nil {
			return err
		}
		if subscribed {
			return ErrAlreadySubscribed
		}

		ledger := model.NewSubscriberLedger(subscriber)
		if _, err := tx.load(ledgerLoc, &ledger); err != nil {
			return err
		}
		if ledger.SubscribeCount == math.MaxUint64 {
			return fmt.Errorf("subscriber %s subscribe count: %w", subscriber, ErrOverflow)
		}
		ledger.SubscribeCount++

		if ledger.Activate(tx.now) {
			if reg.UserCount == math.MaxUint64 {
				return fmt.Errorf("registry user count: %w", ErrOverflow)
			}
			reg.UserCount++
			if err := putRegistry(tx, reg); err != nil {
				return err
			}
		}

		if err := tx.put(ledgerLoc, model.KindSubscriber, ledger); err != nil {
			return err
		}
		if err := tx.put(subLoc, model.KindSubscription, model.NewSubscription(subscriber, channel, tx.now)); err != nil {
			return err
		}
		return tx.emit(model.EventSubscribed, model.Subscribed{Subscriber: subscriber, Channel: channel})
	})
}

// Unsubscribe removes the (subscriber, channel) subscription.
// Fails with ErrNotSubscribed when no subscription exists.
func (d *Directory) Unsubscribe(ctx context.Context, subscriber, channel model.Identity) (*Receipt, error) {
	subLoc := model.SubscriptionLocation(subscriber, channel)
	ledgerLoc := model.SubscriberLocation(subscriber)

	return d.execute(ctx, "unsubscribe", []model.Location{ledgerLoc, subLoc}, func(tx *txn) error {
		subscribed, err := tx.exists(subLoc)
		if err != nil {
			return err
		}
		if !subscribed {
			return ErrNotSubscribed
		}

		var ledger model.SubscriberLedger
		found, err := tx.load(ledgerLoc, &ledger)
		if err != nil {
			return err
		}
		if !found || ledger.SubscribeCount == 0 {
			return fmt.Errorf("subscriber %s subscribe count: %w", subscriber, ErrUnderflow)
		}
		ledger.SubscribeCount--

		if err := tx.put(ledgerLoc, model.KindSubscriber, ledger); err != nil {
			return err
		}
		tx.remove(subLoc)
		return tx.emit(model.EventUnsubscribed, model.Unsubscribed{Subscriber: subscriber, Channel: channel})
	})
}
