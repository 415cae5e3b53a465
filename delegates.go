package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// AddDelegate authorizes delegate to send notifications for channel.
// Signed by the channel.
//
// Adding an existing delegate fails with ErrDelegateAlreadyAdded, except when a
// channel re-adds itself, which succeeds and emits the event again.
func (d *Directory) AddDelegate(ctx context.Context, channel, delegate model.Identity) (*Receipt, error) {
	if delegate.IsZero() {
		return nil, invalidArgument("delegate", errZeroIdentity)
	}
	loc := model.DelegateLocation(channel, delegate)

	return d.execute(ctx, "addDelegate", []model.Location{loc}, func(tx *txn) error {
		existing := model.NewDelegate(channel, delegate, tx.now)
		found, err := tx.load(loc, &existing)
		if err != nil {
			return err
		}
		if found && !existing.IsSelf() {
			return ErrDelegateAlreadyAdded
		}
		if !found {
			if err := tx.put(loc, model.KindDelegate, existing); err != nil {
				return err
			}
		}
		return tx.emit(model.EventAddDelegate, model.AddDelegateEvent{Channel: channel, Delegate: delegate})
	})
}

// RemoveDelegate revokes delegate's authorization for channel.
// Signed by the channel. Fails with ErrDelegateNotFound when no grant exists.
func (d *Directory) RemoveDelegate(ctx context.Context, channel, delegate model.Identity) (*Receipt, error) {
	loc := model.DelegateLocation(channel, delegate)

	return d.execute(ctx, "removeDelegate", []model.Location{loc}, func(tx *txn) error {
		found, err := tx.exists(loc)
		if err != nil {
			return err
		}
		if !found {
			return ErrDelegateNotFound
		}
		tx.remove(loc)
		return tx.emit(model.EventRemoveDelegate, model.RemoveDelegateEvent{Channel: channel, Delegate: delegate})
	})
}
