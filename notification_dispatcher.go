package pushcomm

import (
	"context"
	"fmt"

	"github.com/coregx/pushcomm/model"
)

// SendNotification records the intent to notify req.Recipient on behalf of
// req.Channel. The message is opaque and carried byte for byte.
//
// The signer is authorized when it is the channel itself or holds a delegate
// grant from the channel. Anyone else gets ErrUnauthorized and nothing is
// emitted.
func (d *Directory) SendNotification(ctx context.Context, req SendNotificationRequest) (*Receipt, error) {
	loc := model.DelegateLocation(req.Channel, req.Signer)

	return d.execute(ctx, "sendNotification", []model.Location{loc}, func(tx *txn) error {
		if req.Signer != req.Channel {
			var grant model.Delegate
			found, err := tx.load(loc, &grant)
			if err != nil {
				return err
			}
			if !found || !grant.IsDelegate {
				return NewError(ErrCodeUnauthorized,
					fmt.Sprintf("%s is not a delegate of channel %s", req.Signer, req.Channel))
			}
		}

		msg := req.Message
		if msg == nil {
			msg = []byte{}
		}
		return tx.emit(model.EventSendNotification, model.SendNotificationEvent{
			Channel:   req.Channel,
			Recipient: req.Recipient,
			Message:   msg,
		})
	})
}
