package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// SetUserNotificationSettings replaces the subscriber's settings for a
// channel with "{notifID}+{settings}".
//
// Settings over model.MaxNotifSettingsLength bytes fail with
// ErrInvalidArgument. A subscriber without a subscription to the channel gets
// ErrNotSubscribed, which also matches ErrUnauthorized.
func (d *Directory) SetUserNotificationSettings(ctx context.Context, req NotificationSettingsRequest) (*Receipt, error) {
	if err := invalidArgument("invalid notification settings", req.Validate()); err != nil {
		return nil, err
	}

	subLoc := model.SubscriptionLocation(req.Subscriber, req.Channel)
	settingsLoc := model.NotifSettingsLocation(req.Subscriber, req.Channel)

	return d.execute(ctx, "setUserNotificationSettings", []model.Location{subLoc, settingsLoc}, func(tx *txn) error {
		subscribed, err := tx.exists(subLoc)
		if err != nil {
			return err
		}
		if !subscribed {
			return NewErrorWithCause(ErrCodeNotSubscribed, "settings require a subscription to the channel", ErrUnauthorized)
		}

		settings := model.NewNotificationSettings(req.Subscriber, req.Channel, req.NotifID, req.Settings, tx.now)
		if err := tx.put(settingsLoc, model.KindNotifSettings, settings); err != nil {
			return err
		}
		return tx.emit(model.EventUserNotificationSettingsAdded, model.UserNotificationSettingsAdded{
			Channel:    req.Channel,
			Subscriber: req.Subscriber,
			NotifID:    req.NotifID,
			Settings:   settings.Settings,
		})
	})
}
