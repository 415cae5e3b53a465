package model

import (
	"strconv"
	"time"
)

// MaxNotifSettingsLength bounds the caller-supplied settings string, in bytes.
const MaxNotifSettingsLength = 100

// NotificationSettings holds a subscriber's opaque preferences for a channel.
// Settings is stored as "{NotifID}+{raw settings}" and each write replaces the
// previous value.
type NotificationSettings struct {
	Subscriber Identity  `json:"subscriber"`
	Channel    Identity  `json:"channel"`
	NotifID    uint64    `json:"notifId"`
	Settings   string    `json:"notifSettings"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FormatNotifSettings tags raw settings with the notification id.
func FormatNotifSettings(notifID uint64, settings string) string {
	return strconv.FormatUint(notifID, 10) + "+" + settings
}

// NewNotificationSettings builds the record written for one settings update.
func NewNotificationSettings(subscriber, channel Identity, notifID uint64, settings string, now time.Time) NotificationSettings {
	return NotificationSettings{
		Subscriber: subscriber,
		Channel:    channel,
		NotifID:    notifID,
		Settings:   FormatNotifSettings(notifID, settings),
		UpdatedAt:  now,
	}
}
