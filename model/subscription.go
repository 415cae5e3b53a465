package model

import "time"

// Subscription records that Subscriber currently receives notifications from
// Channel. The record exists only while the subscription is active;
// unsubscribing removes it.
type Subscription struct {
	Subscriber   Identity  `json:"subscriber"`
	Channel      Identity  `json:"channel"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// NewSubscription creates the (subscriber, channel) subscription record.
func NewSubscription(subscriber, channel Identity, now time.Time) Subscription {
	return Subscription{
		Subscriber:   subscriber,
		Channel:      channel,
		SubscribedAt: now,
	}
}

// Location returns the record's deterministic address.
func (s Subscription) Location() Location {
	return SubscriptionLocation(s.Subscriber, s.Channel)
}
