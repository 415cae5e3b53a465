package model

import "time"

// Delegate grants Delegate the right to send notifications on Channel's behalf.
// A channel may name itself. The record is removed when the grant is revoked.
type Delegate struct {
	Channel    Identity  `json:"channel"`
	Delegate   Identity  `json:"delegate"`
	IsDelegate bool      `json:"isDelegate"`
	AddedAt    time.Time `json:"addedAt"`
}

// NewDelegate creates an active (channel, delegate) authorization.
func NewDelegate(channel, delegate Identity, now time.Time) Delegate {
	return Delegate{
		Channel:    channel,
		Delegate:   delegate,
		IsDelegate: true,
		AddedAt:    now,
	}
}

// IsSelf reports whether the channel delegated to itself.
func (d Delegate) IsSelf() bool {
	return d.Channel == d.Delegate
}

// Location returns the record's deterministic address.
func (d Delegate) Location() Location {
	return DelegateLocation(d.Channel, d.Delegate)
}
