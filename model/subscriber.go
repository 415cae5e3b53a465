package model

import "time"

// SubscriberLedger tracks a subscriber across all channels.
//
// Activated flips to true on the first subscription and never reverts, even
// when SubscribeCount later drops back to zero.
type SubscriberLedger struct {
	Subscriber     Identity  `json:"subscriber"`
	SubscribeCount uint64    `json:"subscribeCount"`
	Activated      bool      `json:"activated"`
	FirstActiveAt  time.Time `json:"firstActiveAt"`
}

// NewSubscriberLedger creates an empty, not yet activated ledger.
func NewSubscriberLedger(subscriber Identity) SubscriberLedger {
	return SubscriberLedger{Subscriber: subscriber}
}

// Activate marks the ledger active, recording now as first activation.
// Returns true only on the first call for this ledger.
func (l *SubscriberLedger) Activate(now time.Time) bool {
	if l.Activated {
		return false
	}
	l.Activated = true
	l.FirstActiveAt = now
	return true
}
