package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Kind is the namespace tag of a record.
type Kind string

const (
	KindRegistry      Kind = "registry"
	KindSubscriber    Kind = "subscriber"
	KindSubscription  Kind = "subscription"
	KindDelegate      Kind = "delegate"
	KindNotifSettings Kind = "notif_settings"
)

// Location is the deterministic address of a record: a SHA-256 digest over the
// namespace tag followed by the identities that key the record. Anyone holding
// the identities can compute it without a lookup.
type Location [sha256.Size]byte

// Derive computes the location for kind keyed by ids, in order.
func Derive(kind Kind, ids ...Identity) Location {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	for _, id := range ids {
		h.Write(id[:])
	}
	var loc Location
	copy(loc[:], h.Sum(nil))
	return loc
}

// RegistryLocation is the address of the singleton Registry.
func RegistryLocation() Location {
	return Derive(KindRegistry)
}

// SubscriberLocation is the address of a subscriber's ledger.
func SubscriberLocation(subscriber Identity) Location {
	return Derive(KindSubscriber, subscriber)
}

// SubscriptionLocation is the address of the (subscriber, channel) subscription.
func SubscriptionLocation(subscriber, channel Identity) Location {
	return Derive(KindSubscription, subscriber, channel)
}

// DelegateLocation is the address of the (channel, delegate) authorization.
func DelegateLocation(channel, delegate Identity) Location {
	return Derive(KindDelegate, channel, delegate)
}

// NotifSettingsLocation is the address of the (subscriber, channel) preference.
func NotifSettingsLocation(subscriber, channel Identity) Location {
	return Derive(KindNotifSettings, subscriber, channel)
}

// String returns the lowercase hex form.
func (l Location) String() string {
	return hex.EncodeToString(l[:])
}

// ParseLocation decodes the hex form produced by String.
func ParseLocation(s string) (Location, error) {
	var loc Location
	raw, err := hex.DecodeString(s)
	if err != nil {
		return loc, fmt.Errorf("location %q: %w", s, err)
	}
	if len(raw) != len(loc) {
		return loc, fmt.Errorf("location must be %d bytes, got %d", len(loc), len(raw))
	}
	copy(loc[:], raw)
	return loc, nil
}
