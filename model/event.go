package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names an event type in the journal.
type EventKind string

const (
	EventSubscribed                    EventKind = "Subscribed"
	EventUnsubscribed                  EventKind = "Unsubscribed"
	EventAddDelegate                   EventKind = "AddDelegate"
	EventRemoveDelegate                EventKind = "RemoveDelegate"
	EventSendNotification              EventKind = "SendNotification"
	EventUserNotificationSettingsAdded EventKind = "UserNotificationSettingsAdded"
	EventChannelAlias                  EventKind = "ChannelAlias"
)

// Event is one journal entry. Seq is assigned by the store at commit time and
// increases strictly across commits; events of one request share RequestID
// and keep their emission order.
type Event struct {
	Seq       int64           `json:"seq" db:"seq"`
	RequestID string          `json:"requestId" db:"request_id"`
	Kind      EventKind       `json:"kind" db:"kind"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// NewEvent encodes payload as the body of a kind event.
func NewEvent(requestID string, kind EventKind, payload interface{}, now time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{
		RequestID: requestID,
		Kind:      kind,
		Payload:   body,
		CreatedAt: now,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload (seq=%d): %w", e.Kind, e.Seq, err)
	}
	return nil
}

// Subscribed is emitted when a subscriber joins a channel.
type Subscribed struct {
	Subscriber Identity `json:"subscriber"`
	Channel    Identity `json:"channel"`
}

// Unsubscribed is emitted when a subscriber leaves a channel.
type Unsubscribed struct {
	Subscriber Identity `json:"subscriber"`
	Channel    Identity `json:"channel"`
}

// AddDelegateEvent is emitted when a channel authorizes a delegate.
type AddDelegateEvent struct {
	Channel  Identity `json:"channel"`
	Delegate Identity `json:"delegate"`
}

// RemoveDelegateEvent is emitted when a channel revokes a delegate.
type RemoveDelegateEvent struct {
	Channel  Identity `json:"channel"`
	Delegate Identity `json:"delegate"`
}

// SendNotificationEvent carries the intent to notify Recipient. Message is
// opaque and reproduced byte for byte.
type SendNotificationEvent struct {
	Channel   Identity `json:"channel"`
	Recipient Identity `json:"recipient"`
	Message   []byte   `json:"message"`
}

// UserNotificationSettingsAdded is emitted on every settings write. Settings
// holds the stored, id-tagged value.
type UserNotificationSettingsAdded struct {
	Channel    Identity `json:"channel"`
	Subscriber Identity `json:"subscriber"`
	NotifID    uint64   `json:"notifId"`
	Settings   string   `json:"notifSettings"`
}

// ChannelAliasEvent links a channel identity to its address on another chain.
type ChannelAliasEvent struct {
	ChainName      string   `json:"chainName"`
	ChainID        uint64   `json:"chainId"`
	Channel        Identity `json:"channel"`
	ChannelAddress string   `json:"channelAddress"`
}
