package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the stored envelope of a directory entity: its location, kind and
// JSON body. Stores persist records opaquely.
type Record struct {
	Location  Location  `json:"location"`
	Kind      Kind      `json:"kind"`
	Body      []byte    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EncodeRecord wraps v into a Record stored at loc.
func EncodeRecord(loc Location, kind Kind, v interface{}, now time.Time) (Record, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s record: %w", kind, err)
	}
	return Record{
		Location:  loc,
		Kind:      kind,
		Body:      body,
		UpdatedAt: now,
	}, nil
}

// Decode unmarshals the record body into v.
func (r Record) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s record at %s: %w", r.Kind, r.Location, err)
	}
	return nil
}
