package model

import (
	"crypto/sha256"
	"time"
)

// KindRelayCursor tags the persisted position of an event relay.
const KindRelayCursor Kind = "relay_cursor"

// RelayCursor is the last journal sequence a named relay has published.
type RelayCursor struct {
	Name      string    `json:"name"`
	Seq       int64     `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RelayCursorLocation is the address of the cursor for the relay called name.
func RelayCursorLocation(name string) Location {
	h := sha256.New()
	h.Write([]byte(KindRelayCursor))
	h.Write([]byte{0})
	h.Write([]byte(name))
	var loc Location
	copy(loc[:], h.Sum(nil))
	return loc
}
