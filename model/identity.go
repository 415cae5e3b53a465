package model

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentitySize is the byte length of an Identity.
const IdentitySize = 32

// Identity is an actor's public key: admins, channels, delegates and
// subscribers are all identities. Its text form is base58.
//
// An identity doubles as an ed25519 public key, so a request signature made
// with the matching private key authenticates the signer.
type Identity [IdentitySize]byte

// ZeroIdentity is the all-zero identity. It never names a valid admin.
var ZeroIdentity Identity

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return ZeroIdentity, errors.New("identity is empty")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return ZeroIdentity, fmt.Errorf("identity %q: %w", s, err)
	}
	return IdentityFromBytes(raw)
}

// IdentityFromBytes copies a raw 32-byte key into an Identity.
func IdentityFromBytes(raw []byte) (Identity, error) {
	var id Identity
	if len(raw) != IdentitySize {
		return id, fmt.Errorf("identity must be %d bytes, got %d", IdentitySize, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the base58 form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is the zero identity.
func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}

// Bytes returns a copy of the raw key.
func (id Identity) Bytes() []byte {
	out := make([]byte, IdentitySize)
	copy(out, id[:])
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
