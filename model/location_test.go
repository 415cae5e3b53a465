package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_Deterministic(t *testing.T) {
	s, c := testIdentity(1), testIdentity(2)

	assert.Equal(t, SubscriptionLocation(s, c), SubscriptionLocation(s, c))
	assert.NotEqual(t, SubscriptionLocation(s, c), SubscriptionLocation(c, s))
}

func TestLocation_KindsDoNotCollide(t *testing.T) {
	s, c := testIdentity(1), testIdentity(2)

	// Same key material under different tags must land at different addresses.
	assert.NotEqual(t, SubscriptionLocation(s, c), NotifSettingsLocation(s, c))
	assert.NotEqual(t, SubscriptionLocation(s, c), DelegateLocation(s, c))
	assert.NotEqual(t, RegistryLocation(), SubscriberLocation(ZeroIdentity))
}

func TestParseLocation(t *testing.T) {
	loc := DelegateLocation(testIdentity(3), testIdentity(4))

	parsed, err := ParseLocation(loc.String())
	require.NoError(t, err)
	assert.Equal(t, loc, parsed)

	_, err = ParseLocation("zz")
	assert.Error(t, err)
	_, err = ParseLocation("abcd")
	assert.Error(t, err)
}
