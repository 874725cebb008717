package pst

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCommitmentShape(t *testing.T) {
	kp, err := GenerateKeyPair(1, 1_700_000_000) // seconds-scale expiry
	require.NoError(t, err)

	doc, err := KeyCommitment("issuer.example", V3, 1024, []*PublicKey{&kp.Public})
	require.NoError(t, err)

	var parsed map[string]map[string]protocolCommitment
	require.NoError(t, json.Unmarshal(doc, &parsed))

	host, ok := parsed["issuer.example"]
	require.True(t, ok)
	body, ok := host["PrivateStateTokenV3VOPRF"]
	require.True(t, ok)
	assert.Equal(t, "PrivateStateTokenV3VOPRF", body.ProtocolVersion)
	assert.Equal(t, commitmentID, body.ID)
	assert.Equal(t, uint16(1024), body.BatchSize)

	key, ok := body.Keys["1"]
	require.True(t, ok)
	assert.NotEmpty(t, key.Y)
	assert.Len(t, key.Expiry, 16)
}

func TestNormalizeExpiryMicros(t *testing.T) {
	cases := []struct {
		in, want uint64
	}{
		{0, 0},
		{1_700_000_000, 1_700_000_000_000_000},          // seconds -> microseconds
		{1_700_000_000_000, 1_700_000_000_000_000},       // milliseconds -> microseconds
		{1_700_000_000_000_000, 1_700_000_000_000_000},   // already microseconds
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeExpiryMicros(c.in))
	}
}

func TestKeyCommitmentPublicKeyBytesShape(t *testing.T) {
	kp, err := GenerateKeyPair(99, 0)
	require.NoError(t, err)
	b := keyCommitmentPublicKeyBytes(&kp.Public)
	require.Len(t, b, 4+PointLen)
}
