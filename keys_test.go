package pst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair(5, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), kp.ID)
	assert.Equal(t, uint32(5), kp.Public.ID)
	assert.Equal(t, uint32(5), kp.Secret.ID)
	assert.False(t, kp.Secret.Scalar.IsZero())
	assert.True(t, kp.Public.Point.Equal(MulGen(kp.Secret.Scalar)))
}

func TestKeyPairSetIDPropagates(t *testing.T) {
	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	kp.SetID(9)
	assert.Equal(t, uint32(9), kp.ID)
	assert.Equal(t, uint32(9), kp.Public.ID)
	assert.Equal(t, uint32(9), kp.Secret.ID)
}

func TestKeyPairSetExpiryPropagates(t *testing.T) {
	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	kp.SetExpiry(123456)
	assert.Equal(t, uint64(123456), kp.Expiry)
	assert.Equal(t, uint64(123456), kp.Public.Expiry)
	assert.Equal(t, uint64(123456), kp.Secret.Expiry)
}

func TestJWKRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(3, 42)
	require.NoError(t, err)

	jwk := ExportJWK(kp)
	assert.Equal(t, "EC", jwk.Kty)
	assert.Equal(t, "P-384", jwk.Crv)
	assert.Equal(t, uint32(3), jwk.Kid)

	imported, err := ImportJWK(jwk)
	require.NoError(t, err)
	assert.True(t, imported.Public.Point.Equal(kp.Public.Point))
	assert.True(t, imported.Secret.Scalar.Equal(kp.Secret.Scalar))
	assert.Equal(t, kp.Expiry, imported.Expiry)
}

func TestImportJWK_InvalidCoordinateLength(t *testing.T) {
	jwk := &JWK{Kty: "EC", Crv: "P-384", X: "short", Y: "short", D: "short"}
	_, err := ImportJWK(jwk)
	assert.ErrorIs(t, err, ErrInvalidJWK)
}

func TestImportJWK_ZeroSecret(t *testing.T) {
	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	jwk := ExportJWK(kp)
	jwk.D = ExportJWK(&KeyPair{Secret: SecretKey{Scalar: NewScalar()}, Public: kp.Public}).D
	_, err = ImportJWK(jwk)
	assert.ErrorIs(t, err, ErrZeroSecretKey)
}

func TestFixtureKeyPair(t *testing.T) {
	kp := fixtureKeyPair(t)
	assert.True(t, kp.Secret.Scalar.Equal(orderMinusOne()))
}
