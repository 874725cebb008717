package pst

import (
	"crypto/rand"
	"encoding/base64"
)

// SecretKey is the VOPRF secret scalar for one key identifier.
type SecretKey struct {
	ID     uint32
	Scalar Scalar
	Expiry uint64
}

// PublicKey is the VOPRF public point for one key identifier. Callers
// constructing a PublicKey directly (as opposed to via GenerateKeyPair
// or ImportJWK) are responsible for ensuring Point = Scalar*G.
type PublicKey struct {
	ID     uint32
	Point  Point
	Expiry uint64
}

// KeyPair couples a secret and public key sharing one identifier and
// expiry. Mutating ID or Expiry on the pair propagates to both halves.
type KeyPair struct {
	ID     uint32
	Public PublicKey
	Secret SecretKey
	Expiry uint64
}

// SetID rewrites the identifier on the pair and both sub-keys.
func (kp *KeyPair) SetID(id uint32) {
	kp.ID = id
	kp.Public.ID = id
	kp.Secret.ID = id
}

// SetExpiry rewrites the expiry on the pair and both sub-keys.
func (kp *KeyPair) SetExpiry(expiry uint64) {
	kp.Expiry = expiry
	kp.Public.Expiry = expiry
	kp.Secret.Expiry = expiry
}

// GenerateKeyPair draws a fresh secret scalar from crypto/rand and
// derives the matching public point.
func GenerateKeyPair(id uint32, expiry uint64) (*KeyPair, error) {
	sk := RandomScalar(rand.Reader)
	if sk.IsZero() {
		return nil, ErrZeroSecretKey
	}
	pk := MulGen(sk)
	return &KeyPair{
		ID:     id,
		Secret: SecretKey{ID: id, Scalar: sk, Expiry: expiry},
		Public: PublicKey{ID: id, Point: pk, Expiry: expiry},
		Expiry: expiry,
	}, nil
}

// JWK is the key-import shape described in §6: an EC P-384 key record
// carrying the affine coordinates and the private scalar, base64url
// encoded without padding.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid uint32 `json:"kid"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d"`
	Exp uint64 `json:"exp"`
}

// ImportJWK constructs a KeyPair from a JWK record. x, y, d must each
// decode to exactly ScalarLen bytes; the public point is built from
// 0x04 ‖ x ‖ y without verifying that it equals d*G.
func ImportJWK(jwk *JWK) (*KeyPair, error) {
	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil || len(x) != ScalarLen {
		return nil, ErrInvalidJWK
	}
	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil || len(y) != ScalarLen {
		return nil, ErrInvalidJWK
	}
	d, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil || len(d) != ScalarLen {
		return nil, ErrInvalidJWK
	}

	pointBytes := make([]byte, 0, PointLen)
	pointBytes = append(pointBytes, 0x04)
	pointBytes = append(pointBytes, x...)
	pointBytes = append(pointBytes, y...)
	pub, err := PointFromUncompressed(pointBytes)
	if err != nil {
		return nil, ErrInvalidJWK
	}
	sk, err := ScalarFromBytes(d)
	if err != nil {
		return nil, ErrInvalidJWK
	}
	if sk.IsZero() {
		return nil, ErrZeroSecretKey
	}

	return &KeyPair{
		ID:     jwk.Kid,
		Secret: SecretKey{ID: jwk.Kid, Scalar: sk, Expiry: jwk.Exp},
		Public: PublicKey{ID: jwk.Kid, Point: pub, Expiry: jwk.Exp},
		Expiry: jwk.Exp,
	}, nil
}

// ExportJWK renders kp as a JWK record. The resulting D field exposes
// the secret scalar; callers persisting the result are responsible
// for protecting it.
func ExportJWK(kp *KeyPair) *JWK {
	pub := kp.Public.Point.Bytes() // 0x04 || x || y
	return &JWK{
		Kty: "EC",
		Crv: "P-384",
		Kid: kp.ID,
		X:   base64.RawURLEncoding.EncodeToString(pub[1 : 1+ScalarLen]),
		Y:   base64.RawURLEncoding.EncodeToString(pub[1+ScalarLen:]),
		D:   base64.RawURLEncoding.EncodeToString(kp.Secret.Scalar.Bytes()),
		Exp: kp.Expiry,
	}
}
