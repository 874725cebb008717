package pst

import (
	"math/big"
	"testing"
)

// orderMinusOne returns n-1, the scalar used throughout §8's fixed test
// vectors (both the fixture secret key and the fixture proof nonce).
func orderMinusOne() Scalar {
	one := big.NewInt(1)
	return ScalarFromBigInt(new(big.Int).Sub(groupOrder, one))
}

// fixtureKeyPair returns the deterministic key pair from §8 scenario 1:
// kid=0, d = n-1.
func fixtureKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	sk := orderMinusOne()
	pk := MulGen(sk)
	return &KeyPair{
		ID:     0,
		Secret: SecretKey{ID: 0, Scalar: sk},
		Public: PublicKey{ID: 0, Point: pk},
	}
}

// fixedReader always returns the same scalar's big-endian encoding. It
// is the io.Reader tests inject through issue's rng parameter, or
// through Config.RNG under Config.DeterministicRNG, to reproduce §8's
// deterministic proof-nonce vectors.
type fixedReader struct {
	b []byte
}

func newFixedReader(s Scalar) *fixedReader {
	return &fixedReader{b: s.Bytes()}
}

func (f *fixedReader) Read(p []byte) (int, error) {
	return copy(p, f.b), nil
}
