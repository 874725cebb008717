package pst

import (
	"crypto/elliptic"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"hash"
	"io"
	"math/big"

	circl "github.com/cloudflare/circl/group"
)

// P384 is the group in which every scalar and point in this package
// lives. Scalar and point arithmetic is delegated to circl; this file
// pins the wire encoding, the constant-time comparisons, and the custom
// hash-to-scalar/hash-to-group constructions the two protocol versions
// need. Those constructions do their field arithmetic in math/big and
// their point addition on crypto/elliptic's P-384.
var P384 = circl.P384

// groupOrder is P-384's base-point order n. circl's group package keeps
// the order opaque (every example in the pack only reads byte-length
// fields off Params(), never an order accessor), so this is sourced
// from crypto/elliptic instead; it is used only by fixtures that need
// an explicit n-1 test vector.
var groupOrder = elliptic.P384().Params().N

const (
	// PointLen is the X9.62 uncompressed encoding length for P-384.
	PointLen = 97
	// ScalarLen is the fixed-width big-endian encoding length for a
	// P-384 scalar.
	ScalarLen = 48
)

// ErrInvalidPoint is returned when a byte string does not decode to a
// valid, non-identity point on P-384.
var ErrInvalidPoint = errors.New("pst: invalid point encoding")

// ErrInvalidScalar is returned when a byte string is not a well-formed
// fixed-width scalar encoding.
var ErrInvalidScalar = errors.New("pst: invalid scalar encoding")

// Point is a non-identity element of P-384.
type Point struct {
	e circl.Element
}

// Scalar is an integer modulo the P-384 group order.
type Scalar struct {
	s circl.Scalar
}

// Generator returns the base point G.
func Generator() Point {
	return Point{e: P384.Generator()}
}

// NewPoint allocates a zero-valued point, suitable as a decode target.
func NewPoint() Point {
	return Point{e: P384.NewElement()}
}

// NewScalar allocates a zero-valued scalar, suitable as a decode target.
func NewScalar() Scalar {
	return Scalar{s: P384.NewScalar()}
}

// RandomScalar draws a uniform scalar in [0, n) from r.
func RandomScalar(r io.Reader) Scalar {
	return Scalar{s: P384.RandomScalar(r)}
}

// ScalarFromBigInt reduces v modulo the group order and returns the
// resulting scalar.
func ScalarFromBigInt(v *big.Int) Scalar {
	return Scalar{s: P384.NewScalar().SetBigInt(v)}
}

// PointFromUncompressed decodes the 97-byte X9.62 uncompressed encoding
// of a point. A malformed or off-curve encoding returns ErrInvalidPoint.
func PointFromUncompressed(data []byte) (Point, error) {
	if len(data) != PointLen {
		return Point{}, ErrInvalidPoint
	}
	e := P384.NewElement()
	if err := e.UnmarshalBinary(data); err != nil {
		return Point{}, ErrInvalidPoint
	}
	return Point{e: e}, nil
}

// Bytes returns the 97-byte X9.62 uncompressed encoding of p.
func (p Point) Bytes() []byte {
	b, err := p.e.MarshalBinary()
	if err != nil {
		// circl only fails to marshal an element that was never set;
		// every Point constructed through this package's API carries
		// a valid element.
		panic("pst: marshal of uninitialized point")
	}
	return b
}

// ScalarFromBytes interprets the 48-byte big-endian encoding data as a
// Scalar without reducing modulo the group order; callers are expected
// to supply canonical key material.
func ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != ScalarLen {
		return Scalar{}, ErrInvalidScalar
	}
	s := P384.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return Scalar{}, ErrInvalidScalar
	}
	return Scalar{s: s}, nil
}

// Bytes returns the 48-byte big-endian encoding of s.
func (s Scalar) Bytes() []byte {
	b, err := s.s.MarshalBinary()
	if err != nil {
		panic("pst: marshal of uninitialized scalar")
	}
	return b
}

// Add returns a+b.
func (a Scalar) Add(b Scalar) Scalar {
	return Scalar{s: P384.NewScalar().Add(a.s, b.s)}
}

// Mul returns a*b.
func (a Scalar) Mul(b Scalar) Scalar {
	return Scalar{s: P384.NewScalar().Mul(a.s, b.s)}
}

// IsZero reports whether s is the additive identity.
func (s Scalar) IsZero() bool {
	return s.s.IsZero()
}

// Neg returns -s.
func (s Scalar) Neg() Scalar {
	return Scalar{s: P384.NewScalar().Neg(s.s)}
}

// Sub returns a-b.
func (a Scalar) Sub(b Scalar) Scalar {
	return a.Add(b.Neg())
}

// Equal reports whether a and b are the same scalar.
func (a Scalar) Equal(b Scalar) bool {
	return a.s.IsEqual(b.s)
}

// Mul returns p scaled by s (i.e. s*p).
func (p Point) Mul(s Scalar) Point {
	return Point{e: P384.NewElement().Mul(p.e, s.s)}
}

// MulGen returns G scaled by s.
func MulGen(s Scalar) Point {
	return Point{e: P384.NewElement().MulGen(s.s)}
}

// Add returns a+b.
func (a Point) Add(b Point) Point {
	return Point{e: P384.NewElement().Add(a.e, b.e)}
}

// Neg returns -a.
func (a Point) Neg() Point {
	return Point{e: P384.NewElement().Neg(a.e)}
}

// Sub returns a-b.
func (a Point) Sub(b Point) Point {
	return a.Add(b.Neg())
}

// Identity returns the group's identity element.
func Identity() Point {
	return Point{e: P384.Identity()}
}

// Equal reports whether a and b encode the same point, comparing in
// constant time on the canonical byte encoding.
func (a Point) Equal(b Point) bool {
	return constantTimeEqual(a.Bytes(), b.Bytes())
}

// hashToFieldLen is L from draft-irtf-cfrg-hash-to-curve §8.3 for
// P-384's 192-bit security parameter: ceil((ceil(log2(p))+k)/8) = 72.
const hashToFieldLen = 72

// hashToGroup implements hash_to_curve for the P384_XMD:<hash>_SSWU_RO_
// suite family: two field elements are drawn from msg via
// expand_message_xmd under the caller-supplied hash, each mapped to a
// curve point with the simplified SWU map (§6.6.2), and the two points
// are added. P-384's cofactor is 1, so the sum needs no clearing. Using
// the caller's hash here (rather than circl's HashToElement, which is
// pinned to SHA-384) is what lets the V3 suite genuinely hash to the
// curve with SHA-512.
func hashToGroup(hFunc func() hash.Hash, msg, dst []byte) (Point, error) {
	p, a, b, z := sswuCurveParams()

	uniform, err := expandMessageXMD(hFunc, msg, dst, 2*hashToFieldLen)
	if err != nil {
		return Point{}, err
	}
	u0 := new(big.Int).Mod(new(big.Int).SetBytes(uniform[:hashToFieldLen]), p)
	u1 := new(big.Int).Mod(new(big.Int).SetBytes(uniform[hashToFieldLen:]), p)

	x1, y1 := mapToCurveSimpleSWU(p, a, b, z, u0)
	x2, y2 := mapToCurveSimpleSWU(p, a, b, z, u1)
	x, y := elliptic.P384().Add(x1, y1, x2, y2)

	encoded := make([]byte, PointLen)
	encoded[0] = 0x04
	x.FillBytes(encoded[1 : 1+ScalarLen])
	y.FillBytes(encoded[1+ScalarLen:])
	return PointFromUncompressed(encoded)
}

// sswuCurveParams returns the field modulus and the short-Weierstrass
// A, B, Z constants that draft-irtf-cfrg-hash-to-curve §8.3 maps onto
// P-384 for the SSWU suite family. A = -3 for every NIST prime curve;
// Z = -12 is the suite's fixed non-square parameter for this curve.
func sswuCurveParams() (p, a, b, z *big.Int) {
	params := elliptic.P384().Params()
	p = params.P
	a = new(big.Int).Sub(p, big.NewInt(3))
	b = new(big.Int).Set(params.B)
	z = new(big.Int).Sub(p, big.NewInt(12))
	return
}

// mapToCurveSimpleSWU implements map_to_curve_simple_swu (§6.6.2) for a
// short-Weierstrass curve with A*B != 0, which P-384 satisfies
// directly: no 3-isogeny is needed, unlike curves such as secp256k1.
func mapToCurveSimpleSWU(p, a, b, z, u *big.Int) (x, y *big.Int) {
	one := big.NewInt(1)

	u2 := new(big.Int).Mod(new(big.Int).Mul(u, u), p)
	u4 := new(big.Int).Mod(new(big.Int).Mul(u2, u2), p)
	z2 := new(big.Int).Mod(new(big.Int).Mul(z, z), p)

	t := new(big.Int).Mod(new(big.Int).Add(
		new(big.Int).Mul(z2, u4),
		new(big.Int).Mul(z, u2),
	), p)
	tv1 := inv0(t, p)

	var x1 *big.Int
	if tv1.Sign() == 0 {
		za := new(big.Int).Mod(new(big.Int).Mul(z, a), p)
		x1 = new(big.Int).Mod(new(big.Int).Mul(b, new(big.Int).ModInverse(za, p)), p)
	} else {
		negB := new(big.Int).Mod(new(big.Int).Neg(b), p)
		invA := new(big.Int).ModInverse(a, p)
		c1 := new(big.Int).Mod(new(big.Int).Mul(negB, invA), p)
		x1 = new(big.Int).Mod(new(big.Int).Mul(c1, new(big.Int).Add(one, tv1)), p)
	}

	gx1 := curveRHS(p, a, b, x1)
	x2 := new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(z, u2), x1), p)
	gx2 := curveRHS(p, a, b, x2)

	var gx *big.Int
	if isSquare(gx1, p) {
		x, gx = x1, gx1
	} else {
		x, gx = x2, gx2
	}
	y = sqrtP3mod4(gx, p)

	if sgn0(u) != sgn0(y) {
		y = new(big.Int).Mod(new(big.Int).Neg(y), p)
	}
	return x, y
}

// curveRHS evaluates x^3 + a*x + b mod p.
func curveRHS(p, a, b, x *big.Int) *big.Int {
	x3 := new(big.Int).Exp(x, big.NewInt(3), p)
	ax := new(big.Int).Mod(new(big.Int).Mul(a, x), p)
	return new(big.Int).Mod(new(big.Int).Add(new(big.Int).Add(x3, ax), b), p)
}

// inv0 returns the modular inverse of x mod p, or 0 if x is 0.
func inv0(x, p *big.Int) *big.Int {
	if x.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).ModInverse(x, p)
}

// isSquare reports whether x is a quadratic residue modulo the prime p.
func isSquare(x, p *big.Int) bool {
	return big.Jacobi(x, p) >= 0
}

// sqrtP3mod4 returns a square root of x modulo p, valid because P-384's
// field modulus is 3 mod 4: x^((p+1)/4).
func sqrtP3mod4(x, p *big.Int) *big.Int {
	e := new(big.Int).Rsh(new(big.Int).Add(p, big.NewInt(1)), 2)
	return new(big.Int).Exp(x, e, p)
}

// sgn0 returns the parity of x's integer representative, per §4.1's
// sgn0 for a degree-1 extension field.
func sgn0(x *big.Int) uint {
	return x.Bit(0)
}

// hashToScalar implements hash_to_field with m=1, k=192, L=72 over the
// P-384 scalar field using expand_message_xmd with the caller-supplied
// hash, reducing the result modulo the group order. This is used
// directly (rather than circl's HashToScalar, which is pinned to
// SHA-384) so that the V3 suite's SHA-512 requirement is honored.
func hashToScalar(h func() hash.Hash, msg, dst []byte) (Scalar, error) {
	const l = 72
	uniform, err := expandMessageXMD(h, msg, dst, l)
	if err != nil {
		return Scalar{}, err
	}
	v := new(big.Int).SetBytes(uniform)
	return ScalarFromBigInt(v), nil
}

// expandMessageXMD implements expand_message_xmd from
// draft-irtf-cfrg-hash-to-curve §5.4.1.
func expandMessageXMD(hFunc func() hash.Hash, msg, dst []byte, lenInBytes int) ([]byte, error) {
	h := hFunc()
	bInBytes := h.Size()
	rInBytes := h.BlockSize()
	ell := (lenInBytes + bInBytes - 1) / bInBytes
	if ell > 255 {
		return nil, errors.New("pst: expand_message_xmd: requested length too large")
	}
	if len(dst) > 255 {
		return nil, errors.New("pst: expand_message_xmd: dst too long")
	}
	dstPrime := append(append([]byte{}, dst...), byte(len(dst)))

	zPad := make([]byte, rInBytes)
	libStr := make([]byte, 2)
	binary.BigEndian.PutUint16(libStr, uint16(lenInBytes))

	h.Reset()
	h.Write(zPad)
	h.Write(msg)
	h.Write(libStr)
	h.Write([]byte{0})
	h.Write(dstPrime)
	b0 := h.Sum(nil)

	h.Reset()
	h.Write(b0)
	h.Write([]byte{1})
	h.Write(dstPrime)
	bi := h.Sum(nil)

	uniform := make([]byte, 0, ell*bInBytes)
	uniform = append(uniform, bi...)

	for i := 2; i <= ell; i++ {
		xored := make([]byte, bInBytes)
		for j := range xored {
			xored[j] = b0[j] ^ bi[j]
		}
		h.Reset()
		h.Write(xored)
		h.Write([]byte{byte(i)})
		h.Write(dstPrime)
		bi = h.Sum(nil)
		uniform = append(uniform, bi...)
	}
	return uniform[:lenInBytes], nil
}

// constantTimeEqual compares two byte slices without leaking timing
// information about the position of the first mismatch.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
