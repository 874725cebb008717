// Package pst implements the issuer-side cryptographic core of a Private
// State Token service: VOPRF blind-signing over NIST P-384, batched DLEQ
// proof generation, and redemption verification.
package pst

import (
	"crypto/sha512"
	"hash"
)

// ProtocolVersion selects the hash function and domain-separation tags
// used by the group primitives. Lookups by name belong at the transport
// boundary only; internally a version is always this closed variant.
type ProtocolVersion uint8

const (
	// protocolVersionUnset is ProtocolVersion's zero value. It has no
	// suite entry, so version.suite() rejects it like any other
	// unrecognized value; Issuer methods treat it as "use the issuer's
	// configured default" (see resolveVersion in issuer.go).
	protocolVersionUnset ProtocolVersion = iota
	// V1 is PrivateStateTokenV1VOPRF, using SHA-384.
	V1
	// V3 is PrivateStateTokenV3VOPRF, using SHA-512. This is the default.
	V3
)

// suite bundles the hash and domain-separation tags for one protocol
// version. DST strings include their trailing NUL byte.
type suite struct {
	name            string
	hashToGroupDST  []byte
	hashToScalarDST []byte
	newHash         func() hash.Hash
}

var suites = map[ProtocolVersion]suite{
	V1: {
		name:            "PrivateStateTokenV1VOPRF",
		hashToGroupDST:  []byte("HashToGroup-OPRFV1-\x01-P384-SHA384\x00"),
		hashToScalarDST: []byte("HashToScalar-OPRFV1-\x01-P384-SHA384\x00"),
		newHash:         sha512.New384,
	},
	V3: {
		name:            "PrivateStateTokenV3VOPRF",
		hashToGroupDST:  []byte("TrustToken VOPRF Experiment V2 HashToGroup\x00"),
		hashToScalarDST: []byte("TrustToken VOPRF Experiment V2 HashToScalar\x00"),
		newHash:         sha512.New,
	},
}

// String returns the protocol name used in key commitment documents.
func (v ProtocolVersion) String() string {
	s, ok := suites[v]
	if !ok {
		return "unknown"
	}
	return s.name
}

func (v ProtocolVersion) suite() (suite, bool) {
	s, ok := suites[v]
	return s, ok
}
