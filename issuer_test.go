package pst

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingHost)

	cfg.Host = "issuer.example"
	assert.NoError(t, cfg.Validate())

	cfg.MaxBatchSize = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidBatchSize)
	cfg.MaxBatchSize = DefaultMaxBatchSize

	cfg.DeterministicRNG = true
	assert.ErrorIs(t, cfg.Validate(), ErrMissingRNG)
}

func TestNewIssuer_RejectsInvalidConfig(t *testing.T) {
	_, err := NewIssuer(Config{})
	assert.ErrorIs(t, err, ErrMissingHost)
}

func TestGenerate(t *testing.T) {
	iss, err := Generate("issuer.example", 2048, 0)
	require.NoError(t, err)
	require.Len(t, iss.PublicKeys(), 1)
	assert.Equal(t, uint32(0), iss.PublicKeys()[0].ID)
}

func TestIssuer_AddKeyAndIssue(t *testing.T) {
	iss, err := NewIssuer(Config{Host: "issuer.example"}.WithDefaults())
	require.NoError(t, err)

	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	iss.AddKey(kp)

	resp, err := iss.Issue(1, &IssueRequest{Nonces: []Point{Generator()}}, V3)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp.KeyID)
	require.Len(t, resp.Signed, 1)
	assert.True(t, resp.Signed[0].Equal(Generator().Mul(kp.Secret.Scalar)))
}

// TestIssuer_UnknownKey reproduces §8 scenario 4.
func TestIssuer_UnknownKey(t *testing.T) {
	iss, err := Generate("issuer.example", 1024, 0)
	require.NoError(t, err)

	_, err = iss.Issue(99, &IssueRequest{Nonces: []Point{Generator()}}, V3)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestIssuer_RedeemUnknownKey(t *testing.T) {
	iss, err := Generate("issuer.example", 1024, 0)
	require.NoError(t, err)

	req := &RedeemRequest{Token: Token{KeyID: 7, W: Generator()}}
	_, err = iss.Redeem(req, []byte("record"), V3)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestIssuer_IssueThenRedeemRoundTrip(t *testing.T) {
	iss, err := Generate("issuer.example", 1024, 5)
	require.NoError(t, err)

	s, ok := V3.suite()
	require.True(t, ok)
	nonce := [NonceLen]byte{}
	copy(nonce[:], []byte("nonce-material-zero-padded-to-sixty-four-bytes"))

	kp := iss.keys[5]
	base, err := hashToGroup(s.newHash, nonce[:], s.hashToGroupDST)
	require.NoError(t, err)
	point := base.Mul(kp.Secret.Scalar)

	req := &RedeemRequest{Token: Token{KeyID: 5, Nonce: nonce, W: point}}
	record, err := iss.Redeem(req, []byte("redemption record"), V3)
	require.NoError(t, err)
	assert.Equal(t, []byte("redemption record"), record)
}

// TestIssuer_ProtocolVersionDefaultedFromConfig checks that omitting the
// per-call version (the zero ProtocolVersion) falls back to the
// issuer's configured default rather than rejecting the call.
func TestIssuer_ProtocolVersionDefaultedFromConfig(t *testing.T) {
	cfg := Config{Host: "issuer.example", ProtocolVersion: V1}.WithDefaults()
	iss, err := NewIssuer(cfg)
	require.NoError(t, err)

	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	iss.AddKey(kp)

	doc, err := iss.KeyCommitment(protocolVersionUnset)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "PrivateStateTokenV1VOPRF")

	resp, err := iss.Issue(1, &IssueRequest{Nonces: []Point{Generator()}}, protocolVersionUnset)
	require.NoError(t, err)

	s, ok := V1.suite()
	require.True(t, ok)
	nonce := [NonceLen]byte{}
	copy(nonce[:], []byte("nonce-material-zero-padded-to-sixty-four-bytes"))
	base, err := hashToGroup(s.newHash, nonce[:], s.hashToGroupDST)
	require.NoError(t, err)
	point := base.Mul(kp.Secret.Scalar)

	req := &RedeemRequest{Token: Token{KeyID: 1, Nonce: nonce, W: point}}
	record, err := iss.Redeem(req, []byte("record"), protocolVersionUnset)
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), record)
	assert.Len(t, resp.Signed, 1)
}

func TestIssuer_AddJWK(t *testing.T) {
	iss, err := NewIssuer(Config{Host: "issuer.example"}.WithDefaults())
	require.NoError(t, err)

	kp, err := GenerateKeyPair(3, 0)
	require.NoError(t, err)
	jwk := ExportJWK(kp)

	require.NoError(t, iss.AddJWK(jwk))
	assert.Len(t, iss.PublicKeys(), 1)
}

func TestIssuer_PublicKeysOrderedByID(t *testing.T) {
	iss, err := NewIssuer(Config{Host: "issuer.example"}.WithDefaults())
	require.NoError(t, err)

	for _, id := range []uint32{5, 1, 3} {
		kp, err := GenerateKeyPair(id, 0)
		require.NoError(t, err)
		iss.AddKey(kp)
	}

	ids := make([]uint32, 0, 3)
	for _, pk := range iss.PublicKeys() {
		ids = append(ids, pk.ID)
	}
	assert.Equal(t, []uint32{1, 3, 5}, ids)
}

func TestIssuer_KeyCommitment(t *testing.T) {
	iss, err := Generate("issuer.example", 4096, 0)
	require.NoError(t, err)

	doc, err := iss.KeyCommitment(V3)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "issuer.example")
	assert.Contains(t, string(doc), "PrivateStateTokenV3VOPRF")
}

// TestIssuer_Idempotence checks issue's fixed-RNG determinism, per §8.
func TestIssuer_Idempotence(t *testing.T) {
	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	req := &IssueRequest{Nonces: []Point{Generator(), MulGen(RandomScalar(rand.Reader))}}

	r := orderMinusOne()
	resp1, err := issue(kp, req, V3, newFixedReader(r))
	require.NoError(t, err)
	resp2, err := issue(kp, req, V3, newFixedReader(r))
	require.NoError(t, err)

	assert.Equal(t, resp1.Proof, resp2.Proof)
}

// TestIssuer_DeterministicRNGConfig exercises Config.DeterministicRNG
// end to end through the Issuer facade, rather than by calling the
// unexported issue function directly.
func TestIssuer_DeterministicRNGConfig(t *testing.T) {
	r := orderMinusOne()
	cfg := Config{
		Host:             "issuer.example",
		DeterministicRNG: true,
		RNG:              newFixedReader(r),
	}.WithDefaults()
	iss, err := NewIssuer(cfg)
	require.NoError(t, err)

	kp, err := GenerateKeyPair(1, 0)
	require.NoError(t, err)
	iss.AddKey(kp)

	req := &IssueRequest{Nonces: []Point{Generator()}}
	resp1, err := iss.Issue(1, req, V3)
	require.NoError(t, err)
	resp2, err := iss.Issue(1, req, V3)
	require.NoError(t, err)

	assert.Equal(t, resp1.Proof, resp2.Proof)
}
