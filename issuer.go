package pst

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxBatchSize is the batch-size advertised by a freshly
// generated issuer when none is specified.
const DefaultMaxBatchSize = 1 << 12

// Config governs an Issuer's construction. The zero value is invalid;
// call WithDefaults before Validate.
type Config struct {
	Host            string
	MaxBatchSize    uint16
	ProtocolVersion ProtocolVersion
	// DeterministicRNG swaps Issue's proof-nonce source from
	// crypto/rand to RNG. It exists for fixture-driven tests that need
	// to reproduce an exact proof vector; production issuers must
	// leave it false, since RNG is never defaulted to anything but the
	// caller's own injected reader.
	DeterministicRNG bool
	RNG              io.Reader
	Logger           *slog.Logger
}

// WithDefaults returns a copy of c with unset fields replaced by their
// defaults: MaxBatchSize 4096, protocol version V3, and a discard
// logger. DeterministicRNG and RNG are left as supplied.
func (c Config) WithDefaults() Config {
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.ProtocolVersion == protocolVersionUnset {
		c.ProtocolVersion = V3
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Validate checks required configuration fields.
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.MaxBatchSize == 0 {
		return ErrInvalidBatchSize
	}
	if _, ok := c.ProtocolVersion.suite(); !ok {
		return ErrUnknownProtocol
	}
	if c.DeterministicRNG && c.RNG == nil {
		return ErrMissingRNG
	}
	return nil
}

// Issuer owns a keyed set of key pairs and dispatches issue/redeem
// calls against them. The key map is read-mostly: issue and redeem
// take a read lock to fetch one key pair, while AddKey/AddJWK take a
// write lock. No lock is contended once the key set is frozen.
type Issuer struct {
	cfg  Config
	mu   sync.RWMutex
	keys map[uint32]*KeyPair
}

// NewIssuer constructs an empty Issuer from cfg, which must already
// satisfy Validate.
func NewIssuer(cfg Config) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Issuer{
		cfg:  cfg,
		keys: make(map[uint32]*KeyPair),
	}, nil
}

// Generate constructs an Issuer with a single freshly-generated key
// pair, per §4.6's generate(host, maxBatchSize, id).
func Generate(host string, maxBatchSize uint16, id uint32) (*Issuer, error) {
	iss, err := NewIssuer(Config{Host: host, MaxBatchSize: maxBatchSize, ProtocolVersion: V3}.WithDefaults())
	if err != nil {
		return nil, err
	}
	kp, err := GenerateKeyPair(id, 0)
	if err != nil {
		return nil, err
	}
	iss.AddKey(kp)
	return iss, nil
}

// AddKey upserts kp into the issuer's key set, keyed by kp.ID.
func (iss *Issuer) AddKey(kp *KeyPair) {
	iss.mu.Lock()
	defer iss.mu.Unlock()
	iss.keys[kp.ID] = kp
	iss.cfg.Logger.Info("key added", "key_id", kp.ID, "expiry", kp.Expiry)
}

// AddJWK imports jwk and upserts the resulting key pair.
func (iss *Issuer) AddJWK(jwk *JWK) error {
	kp, err := ImportJWK(jwk)
	if err != nil {
		return err
	}
	iss.AddKey(kp)
	return nil
}

// PublicKeys returns the issuer's public keys ordered by ascending ID.
func (iss *Issuer) PublicKeys() []*PublicKey {
	iss.mu.RLock()
	defer iss.mu.RUnlock()
	out := make([]*PublicKey, 0, len(iss.keys))
	for _, kp := range iss.keys {
		pk := kp.Public
		out = append(out, &pk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// resolveVersion returns v, or the issuer's configured default protocol
// version (cfg.ProtocolVersion) when v is the zero value. This is what
// makes cfg.ProtocolVersion an actual default rather than a
// construction-time-only check: callers that don't care pass the zero
// ProtocolVersion and get the issuer's configured version; callers that
// need a specific version for one call pass it explicitly and override
// the default for that call only.
func (iss *Issuer) resolveVersion(v ProtocolVersion) ProtocolVersion {
	if v == protocolVersionUnset {
		return iss.cfg.ProtocolVersion
	}
	return v
}

// KeyCommitment returns the key-commitment document for version, or
// for the issuer's configured default version if version is the zero
// value, per §4.3.
func (iss *Issuer) KeyCommitment(version ProtocolVersion) ([]byte, error) {
	return KeyCommitment(iss.cfg.Host, iss.resolveVersion(version), iss.cfg.MaxBatchSize, iss.PublicKeys())
}

// Issue evaluates the VOPRF and batched DLEQ proof for req under keyID,
// under version or, if version is the zero value, the issuer's
// configured default version. The proof nonce is drawn from
// crypto/rand, unless the issuer was configured with DeterministicRNG,
// in which case it is drawn from cfg.RNG instead. Returns ErrUnknownKey
// if no such key is registered.
func (iss *Issuer) Issue(keyID uint32, req *IssueRequest, version ProtocolVersion) (*IssueResponse, error) {
	rng := rand.Reader
	if iss.cfg.DeterministicRNG {
		rng = iss.cfg.RNG
	}
	return iss.issueWithRand(keyID, req, iss.resolveVersion(version), rng)
}

func (iss *Issuer) issueWithRand(keyID uint32, req *IssueRequest, version ProtocolVersion, rng io.Reader) (*IssueResponse, error) {
	iss.mu.RLock()
	kp, ok := iss.keys[keyID]
	iss.mu.RUnlock()
	if !ok {
		return nil, WrapKeyError("issue", keyID, ErrUnknownKey)
	}

	correlationID := uuid.New()
	resp, err := issue(kp, req, version, rng)
	if err != nil {
		iss.cfg.Logger.Error("issue failed", "correlation_id", correlationID, "key_id", keyID, "err", err)
		return nil, err
	}

	logLevel := slog.LevelInfo
	if req.Skipped > 0 {
		logLevel = slog.LevelWarn
	}
	iss.cfg.Logger.Log(context.Background(), logLevel, "issue completed",
		"correlation_id", correlationID,
		"key_id", keyID,
		"requested", len(req.Nonces)+req.Skipped,
		"issued", len(resp.Signed),
		"skipped", req.Skipped,
	)
	return resp, nil
}

// Redeem verifies req against keyID's secret scalar and, on success,
// returns record unchanged. Returns ErrUnknownKey or ErrRedeemMismatch
// on rejection.
func (iss *Issuer) Redeem(req *RedeemRequest, record []byte, version ProtocolVersion) ([]byte, error) {
	iss.mu.RLock()
	kp, ok := iss.keys[req.Token.KeyID]
	iss.mu.RUnlock()
	if !ok {
		iss.cfg.Logger.Warn("redeem rejected: unknown key", "key_id", req.Token.KeyID)
		return nil, WrapKeyError("redeem", req.Token.KeyID, ErrUnknownKey)
	}

	if err := redeem(kp, req, iss.resolveVersion(version)); err != nil {
		iss.cfg.Logger.Warn("redeem rejected", "key_id", req.Token.KeyID, "err", err)
		return nil, err
	}

	iss.cfg.Logger.Info("redeem succeeded", "key_id", req.Token.KeyID)
	return record, nil
}
