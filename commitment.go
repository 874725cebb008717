package pst

import (
	"encoding/binary"
	"encoding/json"
	"strconv"
)

// KeyCommitmentKey is one key entry inside a commitment document: the
// base64 encoding of u32 id ‖ Point, paired with its expiry expressed
// as a decimal string of microseconds since the Unix epoch.
type KeyCommitmentKey struct {
	Y      string `json:"Y"`
	Expiry string `json:"expiry"`
}

// protocolCommitment is the per-version body nested under the host key.
type protocolCommitment struct {
	ProtocolVersion string                      `json:"protocol_version"`
	ID              int                         `json:"id"`
	BatchSize       uint16                      `json:"batchsize"`
	Keys            map[string]KeyCommitmentKey `json:"keys"`
}

// commitmentID is the fixed commitment identifier emitted in every
// document, per §4.3.
const commitmentID = 1

// KeyCommitment builds the document described in §4.3 for the given
// host, protocol version, batch size, and key set.
func KeyCommitment(host string, version ProtocolVersion, maxBatchSize uint16, keys []*PublicKey) ([]byte, error) {
	entries := make(map[string]KeyCommitmentKey, len(keys))
	for _, pk := range keys {
		entries[strconv.FormatUint(uint64(pk.ID), 10)] = KeyCommitmentKey{
			Y:      EncodeBase64(keyCommitmentPublicKeyBytes(pk)),
			Expiry: strconv.FormatUint(normalizeExpiryMicros(pk.Expiry), 10),
		}
	}

	doc := map[string]map[string]protocolCommitment{
		host: {
			version.String(): {
				ProtocolVersion: version.String(),
				ID:              commitmentID,
				BatchSize:       maxBatchSize,
				Keys:            entries,
			},
		},
	}
	return json.Marshal(doc)
}

// keyCommitmentPublicKeyBytes encodes a public key as u32 id ‖ Point,
// per the KeyCommitmentPublicKey wire shape in §4.2.
func keyCommitmentPublicKeyBytes(pk *PublicKey) []byte {
	out := make([]byte, 4+PointLen)
	binary.BigEndian.PutUint32(out, pk.ID)
	copy(out[4:], pk.Point.Bytes())
	return out
}

// normalizeExpiryMicros scales expiry up to microseconds by the
// smallest power of 10^3 that brings it to at least 16 decimal digits,
// per §4.3's ingestion heuristic. Values already at or beyond that
// width are returned unchanged.
func normalizeExpiryMicros(expiry uint64) uint64 {
	if expiry == 0 {
		return 0
	}
	scaled := expiry
	for k := 0; k <= 15; k += 3 {
		if len(strconv.FormatUint(scaled, 10)) >= 16 {
			return scaled
		}
		scaled *= 1000
	}
	return scaled
}
