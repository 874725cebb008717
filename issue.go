package pst

import (
	"encoding/binary"
	"io"
)

// dleqBatchLabel and dleqLabel are the fixed prefixes mixed into the
// batch-coefficient and challenge transcripts, per §4.4.
var (
	dleqBatchLabel = []byte("DLEQ BATCH\x00")
	dleqLabel      = []byte("DLEQ\x00")
)

// issue evaluates the VOPRF over req's surviving nonces under kp's
// secret scalar and assembles the batched DLEQ proof, per §4.4.
func issue(kp *KeyPair, req *IssueRequest, version ProtocolVersion, rng io.Reader) (*IssueResponse, error) {
	s, ok := version.suite()
	if !ok {
		return nil, ErrUnknownProtocol
	}

	signed := make([]Point, len(req.Nonces))
	for i, t := range req.Nonces {
		signed[i] = t.Mul(kp.Secret.Scalar)
	}

	proof, err := generateBatchProof(kp.Secret.Scalar, kp.Public.Point, req.Nonces, signed, s, rng)
	if err != nil {
		return nil, err
	}

	return &IssueResponse{
		KeyID:  kp.ID,
		Signed: signed,
		Proof:  proof,
	}, nil
}

// generateBatchProof implements §4.4 steps 4a-4h.
func generateBatchProof(sk Scalar, pk Point, ts, zs []Point, s suite, rng io.Reader) ([]byte, error) {
	pkBytes := pk.Bytes()

	transcript := make([]byte, 0, len(pkBytes)+len(ts)*2*PointLen)
	transcript = append(transcript, pkBytes...)
	for i := range ts {
		transcript = append(transcript, ts[i].Bytes()...)
		transcript = append(transcript, zs[i].Bytes()...)
	}

	tStar := Identity()
	zStar := Identity()
	for i := range ts {
		e, err := batchCoefficient(s, transcript, i)
		if err != nil {
			return nil, err
		}
		tStar = tStar.Add(ts[i].Mul(e))
		zStar = zStar.Add(zs[i].Mul(e))
	}

	r := RandomScalar(rng)
	if r.IsZero() {
		return nil, ErrRngFailure
	}

	k0 := MulGen(r)
	k1 := tStar.Mul(r)

	c, err := challenge(s, pkBytes, tStar, zStar, k0, k1)
	if err != nil {
		return nil, err
	}
	u := r.Add(c.Mul(sk))

	proof := make([]byte, 0, 2*ScalarLen)
	proof = append(proof, c.Bytes()...)
	proof = append(proof, u.Bytes()...)
	return proof, nil
}

// batchCoefficient computes e_i = hash_to_scalar("DLEQ BATCH\0" || B || u16(i)).
func batchCoefficient(s suite, transcript []byte, i int) (Scalar, error) {
	input := make([]byte, 0, len(dleqBatchLabel)+len(transcript)+2)
	input = append(input, dleqBatchLabel...)
	input = append(input, transcript...)
	input = binary.BigEndian.AppendUint16(input, uint16(i))
	return hashToScalar(s.newHash, input, s.hashToScalarDST)
}

// challenge computes c = hash_to_scalar("DLEQ\0" || pk || T* || Z* || k0 || k1).
func challenge(s suite, pkBytes []byte, tStar, zStar, k0, k1 Point) (Scalar, error) {
	input := make([]byte, 0, len(dleqLabel)+len(pkBytes)+4*PointLen)
	input = append(input, dleqLabel...)
	input = append(input, pkBytes...)
	input = append(input, tStar.Bytes()...)
	input = append(input, zStar.Bytes()...)
	input = append(input, k0.Bytes()...)
	input = append(input, k1.Bytes()...)
	return hashToScalar(s.newHash, input, s.hashToScalarDST)
}
