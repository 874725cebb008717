package pst

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// NonceLen is the fixed length of a redemption nonce.
const NonceLen = 64

// CodecError wraps a decode failure with the name of the field being
// parsed when it occurred.
type CodecError struct {
	Field string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("pst: decode %s: %v", e.Field, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func codecErr(field string) error {
	return &CodecError{Field: field, Err: fmt.Errorf("malformed or short read")}
}

// IssueRequest is the decoded form of a client's blind-issuance request:
// an ordered sequence of blinded nonces.
type IssueRequest struct {
	Nonces []Point
	// Skipped counts nonces that failed to parse as valid points and
	// were silently dropped, per the lenient decode policy.
	Skipped int
}

// EncodeIssueRequest serializes req as u16 count ‖ Point nonces[count].
func EncodeIssueRequest(req *IssueRequest) []byte {
	var b cryptobyte.Builder
	b.AddUint16(uint16(len(req.Nonces)))
	for _, p := range req.Nonces {
		b.AddBytes(p.Bytes())
	}
	return b.BytesOrPanic()
}

// DecodeIssueRequest parses data per §4.2. A nonce that fails to decode
// as a valid point is dropped; Skipped records how many were.
func DecodeIssueRequest(data []byte) (*IssueRequest, error) {
	s := cryptobyte.String(data)
	var count uint16
	if !s.ReadUint16(&count) {
		return nil, codecErr("IssueRequest.count")
	}
	req := &IssueRequest{Nonces: make([]Point, 0, count)}
	for i := uint16(0); i < count; i++ {
		var raw []byte
		if !s.ReadBytes(&raw, PointLen) {
			return nil, codecErr("IssueRequest.nonce")
		}
		p, err := PointFromUncompressed(raw)
		if err != nil {
			req.Skipped++
			continue
		}
		req.Nonces = append(req.Nonces, p)
	}
	return req, nil
}

// IssueResponse is the server's batched VOPRF evaluation plus its
// DLEQ proof.
type IssueResponse struct {
	KeyID  uint32
	Signed []Point
	Proof  []byte // 96 bytes: c(48) || u(48)
}

// EncodeIssueResponse serializes resp per §4.2.
func EncodeIssueResponse(resp *IssueResponse) []byte {
	var b cryptobyte.Builder
	b.AddUint16(uint16(len(resp.Signed)))
	b.AddUint32(resp.KeyID)
	for _, p := range resp.Signed {
		b.AddBytes(p.Bytes())
	}
	b.AddUint16(uint16(len(resp.Proof)))
	b.AddBytes(resp.Proof)
	return b.BytesOrPanic()
}

// DecodeIssueResponse parses data per §4.2.
func DecodeIssueResponse(data []byte) (*IssueResponse, error) {
	s := cryptobyte.String(data)
	var issued uint16
	if !s.ReadUint16(&issued) {
		return nil, codecErr("IssueResponse.issued")
	}
	resp := &IssueResponse{Signed: make([]Point, 0, issued)}
	if !s.ReadUint32(&resp.KeyID) {
		return nil, codecErr("IssueResponse.keyID")
	}
	for i := uint16(0); i < issued; i++ {
		var raw []byte
		if !s.ReadBytes(&raw, PointLen) {
			return nil, codecErr("IssueResponse.signed")
		}
		p, err := PointFromUncompressed(raw)
		if err != nil {
			return nil, &CodecError{Field: "IssueResponse.signed", Err: err}
		}
		resp.Signed = append(resp.Signed, p)
	}
	var proofLen uint16
	if !s.ReadUint16(&proofLen) {
		return nil, codecErr("IssueResponse.proofLen")
	}
	var proof []byte
	if !s.ReadBytes(&proof, int(proofLen)) {
		return nil, codecErr("IssueResponse.proof")
	}
	resp.Proof = proof
	return resp, nil
}

// Token is the bearer credential a client presents on redemption.
type Token struct {
	KeyID uint32
	Nonce [NonceLen]byte
	W     Point
}

// TokenLen is the fixed encoded length of a Token: 4 + 64 + 97.
const TokenLen = 4 + NonceLen + PointLen

// EncodeToken serializes t as u32 key_id ‖ nonce[64] ‖ Point W.
func EncodeToken(t *Token) []byte {
	var b cryptobyte.Builder
	b.AddUint32(t.KeyID)
	b.AddBytes(t.Nonce[:])
	b.AddBytes(t.W.Bytes())
	return b.BytesOrPanic()
}

// DecodeToken parses data, which must be exactly TokenLen bytes.
func DecodeToken(data []byte) (*Token, error) {
	if len(data) != TokenLen {
		return nil, codecErr("Token")
	}
	s := cryptobyte.String(data)
	t := &Token{}
	if !s.ReadUint32(&t.KeyID) {
		return nil, codecErr("Token.keyID")
	}
	var nonce []byte
	if !s.ReadBytes(&nonce, NonceLen) {
		return nil, codecErr("Token.nonce")
	}
	copy(t.Nonce[:], nonce)
	var raw []byte
	if !s.ReadBytes(&raw, PointLen) {
		return nil, codecErr("Token.W")
	}
	p, err := PointFromUncompressed(raw)
	if err != nil {
		return nil, &CodecError{Field: "Token.W", Err: err}
	}
	t.W = p
	return t, nil
}

// RedeemRequest is a client's request to redeem a previously issued
// token, carrying an opaque client-data payload.
type RedeemRequest struct {
	Token      Token
	ClientData []byte
}

// EncodeRedeemRequest serializes req per §4.2.
func EncodeRedeemRequest(req *RedeemRequest) []byte {
	var b cryptobyte.Builder
	tok := EncodeToken(&req.Token)
	b.AddUint16(uint16(len(tok)))
	b.AddBytes(tok)
	b.AddUint16(uint16(len(req.ClientData)))
	b.AddBytes(req.ClientData)
	return b.BytesOrPanic()
}

// DecodeRedeemRequest parses data per §4.2.
func DecodeRedeemRequest(data []byte) (*RedeemRequest, error) {
	s := cryptobyte.String(data)
	var tokLen uint16
	if !s.ReadUint16(&tokLen) {
		return nil, codecErr("RedeemRequest.tokenLen")
	}
	if tokLen != TokenLen {
		return nil, codecErr("RedeemRequest.tokenLen")
	}
	var tokBytes []byte
	if !s.ReadBytes(&tokBytes, int(tokLen)) {
		return nil, codecErr("RedeemRequest.token")
	}
	tok, err := DecodeToken(tokBytes)
	if err != nil {
		return nil, err
	}
	var dataLen uint16
	if !s.ReadUint16(&dataLen) {
		return nil, codecErr("RedeemRequest.clientDataLen")
	}
	var clientData []byte
	if !s.ReadBytes(&clientData, int(dataLen)) {
		return nil, codecErr("RedeemRequest.clientData")
	}
	return &RedeemRequest{Token: *tok, ClientData: clientData}, nil
}

// EncodeBase64 wraps data using standard padded base64, for messages
// crossing the transport boundary.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 reverses EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &CodecError{Field: "base64", Err: err}
	}
	return data, nil
}
