package pst

// redeem implements §4.5: it recomputes the expected VOPRF output for
// the redeemed nonce under kp's secret scalar and compares it against
// the point supplied in the request in constant time.
func redeem(kp *KeyPair, req *RedeemRequest, version ProtocolVersion) error {
	s, ok := version.suite()
	if !ok {
		return ErrUnknownProtocol
	}

	expected, err := hashToGroup(s.newHash, req.Token.Nonce[:], s.hashToGroupDST)
	if err != nil {
		return err
	}
	evaluated := expected.Mul(kp.Secret.Scalar)

	if !evaluated.Equal(req.Token.W) {
		return ErrRedeemMismatch
	}
	return nil
}
