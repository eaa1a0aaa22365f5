package jwtsign

// DecodeUnverified returns the claims of token WITHOUT checking its signature
// or any claim. It fails only when the token is structurally malformed. Never
// use its result to make an authorization decision; use Verify instead.
func DecodeUnverified(token string) (ClaimSet, error) {
	return DefaultSettings().DecodeUnverified(token)
}

// DecodeUnverifiedComplete is DecodeUnverified returning header and raw
// signature alongside the claims. The signature is not checked.
func DecodeUnverifiedComplete(token string) (*CompleteToken, error) {
	return DefaultSettings().DecodeUnverifiedComplete(token)
}

// DecodeUnverified returns the claims of token without verification.
func (s Settings) DecodeUnverified(token string) (ClaimSet, error) {
	decoded, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	return decoded.claims, nil
}

// DecodeUnverifiedComplete returns header, claims and raw signature of token
// without verification.
func (s Settings) DecodeUnverifiedComplete(token string) (*CompleteToken, error) {
	decoded, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	return decoded.complete(), nil
}

func (s Settings) decode(token string) (*decodedToken, error) {
	decoded, err := decodeHeader(token)
	if err != nil {
		return nil, s.fail("decode", err)
	}
	if err := decoded.decodeClaims(); err != nil {
		return nil, s.fail("decode", err)
	}
	s.Logger.Debug().
		Str("alg", string(decoded.header.Algorithm)).
		Msg("token decoded without verification")
	return decoded, nil
}
