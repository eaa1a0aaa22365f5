package jwtsign

import "fmt"

// Sign issues a compact token for payload with DefaultSettings.
func Sign(payload ClaimSet, key []byte, opts *SignOptions) (string, error) {
	return DefaultSettings().Sign(payload, key, opts)
}

// Sign issues a compact token for payload. The payload is not modified;
// reserved claims derived from opts are merged into a copy before signing.
func (s Settings) Sign(payload ClaimSet, key []byte, opts *SignOptions) (string, error) {
	s = s.normalize()
	if opts == nil {
		opts = &SignOptions{}
	}
	if err := validateOptions(opts); err != nil {
		return "", s.fail("sign", err)
	}

	header, err := opts.resolveHeader(s.DefaultAlgorithm)
	if err != nil {
		return "", s.fail("sign", err)
	}
	claims, err := opts.claims(payload, s.Now())
	if err != nil {
		return "", s.fail("sign", err)
	}
	encodingKey, err := EncodingKeyFor(header.Algorithm, key)
	if err != nil {
		return "", s.fail("sign", err)
	}

	headerJSON, err := serializeHeader(header)
	if err != nil {
		return "", s.fail("sign", err)
	}
	claimsJSON, err := serializeClaims(claims)
	if err != nil {
		return "", s.fail("sign", err)
	}

	signingInput := joinSegments(encodeSegment(headerJSON), encodeSegment(claimsJSON))
	signature, err := encodingKey.sign([]byte(signingInput))
	if err != nil {
		return "", s.fail("sign", newError(ErrCodeInvalidKeyMaterial, fmt.Errorf("sign with %s: %w", header.Algorithm, err)))
	}

	s.Logger.Debug().
		Str("alg", string(header.Algorithm)).
		Str("kid", header.KeyID).
		Int("claims", len(claims)).
		Msg("token signed")

	return joinSegments(signingInput, encodeSegment(signature)), nil
}
