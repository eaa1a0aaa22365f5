package jwtsign

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const segmentSeparator = "."

var segmentEncoding = base64.RawURLEncoding.Strict()

// splitToken splits a compact token into its header, claims and signature
// segments without decoding them.
func splitToken(token string) (string, string, string, error) {
	if n := strings.Count(token, segmentSeparator); n != 2 {
		return "", "", "", newErrorf(ErrCodeMalformedToken, "token expected three segments, found %d", n+1)
	}
	parts := strings.SplitN(token, segmentSeparator, 3)
	return parts[0], parts[1], parts[2], nil
}

func joinSegments(segments ...string) string {
	return strings.Join(segments, segmentSeparator)
}

func encodeSegment(data []byte) string {
	return segmentEncoding.EncodeToString(data)
}

func decodeSegment(segment string) ([]byte, error) {
	data, err := segmentEncoding.DecodeString(segment)
	if err != nil {
		return nil, newError(ErrCodeMalformedToken, fmt.Errorf("invalid base64url segment: %w", err))
	}
	return data, nil
}

func serializeHeader(header Header) ([]byte, error) {
	data, err := json.Marshal(header)
	if err != nil {
		return nil, newError(ErrCodeInvalidOptions, fmt.Errorf("marshal header: %w", err))
	}
	return data, nil
}

// serializeClaims emits the claim set as a single JSON object with sorted keys.
func serializeClaims(claims ClaimSet) ([]byte, error) {
	if claims == nil {
		claims = ClaimSet{}
	}
	data, err := json.Marshal(map[string]any(claims))
	if err != nil {
		return nil, newError(ErrCodeInvalidClaims, fmt.Errorf("marshal claims: %w", err))
	}
	return data, nil
}

func parseClaims(data []byte) (ClaimSet, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, newError(ErrCodeInvalidClaims, fmt.Errorf("claims are not valid JSON: %w", err))
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, newErrorf(ErrCodeInvalidClaims, "claims are not a JSON object, got %T", value)
	}
	return ClaimSet(object), nil
}

func parseHeader(data []byte) (Header, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Header{}, newError(ErrCodeMalformedToken, errors.New("header is not a JSON object"))
	}
	var header Header
	if err := json.Unmarshal(trimmed, &header); err != nil {
		return Header{}, newError(ErrCodeMalformedToken, fmt.Errorf("header is not valid JSON: %w", err))
	}
	if header.Algorithm == "" {
		return Header{}, newError(ErrCodeMalformedToken, errors.New(`header is missing "alg"`))
	}
	return header, nil
}

// decodedToken holds the segments of a token after structural decoding.
type decodedToken struct {
	header       Header
	claims       ClaimSet
	rawHeader    string
	rawClaims    string
	rawSignature string
}

func (d *decodedToken) signingInput() []byte {
	return []byte(joinSegments(d.rawHeader, d.rawClaims))
}

func (d *decodedToken) complete() *CompleteToken {
	return &CompleteToken{Header: d.header, Payload: d.claims, Signature: d.rawSignature}
}

// decodeHeader splits the token and parses its header; the claims segment is
// left untouched.
func decodeHeader(token string) (*decodedToken, error) {
	rawHeader, rawClaims, rawSignature, err := splitToken(token)
	if err != nil {
		return nil, err
	}
	headerBytes, err := decodeSegment(rawHeader)
	if err != nil {
		return nil, err
	}
	header, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	return &decodedToken{
		header:       header,
		rawHeader:    rawHeader,
		rawClaims:    rawClaims,
		rawSignature: rawSignature,
	}, nil
}

func (d *decodedToken) decodeClaims() error {
	claimsBytes, err := decodeSegment(d.rawClaims)
	if err != nil {
		return err
	}
	claims, err := parseClaims(claimsBytes)
	if err != nil {
		return err
	}
	d.claims = claims
	return nil
}
