package jwtsign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitToken(t *testing.T) {
	for uc, tc := range map[string]struct {
		token string
		parts []string
		err   bool
	}{
		"three segments":      {token: "a.b.c", parts: []string{"a", "b", "c"}},
		"empty signature":     {token: "a.b.", parts: []string{"a", "b", ""}},
		"all empty":           {token: "..", parts: []string{"", "", ""}},
		"two segments":        {token: "a.b", err: true},
		"four segments":       {token: "a.b.c.d", err: true},
		"no separators":       {token: "abc", err: true},
		"empty":               {token: "", err: true},
		"trailing separators": {token: "a.b.c.", err: true},
	} {
		t.Run(uc, func(t *testing.T) {
			header, claims, signature, err := splitToken(tc.token)

			if tc.err {
				require.ErrorIs(t, err, ErrMalformedToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.parts, []string{header, claims, signature})
		})
	}
}

func TestSegmentEncodingIsUnpaddedURLSafe(t *testing.T) {
	data := []byte{0xfb, 0xff, 0xfe}

	encoded := encodeSegment(data)
	assert.Equal(t, "-__-", encoded)
	assert.NotContains(t, encoded, "=")

	decoded, err := decodeSegment(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeSegmentRejectsNonCanonicalInput(t *testing.T) {
	for uc, segment := range map[string]string{
		"padding":            "YQ==",
		"standard alphabet":  "+/+/",
		"whitespace":         "YW J",
		"trailing bits set":  "YR",
		"impossible length":  "Y",
		"non base64 charset": "ä",
	} {
		t.Run(uc, func(t *testing.T) {
			_, err := decodeSegment(segment)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestSerializeClaimsSortsKeys(t *testing.T) {
	data, err := serializeClaims(ClaimSet{"sub": "x", "aud": "y", "exp": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, `{"aud":"y","exp":5,"sub":"x"}`, string(data))

	data, err = serializeClaims(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestSerializeClaimsRejectsUnencodableValues(t *testing.T) {
	_, err := serializeClaims(ClaimSet{"fn": func() {}})
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestSerializeHeaderOmitsAbsentFields(t *testing.T) {
	data, err := serializeHeader(Header{Algorithm: HS256})
	require.NoError(t, err)
	assert.Equal(t, `{"alg":"HS256"}`, string(data))

	data, err = serializeHeader(Header{Algorithm: RS256, KeyID: "k1", Type: "JWT"})
	require.NoError(t, err)
	assert.Equal(t, `{"alg":"RS256","kid":"k1","typ":"JWT"}`, string(data))
}

func TestParseHeader(t *testing.T) {
	for uc, tc := range map[string]struct {
		json string
		want Header
		err  bool
	}{
		"minimal":         {json: `{"alg":"HS256"}`, want: Header{Algorithm: HS256}},
		"with kid":        {json: `{"alg":"ES256","kid":"k"}`, want: Header{Algorithm: ES256, KeyID: "k"}},
		"unknown alg":     {json: `{"alg":"XYZ"}`, want: Header{Algorithm: "XYZ"}},
		"extra fields":    {json: `{"alg":"HS256","foo":1}`, want: Header{Algorithm: HS256}},
		"missing alg":     {json: `{"typ":"JWT"}`, err: true},
		"non-string alg":  {json: `{"alg":5}`, err: true},
		"array":           {json: `["alg"]`, err: true},
		"not json":        {json: `alg`, err: true},
		"truncated":       {json: `{"alg":"HS256"`, err: true},
		"empty":           {json: ``, err: true},
		"string document": {json: `"HS256"`, err: true},
	} {
		t.Run(uc, func(t *testing.T) {
			header, err := parseHeader([]byte(tc.json))

			if tc.err {
				require.ErrorIs(t, err, ErrMalformedToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, header)
		})
	}
}

func TestParseClaims(t *testing.T) {
	claims, err := parseClaims([]byte(`{"sub":"1","n":{"a":[1,true,null]}}`))
	require.NoError(t, err)
	assert.Equal(t, "1", claims["sub"])
	assert.Equal(t, map[string]any{"a": []any{1.0, true, nil}}, claims["n"])

	for _, input := range []string{`[1]`, `"x"`, `12`, `null`, `{`} {
		_, err := parseClaims([]byte(input))
		require.ErrorIs(t, err, ErrInvalidClaims, input)
	}
}

func TestDecodeHeaderLeavesClaimsUntouched(t *testing.T) {
	header := encodeSegment([]byte(`{"alg":"HS256"}`))
	token := strings.Join([]string{header, "!!not-base64!!", "sig"}, ".")

	decoded, err := decodeHeader(token)
	require.NoError(t, err)
	assert.Equal(t, HS256, decoded.header.Algorithm)
	assert.Nil(t, decoded.claims)

	require.ErrorIs(t, decoded.decodeClaims(), ErrMalformedToken)
}
