package jwtsign

import (
	"crypto/elliptic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedAlgorithms(t *testing.T) {
	assert.Equal(t, []Algorithm{
		ES256, ES384,
		HS256, HS384, HS512,
		PS256, PS384, PS512,
		RS256, RS384, RS512,
	}, SupportedAlgorithms())

	for _, name := range []string{"ES512", "none", "NONE", "hs256", "EdDSA", ""} {
		_, err := ParseAlgorithm(name)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm, name)
	}

	alg, err := ParseAlgorithm("PS384")
	require.NoError(t, err)
	assert.Equal(t, PS384, alg)
}

func TestKeyRoundTripPerAlgorithm(t *testing.T) {
	for _, alg := range SupportedAlgorithms() {
		t.Run(string(alg), func(t *testing.T) {
			signKey, verifyKey := keysFor(t, alg)

			encodingKey, err := EncodingKeyFor(alg, signKey)
			require.NoError(t, err)
			assert.Equal(t, alg, encodingKey.Algorithm())

			decodingKey, err := DecodingKeyFor(alg, verifyKey)
			require.NoError(t, err)
			assert.Equal(t, alg, decodingKey.Algorithm())

			input := []byte("header.claims")
			signature, err := encodingKey.sign(input)
			require.NoError(t, err)

			require.NoError(t, decodingKey.verify(input, signature))
			require.Error(t, decodingKey.verify([]byte("header.claimz"), signature))
		})
	}
}

func TestDecodingKeyAcceptsPrivateKey(t *testing.T) {
	for _, alg := range []Algorithm{RS256, PS512, ES256, ES384} {
		t.Run(string(alg), func(t *testing.T) {
			signKey, _ := keysFor(t, alg)

			encodingKey, err := EncodingKeyFor(alg, signKey)
			require.NoError(t, err)
			decodingKey, err := DecodingKeyFor(alg, signKey)
			require.NoError(t, err)

			signature, err := encodingKey.sign([]byte("input"))
			require.NoError(t, err)
			require.NoError(t, decodingKey.verify([]byte("input"), signature))
		})
	}
}

func TestKeyDerivationFailures(t *testing.T) {
	rsaPair := rsaTestKey(t)
	p256 := ecTestKey(t, elliptic.P256())
	p384 := ecTestKey(t, elliptic.P384())

	for uc, tc := range map[string]struct {
		alg     Algorithm
		key     []byte
		signing bool
		code    ErrorCode
	}{
		"unknown algorithm": {
			alg: "ES512", key: p256.privatePEM, signing: true, code: ErrCodeUnsupportedAlgorithm,
		},
		"none algorithm": {
			alg: "none", key: []byte("x"), code: ErrCodeUnsupportedAlgorithm,
		},
		"empty hmac secret": {
			alg: HS256, key: nil, signing: true, code: ErrCodeInvalidKeyMaterial,
		},
		"empty hmac secret on verify": {
			alg: HS512, key: []byte{}, code: ErrCodeInvalidKeyMaterial,
		},
		"rsa public key for signing": {
			alg: RS256, key: rsaPair.publicPEM, signing: true, code: ErrCodeInvalidKeyMaterial,
		},
		"ec key for rsa": {
			alg: PS256, key: p256.privatePEM, signing: true, code: ErrCodeInvalidKeyMaterial,
		},
		"rsa key for ec": {
			alg: ES256, key: rsaPair.publicPEM, code: ErrCodeInvalidKeyMaterial,
		},
		"curve mismatch on signing": {
			alg: ES256, key: p384.privatePEM, signing: true, code: ErrCodeInvalidKeyMaterial,
		},
		"curve mismatch on verify": {
			alg: ES384, key: p256.publicPEM, code: ErrCodeInvalidKeyMaterial,
		},
		"ec public key for signing": {
			alg: ES256, key: p256.publicPEM, signing: true, code: ErrCodeInvalidKeyMaterial,
		},
		"garbage pem": {
			alg: RS384, key: []byte("-----BEGIN PUBLIC KEY-----\nnope\n-----END PUBLIC KEY-----\n"), code: ErrCodeInvalidKeyMaterial,
		},
		"secret instead of pem": {
			alg: RS512, key: []byte("secret"), signing: true, code: ErrCodeInvalidKeyMaterial,
		},
	} {
		t.Run(uc, func(t *testing.T) {
			var err error
			if tc.signing {
				_, err = EncodingKeyFor(tc.alg, tc.key)
			} else {
				_, err = DecodingKeyFor(tc.alg, tc.key)
			}

			require.Error(t, err)
			assert.Equal(t, tc.code, CodeOf(err))
		})
	}
}

func TestHMACSecrets(t *testing.T) {
	_, err := EncodingKeyFor(HS256, []byte{0})
	require.NoError(t, err)

	_, err = DecodingKeyFor(HS384, []byte("BEGIN is fine without the PEM boundary"))
	require.NoError(t, err)

	for uc, key := range map[string][]byte{
		"rsa public key":  rsaTestKey(t).publicPEM,
		"rsa private key": rsaTestKey(t).privatePEM,
		"ec public key":   ecTestKey(t, elliptic.P256()).publicPEM,
		"embedded pem":    append([]byte("prefix\n"), rsaTestKey(t).publicPEM...),
	} {
		t.Run(uc, func(t *testing.T) {
			_, err := DecodingKeyFor(HS256, key)
			require.ErrorIs(t, err, ErrInvalidKeyMaterial)

			_, err = EncodingKeyFor(HS512, key)
			require.ErrorIs(t, err, ErrInvalidKeyMaterial)
		})
	}
}
