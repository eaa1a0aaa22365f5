package jwtsign

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testKeyPair struct {
	private    any
	public     any
	privatePEM []byte
	publicPEM  []byte
}

var (
	rsaKeyOnce sync.Once
	rsaKey     testKeyPair

	ecKeysMu sync.Mutex
	ecKeys   = map[string]testKeyPair{}
)

func rsaTestKey(t testing.TB) testKeyPair {
	t.Helper()

	rsaKeyOnce.Do(func() {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		require.NoError(t, err)

		rsaKey = testKeyPair{
			private:    priv,
			public:     &priv.PublicKey,
			privatePEM: pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}),
			publicPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}),
		}
	})
	require.NotNil(t, rsaKey.private, "rsa key generation failed")

	return rsaKey
}

func ecTestKey(t testing.TB, curve elliptic.Curve) testKeyPair {
	t.Helper()

	ecKeysMu.Lock()
	defer ecKeysMu.Unlock()

	name := curve.Params().Name
	if pair, ok := ecKeys[name]; ok {
		return pair
	}

	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pair := testKeyPair{
		private:    priv,
		public:     &priv.PublicKey,
		privatePEM: pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}),
		publicPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}),
	}
	ecKeys[name] = pair

	return pair
}

// keysFor returns signing and verification key bytes suitable for alg.
func keysFor(t testing.TB, alg Algorithm) ([]byte, []byte) {
	t.Helper()

	switch alg {
	case HS256, HS384, HS512:
		secret := []byte("a-shared-secret-of-reasonable-length")
		return secret, secret
	case RS256, RS384, RS512, PS256, PS384, PS512:
		pair := rsaTestKey(t)
		return pair.privatePEM, pair.publicPEM
	case ES256:
		pair := ecTestKey(t, elliptic.P256())
		return pair.privatePEM, pair.publicPEM
	case ES384:
		pair := ecTestKey(t, elliptic.P384())
		return pair.privatePEM, pair.publicPEM
	default:
		t.Fatalf("no test keys for %s", alg)
		return nil, nil
	}
}
