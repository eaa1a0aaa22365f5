package jwtsign

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"sort"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// Algorithm identifies a signing algorithm by its "alg" header value.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
)

// keyFamily turns raw caller key bytes into the key value expected by the
// primitive of one algorithm family.
type keyFamily interface {
	name() string
	encodingKey(raw []byte) (any, error)
	decodingKey(raw []byte) (any, error)
}

type algorithmEntry struct {
	family keyFamily
	jwa    jwa.SignatureAlgorithm
}

// registry is the only place algorithm identifiers are interpreted.
var registry = map[Algorithm]algorithmEntry{
	HS256: {family: hmacFamily{}, jwa: jwa.HS256},
	HS384: {family: hmacFamily{}, jwa: jwa.HS384},
	HS512: {family: hmacFamily{}, jwa: jwa.HS512},
	RS256: {family: rsaFamily{}, jwa: jwa.RS256},
	RS384: {family: rsaFamily{}, jwa: jwa.RS384},
	RS512: {family: rsaFamily{}, jwa: jwa.RS512},
	PS256: {family: rsaFamily{}, jwa: jwa.PS256},
	PS384: {family: rsaFamily{}, jwa: jwa.PS384},
	PS512: {family: rsaFamily{}, jwa: jwa.PS512},
	ES256: {family: ecdsaFamily{curve: "P-256"}, jwa: jwa.ES256},
	ES384: {family: ecdsaFamily{curve: "P-384"}, jwa: jwa.ES384},
}

// Supported reports whether a is present in the registry.
func (a Algorithm) Supported() bool {
	_, ok := registry[a]
	return ok
}

func (a Algorithm) String() string { return string(a) }

// SupportedAlgorithms lists every registered algorithm in lexical order.
func SupportedAlgorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for alg := range registry {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseAlgorithm resolves an "alg" value against the registry.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if !alg.Supported() {
		return "", newErrorf(ErrCodeUnsupportedAlgorithm, "algorithm %q is not supported", name)
	}
	return alg, nil
}

// EncodingKey is a signing key bound to the primitive of its algorithm.
// It lives for a single sign call.
type EncodingKey struct {
	alg    Algorithm
	key    any
	signer jws.Signer
}

// Algorithm returns the algorithm the key was derived for.
func (k *EncodingKey) Algorithm() Algorithm { return k.alg }

func (k *EncodingKey) sign(signingInput []byte) ([]byte, error) {
	return k.signer.Sign(signingInput, k.key)
}

// DecodingKey is a verification key bound to the primitive of its algorithm.
// It lives for a single verify call.
type DecodingKey struct {
	alg      Algorithm
	key      any
	verifier jws.Verifier
}

// Algorithm returns the algorithm the key was derived for.
func (k *DecodingKey) Algorithm() Algorithm { return k.alg }

func (k *DecodingKey) verify(signingInput, signature []byte) error {
	return k.verifier.Verify(signingInput, signature, k.key)
}

// EncodingKeyFor derives the signing key for alg from raw key bytes: the
// secret itself for the HMAC family, a PEM encoded private key otherwise.
func EncodingKeyFor(alg Algorithm, raw []byte) (*EncodingKey, error) {
	entry, ok := registry[alg]
	if !ok {
		return nil, newErrorf(ErrCodeUnsupportedAlgorithm, "algorithm %q is not supported", alg)
	}
	key, err := entry.family.encodingKey(raw)
	if err != nil {
		return nil, newError(ErrCodeInvalidKeyMaterial, fmt.Errorf("%s signing key for %s: %w", entry.family.name(), alg, err))
	}
	signer, err := jws.NewSigner(entry.jwa)
	if err != nil {
		return nil, newError(ErrCodeUnsupportedAlgorithm, err)
	}
	return &EncodingKey{alg: alg, key: key, signer: signer}, nil
}

// DecodingKeyFor derives the verification key for alg from raw key bytes.
// Asymmetric families accept a PEM public key, certificate or private key.
func DecodingKeyFor(alg Algorithm, raw []byte) (*DecodingKey, error) {
	entry, ok := registry[alg]
	if !ok {
		return nil, newErrorf(ErrCodeUnsupportedAlgorithm, "algorithm %q is not supported", alg)
	}
	key, err := entry.family.decodingKey(raw)
	if err != nil {
		return nil, newError(ErrCodeInvalidKeyMaterial, fmt.Errorf("%s verification key for %s: %w", entry.family.name(), alg, err))
	}
	verifier, err := jws.NewVerifier(entry.jwa)
	if err != nil {
		return nil, newError(ErrCodeUnsupportedAlgorithm, err)
	}
	return &DecodingKey{alg: alg, key: key, verifier: verifier}, nil
}

type hmacFamily struct{}

func (hmacFamily) name() string { return "hmac" }

var pemBoundary = []byte("-----BEGIN ")

// encodingKey rejects PEM material, so a public key handed to a verifier
// that also accepts RSA or ECDSA can never double as an HMAC secret.
func (hmacFamily) encodingKey(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("secret is empty")
	}
	if bytes.Contains(raw, pemBoundary) {
		return nil, errors.New("PEM encoded key cannot be used as a secret")
	}
	return raw, nil
}

func (f hmacFamily) decodingKey(raw []byte) (any, error) {
	return f.encodingKey(raw)
}

type rsaFamily struct{}

func (rsaFamily) name() string { return "rsa" }

func (rsaFamily) encodingKey(raw []byte) (any, error) {
	key, err := parsePEMKey(raw, jwa.RSA)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *rsa.PublicKey:
		return nil, errors.New("private key required, got public key")
	default:
		return nil, fmt.Errorf("unexpected key type %T", key)
	}
}

func (rsaFamily) decodingKey(raw []byte) (any, error) {
	key, err := parsePEMKey(raw, jwa.RSA)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *rsa.PublicKey:
		return k, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	default:
		return nil, fmt.Errorf("unexpected key type %T", key)
	}
}

type ecdsaFamily struct {
	curve string
}

func (f ecdsaFamily) name() string { return "ecdsa " + f.curve }

func (f ecdsaFamily) encodingKey(raw []byte) (any, error) {
	key, err := parsePEMKey(raw, jwa.EC)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		if err := f.checkCurve(&k.PublicKey); err != nil {
			return nil, err
		}
		return k, nil
	case *ecdsa.PublicKey:
		return nil, errors.New("private key required, got public key")
	default:
		return nil, fmt.Errorf("unexpected key type %T", key)
	}
}

func (f ecdsaFamily) decodingKey(raw []byte) (any, error) {
	key, err := parsePEMKey(raw, jwa.EC)
	if err != nil {
		return nil, err
	}
	var pub *ecdsa.PublicKey
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		pub = k
	case *ecdsa.PrivateKey:
		pub = &k.PublicKey
	default:
		return nil, fmt.Errorf("unexpected key type %T", key)
	}
	if err := f.checkCurve(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

func (f ecdsaFamily) checkCurve(pub *ecdsa.PublicKey) error {
	if pub.Curve == nil || pub.Curve.Params().Name != f.curve {
		return fmt.Errorf("curve mismatch: want %s", f.curve)
	}
	return nil
}

// parsePEMKey parses a PEM block into its raw crypto key and rejects keys of
// another type than want.
func parsePEMKey(raw []byte, want jwa.KeyType) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("key is empty")
	}
	parsed, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse PEM: %w", err)
	}
	if got := parsed.KeyType(); got != want {
		return nil, fmt.Errorf("expected %s key, got %s", want, got)
	}
	var key any
	if err := parsed.Raw(&key); err != nil {
		return nil, fmt.Errorf("extract raw key: %w", err)
	}
	return key, nil
}
