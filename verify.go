package jwtsign

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// validation is the ruleset applied to a token during verification.
type validation struct {
	algorithms  []Algorithm
	audience    []string
	issuer      []string
	subject     string
	jwtID       string
	validateExp bool
	validateNbf bool
	leeway      int64
}

// Verify checks the signature and claims of token with DefaultSettings and
// returns its claims.
func Verify(token string, key []byte, opts *VerifyOptions) (ClaimSet, error) {
	return DefaultSettings().Verify(token, key, opts)
}

// VerifyComplete is Verify returning header and raw signature alongside the claims.
func VerifyComplete(token string, key []byte, opts *VerifyOptions) (*CompleteToken, error) {
	return DefaultSettings().VerifyComplete(token, key, opts)
}

// Verify checks the signature and claims of token and returns its claims.
func (s Settings) Verify(token string, key []byte, opts *VerifyOptions) (ClaimSet, error) {
	decoded, err := s.verify(token, key, opts)
	if err != nil {
		return nil, err
	}
	return decoded.claims, nil
}

// VerifyComplete is Verify returning header and raw signature alongside the claims.
func (s Settings) VerifyComplete(token string, key []byte, opts *VerifyOptions) (*CompleteToken, error) {
	decoded, err := s.verify(token, key, opts)
	if err != nil {
		return nil, err
	}
	return decoded.complete(), nil
}

func (s Settings) verify(token string, key []byte, opts *VerifyOptions) (*decodedToken, error) {
	s = s.normalize()
	if opts == nil {
		opts = &VerifyOptions{}
	}
	if err := validateOptions(opts); err != nil {
		return nil, s.fail("verify", err)
	}
	rules := opts.ruleset(s)

	decoded, err := decodeHeader(token)
	if err != nil {
		return nil, s.fail("verify", err)
	}

	// The key derivation rule follows the token's own algorithm, which must
	// be one the caller accepts.
	alg := decoded.header.Algorithm
	if !alg.Supported() {
		return nil, s.fail("verify", newErrorf(ErrCodeUnsupportedAlgorithm, "algorithm %q is not supported", alg))
	}
	if !slices.Contains(rules.algorithms, alg) {
		return nil, s.fail("verify", newErrorf(ErrCodeUnsupportedAlgorithm, "algorithm %q is not accepted", alg))
	}

	decodingKey, err := DecodingKeyFor(alg, key)
	if err != nil {
		return nil, s.fail("verify", err)
	}
	signature, err := decodeSegment(decoded.rawSignature)
	if err != nil {
		return nil, s.fail("verify", err)
	}
	if err := decodingKey.verify(decoded.signingInput(), signature); err != nil {
		return nil, s.fail("verify", newError(ErrCodeSignatureInvalid, err))
	}

	if err := decoded.decodeClaims(); err != nil {
		return nil, s.fail("verify", err)
	}
	if err := rules.validate(decoded.claims, s.Now()); err != nil {
		return nil, s.fail("verify", err)
	}

	s.Logger.Debug().
		Str("alg", string(alg)).
		Str("kid", decoded.header.KeyID).
		Msg("token verified")

	return decoded, nil
}

// validate applies the temporal and identity checks to claims at now.
// Only the claims a rule looks at are lifted into the jwx token, so a
// malformed claim nobody asked about does not fail the call.
func (v validation) validate(claims ClaimSet, now time.Time) error {
	token := jwt.New()
	var validators []jwt.ValidateOption

	if v.validateExp {
		if err := liftDate(token, jwt.ExpirationKey, claims.Expiration); err != nil {
			return err
		}
		validators = append(validators,
			jwt.WithValidator(jwt.IsExpirationValid()),
			jwt.WithValidator(jwt.ValidatorFunc(epochExpiration)),
		)
	}
	if v.validateNbf {
		if err := liftDate(token, jwt.NotBeforeKey, claims.NotBefore); err != nil {
			return err
		}
		validators = append(validators, jwt.WithValidator(jwt.IsNbfValid()))
	}
	if len(v.issuer) > 0 {
		if err := liftString(token, jwt.IssuerKey, claims.Issuer); err != nil {
			return err
		}
		if len(v.issuer) == 1 {
			validators = append(validators, jwt.WithIssuer(v.issuer[0]))
		} else {
			validators = append(validators, jwt.WithValidator(issuerIn(v.issuer)))
		}
	}
	if v.subject != "" {
		if err := liftString(token, jwt.SubjectKey, claims.Subject); err != nil {
			return err
		}
		validators = append(validators, jwt.WithSubject(v.subject))
	}
	if len(v.audience) > 0 {
		aud, ok, err := claims.Audience()
		if err != nil {
			return err
		}
		if ok {
			if err := token.Set(jwt.AudienceKey, aud); err != nil {
				return newError(ErrCodeInvalidClaims, err)
			}
		}
		if len(v.audience) == 1 {
			validators = append(validators, jwt.WithAudience(v.audience[0]))
		} else {
			validators = append(validators, jwt.WithValidator(audienceIntersects(v.audience)))
		}
	}
	if v.jwtID != "" {
		if err := liftString(token, jwt.JwtIDKey, claims.JWTID); err != nil {
			return err
		}
		validators = append(validators, jwt.WithJwtID(v.jwtID))
	}

	if len(validators) == 0 {
		return nil
	}

	validators = append(validators,
		jwt.WithResetValidators(true),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(time.Duration(v.leeway)*time.Second),
	)
	if err := jwt.Validate(token, validators...); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired()):
			return newErrorf(ErrCodeTokenExpired, "token expired at %s", token.Expiration().Format(time.RFC3339))
		case errors.Is(err, jwt.ErrTokenNotYetValid()):
			return newErrorf(ErrCodeTokenNotYetValid, "token not valid before %s", token.NotBefore().Format(time.RFC3339))
		default:
			return newError(ErrCodeClaimMismatch, err)
		}
	}
	return nil
}

func liftDate(token jwt.Token, key string, read func() (time.Time, bool, error)) error {
	value, ok, err := read()
	if err != nil || !ok {
		return err
	}
	if err := token.Set(key, value); err != nil {
		return newError(ErrCodeInvalidClaims, err)
	}
	return nil
}

func liftString(token jwt.Token, key string, read func() (string, bool, error)) error {
	value, ok, err := read()
	if err != nil || !ok {
		return err
	}
	if err := token.Set(key, value); err != nil {
		return newError(ErrCodeInvalidClaims, err)
	}
	return nil
}

// epochExpiration fails an exp that jwx reads as unset: the epoch itself
// and the zero time.
func epochExpiration(_ context.Context, token jwt.Token) jwt.ValidationError {
	if _, ok := token.Get(jwt.ExpirationKey); !ok {
		return nil
	}
	if exp := token.Expiration(); exp.IsZero() || exp.Unix() == 0 {
		return jwt.ErrTokenExpired()
	}
	return nil
}

func issuerIn(issuers []string) jwt.Validator {
	return jwt.ValidatorFunc(func(_ context.Context, token jwt.Token) jwt.ValidationError {
		if _, ok := token.Get(jwt.IssuerKey); ok && slices.Contains(issuers, token.Issuer()) {
			return nil
		}
		return jwt.NewValidationError(fmt.Errorf("issuer %q is not one of %q", token.Issuer(), issuers))
	})
}

func audienceIntersects(audience []string) jwt.Validator {
	return jwt.ValidatorFunc(func(_ context.Context, token jwt.Token) jwt.ValidationError {
		for _, aud := range token.Audience() {
			if slices.Contains(audience, aud) {
				return nil
			}
		}
		return jwt.NewValidationError(fmt.Errorf("audience %q shares nothing with %q", token.Audience(), audience))
	})
}
