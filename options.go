package jwtsign

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var optionsValidator = newOptionsValidator()

// SignOptions customizes a single sign call. Empty string fields are absent.
type SignOptions struct {
	// Algorithm defaults to Settings.DefaultAlgorithm, or to the header
	// override's algorithm when one is given.
	Algorithm Algorithm `mapstructure:"algorithm" validate:"omitempty,algorithm"`
	// ExpiresIn sets exp to now plus the given number of seconds.
	ExpiresIn *int64 `mapstructure:"expiresIn"`
	// NotBefore sets nbf to now plus the given number of seconds.
	NotBefore *int64 `mapstructure:"notBefore"`
	// Audience sets aud: a single entry is emitted as a string, several as an array.
	Audience []string `mapstructure:"audience" validate:"dive,required"`
	Issuer   string   `mapstructure:"issuer"`
	JWTID    string   `mapstructure:"jwtid"`
	Subject  string   `mapstructure:"subject"`
	// NoTimestamp suppresses the automatic iat claim.
	NoTimestamp bool    `mapstructure:"noTimestamp"`
	Header      *Header `mapstructure:"header"`
	KeyID       string  `mapstructure:"keyid"`
}

// VerifyOptions customizes a single verify call.
type VerifyOptions struct {
	// Algorithms lists the acceptable header algorithms. Defaults to
	// Settings.AcceptedAlgorithms.
	Algorithms []Algorithm `mapstructure:"algorithms" validate:"dive,algorithm"`
	// Audience matches when any entry appears in the aud claim.
	Audience []string `mapstructure:"audience" validate:"dive,required"`
	// Issuer matches when the iss claim equals any entry.
	Issuer  []string `mapstructure:"issuer" validate:"dive,required"`
	JWTID   string   `mapstructure:"jwtid"`
	Subject string   `mapstructure:"subject"`
	// IgnoreExpiration disables the exp check, which is on by default.
	IgnoreExpiration bool `mapstructure:"ignoreExpiration"`
	// ValidateNotBefore enables the nbf check, which is off by default. Host
	// option maps carry it under the legacy key "ignoreNotBefore".
	ValidateNotBefore bool `mapstructure:"ignoreNotBefore"`
	// ClockTolerance widens the exp and nbf checks by this many seconds.
	ClockTolerance int64 `mapstructure:"clockTolerance" validate:"gte=0"`
}

// resolveHeader computes the effective header and signing algorithm.
func (o *SignOptions) resolveHeader(fallback Algorithm) (Header, error) {
	var header Header
	if o.Header != nil {
		header = *o.Header
	}

	switch {
	case o.Algorithm == "" && header.Algorithm != "":
	case o.Algorithm == "":
		header.Algorithm = fallback
	case header.Algorithm != "" && header.Algorithm != o.Algorithm:
		return Header{}, newErrorf(ErrCodeInvalidOptions,
			"algorithm %q conflicts with header algorithm %q", o.Algorithm, header.Algorithm)
	default:
		header.Algorithm = o.Algorithm
	}

	if o.KeyID != "" {
		header.KeyID = o.KeyID
	}
	return header, nil
}

// claims merges the reserved claims derived from the options into a copy of
// payload. Option values overwrite caller supplied claims of the same name.
func (o *SignOptions) claims(payload ClaimSet, now time.Time) (ClaimSet, error) {
	claims := payload.Clone()

	if iat, ok := claims[ClaimIssuedAt]; ok && iat != nil {
		if _, err := numericSeconds(iat); err != nil {
			return nil, newErrorf(ErrCodeInvalidClaims, "claim %q: %v", ClaimIssuedAt, err)
		}
	} else if !o.NoTimestamp {
		claims.SetNumericDate(ClaimIssuedAt, now)
	}

	if o.ExpiresIn != nil {
		claims[ClaimExpiration] = now.Unix() + *o.ExpiresIn
	}
	if o.NotBefore != nil {
		claims[ClaimNotBefore] = now.Unix() + *o.NotBefore
	}
	switch len(o.Audience) {
	case 0:
	case 1:
		claims[ClaimAudience] = o.Audience[0]
	default:
		claims[ClaimAudience] = append([]string(nil), o.Audience...)
	}
	setString(claims, ClaimIssuer, o.Issuer)
	setString(claims, ClaimJWTID, o.JWTID)
	setString(claims, ClaimSubject, o.Subject)

	return claims, nil
}

func setString(claims ClaimSet, name, value string) {
	if value != "" {
		claims[name] = value
	}
}

// ruleset builds the validation rules of a verify call.
func (o *VerifyOptions) ruleset(s Settings) validation {
	algorithms := o.Algorithms
	if len(algorithms) == 0 {
		algorithms = s.AcceptedAlgorithms
	}
	return validation{
		algorithms:  algorithms,
		audience:    o.Audience,
		issuer:      o.Issuer,
		subject:     o.Subject,
		jwtID:       o.JWTID,
		validateExp: !o.IgnoreExpiration,
		validateNbf: o.ValidateNotBefore,
		leeway:      o.ClockTolerance,
	}
}

func newOptionsValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("algorithm", func(fl validator.FieldLevel) bool {
		return Algorithm(fl.Field().String()).Supported()
	}); err != nil {
		panic(err)
	}

	return validate
}

// validateOptions checks an options struct. Unknown algorithms surface as
// ErrCodeUnsupportedAlgorithm, every other violation as ErrCodeInvalidOptions.
func validateOptions(opts any) error {
	err := optionsValidator.Struct(opts)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newError(ErrCodeInvalidOptions, err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "algorithm" {
			return newErrorf(ErrCodeUnsupportedAlgorithm, "%s: algorithm %q is not supported", fe.Namespace(), fe.Value())
		}
	}
	fe := fieldErrs[0]
	return newErrorf(ErrCodeInvalidOptions, "%s: failed on the %q rule", fe.Namespace(), fe.Tag())
}
