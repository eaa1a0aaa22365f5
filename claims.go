package jwtsign

import (
	"fmt"
	"math"
	"time"
)

// Reserved claim names.
const (
	ClaimIssuedAt   = "iat"
	ClaimExpiration = "exp"
	ClaimNotBefore  = "nbf"
	ClaimAudience   = "aud"
	ClaimIssuer     = "iss"
	ClaimSubject    = "sub"
	ClaimJWTID      = "jti"
)

// ClaimSet is the payload of a token: claim name to a JSON-like value
// (nil, bool, number, string, []any, map[string]any).
type ClaimSet map[string]any

// Clone returns a shallow copy. Nested arrays and objects are shared.
func (c ClaimSet) Clone() ClaimSet {
	out := make(ClaimSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// IssuedAt returns the iat claim.
func (c ClaimSet) IssuedAt() (time.Time, bool, error) { return c.numericDate(ClaimIssuedAt) }

// Expiration returns the exp claim.
func (c ClaimSet) Expiration() (time.Time, bool, error) { return c.numericDate(ClaimExpiration) }

// NotBefore returns the nbf claim.
func (c ClaimSet) NotBefore() (time.Time, bool, error) { return c.numericDate(ClaimNotBefore) }

// Issuer returns the iss claim.
func (c ClaimSet) Issuer() (string, bool, error) { return c.stringClaim(ClaimIssuer) }

// Subject returns the sub claim.
func (c ClaimSet) Subject() (string, bool, error) { return c.stringClaim(ClaimSubject) }

// JWTID returns the jti claim.
func (c ClaimSet) JWTID() (string, bool, error) { return c.stringClaim(ClaimJWTID) }

// Audience returns the aud claim, which may be encoded either as a single
// string or as an array of strings.
func (c ClaimSet) Audience() ([]string, bool, error) {
	value, ok := c[ClaimAudience]
	if !ok || value == nil {
		return nil, false, nil
	}
	audience, err := stringList(value)
	if err != nil {
		return nil, true, newError(ErrCodeInvalidClaims, fmt.Errorf("claim %q: %w", ClaimAudience, err))
	}
	return audience, true, nil
}

// SetNumericDate stores t as whole seconds since the epoch.
func (c ClaimSet) SetNumericDate(name string, t time.Time) {
	c[name] = t.Unix()
}

func (c ClaimSet) numericDate(name string) (time.Time, bool, error) {
	value, ok := c[name]
	if !ok || value == nil {
		return time.Time{}, false, nil
	}
	seconds, err := numericSeconds(value)
	if err != nil {
		return time.Time{}, true, newError(ErrCodeInvalidClaims, fmt.Errorf("claim %q: %w", name, err))
	}
	return time.Unix(seconds, 0).UTC(), true, nil
}

func (c ClaimSet) stringClaim(name string) (string, bool, error) {
	value, ok := c[name]
	if !ok || value == nil {
		return "", false, nil
	}
	s, isString := value.(string)
	if !isString {
		return "", true, newError(ErrCodeInvalidClaims, fmt.Errorf("claim %q: expected string, got %T", name, value))
	}
	return s, true, nil
}

// Numeric dates outside years 1 through 9999 are rejected.
const (
	minNumericDate = -62135596800
	maxNumericDate = 253402300799
)

// number matches both encoding/json.Number and the goccy/go-json one.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func numericSeconds(value any) (int64, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("not a finite number")
		}
		if v < minNumericDate || v >= maxNumericDate+1 {
			return 0, fmt.Errorf("numeric date %g out of range", v)
		}
		return int64(v), nil
	case float32:
		return numericSeconds(float64(v))
	case int:
		return checkSeconds(int64(v))
	case int32:
		return int64(v), nil
	case int64:
		return checkSeconds(v)
	case uint32:
		return int64(v), nil
	case uint64:
		if v > maxNumericDate {
			return 0, fmt.Errorf("numeric date %d out of range", v)
		}
		return int64(v), nil
	case number:
		if i, err := v.Int64(); err == nil {
			return checkSeconds(i)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return numericSeconds(f)
	default:
		return 0, fmt.Errorf("expected numeric date, got %T", value)
	}
}

func checkSeconds(seconds int64) (int64, error) {
	if seconds < minNumericDate || seconds > maxNumericDate {
		return 0, fmt.Errorf("numeric date %d out of range", seconds)
	}
	return seconds, nil
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string array element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or string array, got %T", value)
	}
}
