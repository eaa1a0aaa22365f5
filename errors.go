package jwtsign

import (
	"errors"
	"fmt"
)

// ErrorCode represents token processing error categories.
type ErrorCode string

const (
	ErrCodeMalformedToken       ErrorCode = "malformed_token"
	ErrCodeInvalidClaims        ErrorCode = "invalid_claims"
	ErrCodeInvalidKeyMaterial   ErrorCode = "invalid_key_material"
	ErrCodeUnsupportedAlgorithm ErrorCode = "unsupported_algorithm"
	ErrCodeSignatureInvalid     ErrorCode = "signature_invalid"
	ErrCodeTokenExpired         ErrorCode = "token_expired"
	ErrCodeTokenNotYetValid     ErrorCode = "token_not_yet_valid"
	ErrCodeClaimMismatch        ErrorCode = "claim_mismatch"
	ErrCodeInvalidOptions       ErrorCode = "invalid_options"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeMalformedToken:       "Malformed token",
	ErrCodeInvalidClaims:        "Invalid claims",
	ErrCodeInvalidKeyMaterial:   "Invalid key material",
	ErrCodeUnsupportedAlgorithm: "Unsupported algorithm",
	ErrCodeSignatureInvalid:     "Invalid signature",
	ErrCodeTokenExpired:         "Token expired",
	ErrCodeTokenNotYetValid:     "Token not yet valid",
	ErrCodeClaimMismatch:        "Claim mismatch",
	ErrCodeInvalidOptions:       "Invalid options",
}

// Sentinels usable with errors.Is; any *Error carrying the same code matches.
var (
	ErrMalformedToken       = &Error{Code: ErrCodeMalformedToken}
	ErrInvalidClaims        = &Error{Code: ErrCodeInvalidClaims}
	ErrInvalidKeyMaterial   = &Error{Code: ErrCodeInvalidKeyMaterial}
	ErrUnsupportedAlgorithm = &Error{Code: ErrCodeUnsupportedAlgorithm}
	ErrSignatureInvalid     = &Error{Code: ErrCodeSignatureInvalid}
	ErrTokenExpired         = &Error{Code: ErrCodeTokenExpired}
	ErrTokenNotYetValid     = &Error{Code: ErrCodeTokenNotYetValid}
	ErrClaimMismatch        = &Error{Code: ErrCodeClaimMismatch}
	ErrInvalidOptions       = &Error{Code: ErrCodeInvalidOptions}
)

// Error wraps token processing errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// CodeOf extracts the error code from err, or "" if err does not carry one.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func newErrorf(code ErrorCode, format string, args ...any) error {
	return newError(code, fmt.Errorf(format, args...))
}
