package jwtsign

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrCodeSignatureInvalid, cause)

	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "Invalid signature: boom", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrSignatureInvalid)
	assert.Equal(t, ErrCodeSignatureInvalid, CodeOf(wrapped))
}

func TestErrorWithoutCause(t *testing.T) {
	err := &Error{Code: ErrCodeClaimMismatch}
	assert.Equal(t, "claim_mismatch", err.Error())
	assert.NoError(t, err.Unwrap())
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestErrorMessagesCoverEveryCode(t *testing.T) {
	for _, code := range []ErrorCode{
		ErrCodeMalformedToken,
		ErrCodeInvalidClaims,
		ErrCodeInvalidKeyMaterial,
		ErrCodeUnsupportedAlgorithm,
		ErrCodeSignatureInvalid,
		ErrCodeTokenExpired,
		ErrCodeTokenNotYetValid,
		ErrCodeClaimMismatch,
		ErrCodeInvalidOptions,
	} {
		assert.NotEmpty(t, errorMessages[code], code)
	}
}
