package jwtsign

import (
	"time"

	"github.com/rs/zerolog"
)

const defaultAlgorithm = HS256

// Settings carries the defaults every pipeline call runs with. The zero value
// is usable; unset fields fall back to DefaultSettings.
type Settings struct {
	// DefaultAlgorithm signs when neither SignOptions.Algorithm nor a header
	// override names one.
	DefaultAlgorithm Algorithm
	// AcceptedAlgorithms applies when VerifyOptions.Algorithms is empty.
	AcceptedAlgorithms []Algorithm
	// Now is the wall clock used for iat, exp, nbf computation and checks.
	Now func() time.Time
	// Logger receives debug events. Key material and tokens are never logged.
	Logger zerolog.Logger
}

// DefaultSettings returns HS256 signing, [HS256] acceptance, the system
// clock and a disabled logger.
func DefaultSettings() Settings {
	return Settings{
		DefaultAlgorithm:   defaultAlgorithm,
		AcceptedAlgorithms: []Algorithm{defaultAlgorithm},
		Now:                time.Now,
		Logger:             zerolog.Nop(),
	}
}

// normalize fills unset fields from DefaultSettings.
func (s Settings) normalize() Settings {
	defaults := DefaultSettings()
	if s.DefaultAlgorithm == "" {
		s.DefaultAlgorithm = defaults.DefaultAlgorithm
	}
	if len(s.AcceptedAlgorithms) == 0 {
		s.AcceptedAlgorithms = defaults.AcceptedAlgorithms
	}
	if s.Now == nil {
		s.Now = defaults.Now
	}
	return s
}

// fail logs a rejected call at debug level and returns err unchanged.
func (s Settings) fail(op string, err error) error {
	s.Logger.Debug().
		Str("op", op).
		Str("code", string(CodeOf(err))).
		Err(err).
		Msg("token operation failed")
	return err
}
