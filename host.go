package jwtsign

import (
	"github.com/go-viper/mapstructure/v2"
)

// hostVerifyOptions adds the output shape selector to VerifyOptions.
type hostVerifyOptions struct {
	VerifyOptions `mapstructure:",squash"`
	Complete      bool `mapstructure:"complete"`
}

type hostDecodeOptions struct {
	Complete bool `mapstructure:"complete"`
}

// SignValue signs a generic payload with a UTF-8 key. options uses the
// camelCase keys of SignOptions' mapstructure tags.
func SignValue(payload map[string]any, key string, options map[string]any) (string, error) {
	return DefaultSettings().SignValue(payload, key, options)
}

// VerifyValue verifies token and returns either the claim map or, when
// options["complete"] is true, a map with "payload", "header" and "signature".
func VerifyValue(token, key string, options map[string]any) (any, error) {
	return DefaultSettings().VerifyValue(token, key, options)
}

// DecodeValue decodes token WITHOUT verification; see DecodeUnverified.
func DecodeValue(token string, options map[string]any) (any, error) {
	return DefaultSettings().DecodeValue(token, options)
}

// SignValue is the host boundary of Sign.
func (s Settings) SignValue(payload map[string]any, key string, options map[string]any) (string, error) {
	var opts SignOptions
	if err := decodeOptions(options, &opts); err != nil {
		return "", s.fail("sign", err)
	}
	return s.Sign(ClaimSet(payload), []byte(key), &opts)
}

// VerifyValue is the host boundary of Verify and VerifyComplete.
func (s Settings) VerifyValue(token, key string, options map[string]any) (any, error) {
	var opts hostVerifyOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, s.fail("verify", err)
	}
	if opts.Complete {
		complete, err := s.VerifyComplete(token, []byte(key), &opts.VerifyOptions)
		if err != nil {
			return nil, err
		}
		return complete.ToMap(), nil
	}
	claims, err := s.Verify(token, []byte(key), &opts.VerifyOptions)
	if err != nil {
		return nil, err
	}
	return map[string]any(claims), nil
}

// DecodeValue is the host boundary of DecodeUnverified and DecodeUnverifiedComplete.
func (s Settings) DecodeValue(token string, options map[string]any) (any, error) {
	var opts hostDecodeOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, s.fail("decode", err)
	}
	if opts.Complete {
		complete, err := s.DecodeUnverifiedComplete(token)
		if err != nil {
			return nil, err
		}
		return complete.ToMap(), nil
	}
	claims, err := s.DecodeUnverified(token)
	if err != nil {
		return nil, err
	}
	return map[string]any(claims), nil
}

// decodeOptions maps a host option object onto target. Input is weakly typed
// so that a lone string is accepted where a list is expected and JSON numbers
// convert to integer fields.
func decodeOptions(input map[string]any, target any) error {
	if len(input) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return newError(ErrCodeInvalidOptions, err)
	}
	if err := decoder.Decode(input); err != nil {
		return newError(ErrCodeInvalidOptions, err)
	}
	return nil
}
