package jwtsign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// KeyFunc supplies key bytes for a single call. The returned slice is used
// for that call only and never retained.
type KeyFunc func(ctx context.Context) ([]byte, error)

// AuthenticatorConfig configures bearer token authentication for HTTP handlers.
type AuthenticatorConfig struct {
	// Key loads the verification key for each request.
	Key      KeyFunc
	Options  VerifyOptions
	Settings Settings
	// DevBypass, when set, skips verification and injects synthetic claims.
	DevBypass *DevBypassClaims
}

// Authenticator verifies bearer tokens and binds their claims to the request context.
type Authenticator struct {
	cfg AuthenticatorConfig
}

// NewAuthenticator validates cfg and builds an Authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	if cfg.Key == nil && cfg.DevBypass == nil {
		return nil, newError(ErrCodeInvalidOptions, errors.New("key func is required"))
	}
	if err := validateOptions(&cfg.Options); err != nil {
		return nil, err
	}
	cfg.Options.Algorithms = slices.Clone(cfg.Options.Algorithms)
	cfg.Options.Audience = slices.Clone(cfg.Options.Audience)
	cfg.Options.Issuer = slices.Clone(cfg.Options.Issuer)
	return &Authenticator{cfg: cfg}, nil
}

// Authenticate verifies token and returns the caller claims.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (CallerClaims, error) {
	if a.cfg.DevBypass != nil {
		return a.cfg.DevBypass.ToCallerClaims(), nil
	}
	if token == "" {
		return CallerClaims{}, newError(ErrCodeMalformedToken, errors.New("token is empty"))
	}
	key, err := a.cfg.Key(ctx)
	if err != nil {
		return CallerClaims{}, newError(ErrCodeInvalidKeyMaterial, fmt.Errorf("load key: %w", err))
	}
	complete, err := a.cfg.Settings.VerifyComplete(token, key, &a.cfg.Options)
	if err != nil {
		return CallerClaims{}, err
	}
	return CallerClaims{Claims: complete.Payload, Header: complete.Header}, nil
}

// Middleware rejects requests without a valid bearer token with 401 and
// passes the others on with CallerClaims bound to their context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && a.cfg.DevBypass == nil {
			writeAuthError(w, newError(ErrCodeMalformedToken, errors.New("missing bearer token")))
			return
		}
		caller, err := a.Authenticate(r.Context(), token)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(BindCallerClaims(r.Context(), caller)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type authErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeAuthError(w http.ResponseWriter, err error) {
	code := CodeOf(err)
	status := http.StatusUnauthorized
	if code == ErrCodeInvalidKeyMaterial || code == "" {
		status = http.StatusInternalServerError
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(authErrorBody{Code: code, Message: errorMessages[code]})
}
