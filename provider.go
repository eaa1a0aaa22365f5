package jwtsign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const defaultTokenTTL = 5 * time.Minute

// TokenFactory allows callers to override how token sources are built.
type TokenFactory func(context.Context, string, ProviderParams) (oauth2.TokenSource, error)

// ProviderConfig defines how tokens should be issued by default.
type ProviderConfig struct {
	// Key loads the signing key every time a token is minted.
	Key       KeyFunc
	Algorithm Algorithm
	Issuer    string
	Subject   string
	KeyID     string
	// TTL is the lifetime of minted tokens. Defaults to five minutes.
	TTL time.Duration
	// Claims are added to every minted token.
	Claims       ClaimSet
	Settings     Settings
	TokenFactory TokenFactory
}

// Provider issues self-signed tokens for service-to-service calls.
// It caches token sources per (audience, subject, key id, extra claims) combination;
// a cached source mints a new token shortly before the previous one expires.
type Provider struct {
	mu       sync.RWMutex
	factory  TokenFactory
	entries  map[providerKey]*tokenSourceEntry
	defaults ProviderParams
}

type providerKey struct {
	Audience string
	Subject  string
	KeyID    string
	Claims   string
}

type tokenSourceEntry struct {
	source oauth2.TokenSource
}

// ProviderParams are the per-token parameters of a mint.
type ProviderParams struct {
	Subject string
	KeyID   string
	Claims  ClaimSet
}

// TokenOption customizes the behaviour for a single Token call.
type TokenOption func(*ProviderParams)

// WithSubject overrides the sub claim of the minted token.
func WithSubject(subject string) TokenOption {
	return func(p *ProviderParams) {
		p.Subject = subject
	}
}

// WithKeyID overrides the kid header of the minted token.
func WithKeyID(kid string) TokenOption {
	return func(p *ProviderParams) {
		p.KeyID = kid
	}
}

// WithClaim adds a claim to the minted token.
func WithClaim(name string, value any) TokenOption {
	return func(p *ProviderParams) {
		if p.Claims == nil {
			p.Claims = ClaimSet{}
		}
		p.Claims[name] = value
	}
}

// NewProvider constructs a Provider using the supplied defaults.
func NewProvider(cfg ProviderConfig) *Provider {
	factory := cfg.TokenFactory
	if factory == nil {
		factory = selfSignedFactory(cfg)
	}
	return &Provider{
		factory: factory,
		entries: make(map[providerKey]*tokenSourceEntry),
		defaults: cloneParams(ProviderParams{
			Subject: cfg.Subject,
			KeyID:   cfg.KeyID,
			Claims:  cfg.Claims,
		}),
	}
}

// Token returns a token for the given audience.
func (p *Provider) Token(ctx context.Context, audience string, opts ...TokenOption) (string, error) {
	source, err := p.TokenSource(ctx, audience, opts...)
	if err != nil {
		return "", err
	}

	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token returned")
	}
	return tok.AccessToken, nil
}

// TokenSource returns the cached oauth2.TokenSource for the given audience.
func (p *Provider) TokenSource(ctx context.Context, audience string, opts ...TokenOption) (oauth2.TokenSource, error) {
	if strings.TrimSpace(audience) == "" {
		return nil, errors.New("audience is required")
	}

	params := cloneParams(p.defaults)
	for _, opt := range opts {
		opt(&params)
	}

	claimsKey, err := serializeClaims(params.Claims)
	if err != nil {
		return nil, err
	}
	key := providerKey{
		Audience: audience,
		Subject:  params.Subject,
		KeyID:    params.KeyID,
		Claims:   string(claimsKey),
	}

	entry, err := p.getOrCreate(ctx, key, params)
	if err != nil {
		return nil, err
	}
	return entry.source, nil
}

func (p *Provider) getOrCreate(ctx context.Context, key providerKey, params ProviderParams) (*tokenSourceEntry, error) {
	p.mu.RLock()
	entry, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		return entry, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok = p.entries[key]; ok {
		return entry, nil
	}

	ts, err := p.factory(sourceContext(ctx), key.Audience, params)
	if err != nil {
		return nil, err
	}
	entry = &tokenSourceEntry{source: oauth2.ReuseTokenSource(nil, ts)}
	p.entries[key] = entry
	return entry, nil
}

func selfSignedFactory(cfg ProviderConfig) TokenFactory {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return func(ctx context.Context, audience string, params ProviderParams) (oauth2.TokenSource, error) {
		if cfg.Key == nil {
			return nil, newError(ErrCodeInvalidOptions, errors.New("key func is required"))
		}
		return &selfSignedSource{
			ctx:       ctx,
			audience:  audience,
			params:    params,
			key:       cfg.Key,
			algorithm: cfg.Algorithm,
			issuer:    cfg.Issuer,
			ttl:       ttl,
			settings:  cfg.Settings.normalize(),
		}, nil
	}
}

// selfSignedSource mints a fresh token through Sign on every call.
type selfSignedSource struct {
	ctx       context.Context
	audience  string
	params    ProviderParams
	key       KeyFunc
	algorithm Algorithm
	issuer    string
	ttl       time.Duration
	settings  Settings
}

func (s *selfSignedSource) Token() (*oauth2.Token, error) {
	key, err := s.key(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	now := s.settings.Now()
	settings := s.settings
	settings.Now = func() time.Time { return now }

	expiresIn := int64(s.ttl / time.Second)
	token, err := settings.Sign(s.params.Claims, key, &SignOptions{
		Algorithm: s.algorithm,
		ExpiresIn: &expiresIn,
		Audience:  []string{s.audience},
		Issuer:    s.issuer,
		Subject:   s.params.Subject,
		KeyID:     s.params.KeyID,
		JWTID:     uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      time.Unix(now.Unix()+expiresIn, 0),
	}, nil
}

func cloneParams(in ProviderParams) ProviderParams {
	out := in
	if in.Claims != nil {
		out.Claims = in.Claims.Clone()
	}
	return out
}

// sourceContext is handed to the factory of a cached source. It carries the
// values of the first caller but none of its cancellation.
func sourceContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
