package jwtsign

const (
	devBypassSubject  = "dev-bypass"
	devBypassIssuer   = "jwtsign.dev"
	devBypassAudience = "https://dev.local"
)

// DevBypassClaims describes the caller an Authenticator reports for every
// request when verification is switched off for local work.
type DevBypassClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	// Extra is copied into the claim set first; the fields above win on conflict.
	Extra ClaimSet
}

// ToCallerClaims builds the synthetic caller. Audience is copied and Extra
// is cloned shallowly.
func (d DevBypassClaims) ToCallerClaims() CallerClaims {
	claims := d.Extra.Clone()
	setString(claims, ClaimSubject, d.Subject)
	setString(claims, ClaimIssuer, d.Issuer)
	if len(d.Audience) > 0 {
		claims[ClaimAudience] = append([]string(nil), d.Audience...)
	}
	return CallerClaims{Claims: claims, DevBypass: true}
}

// DefaultDevBypassClaims returns the dev caller used by the jwtsign tooling,
// scoped to audience or to https://dev.local when audience is empty.
func DefaultDevBypassClaims(audience string) DevBypassClaims {
	if audience == "" {
		audience = devBypassAudience
	}
	return DevBypassClaims{
		Subject:  devBypassSubject,
		Issuer:   devBypassIssuer,
		Audience: []string{audience},
	}
}
