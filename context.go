package jwtsign

import "context"

type callerKey struct{}

// CallerClaims is what Middleware attaches to a request once its bearer
// token verified, or what the dev bypass synthesizes in its place.
type CallerClaims struct {
	Claims    ClaimSet
	Header    Header
	DevBypass bool
}

// Subject returns the sub claim, or "" when it is absent or not a string.
func (c CallerClaims) Subject() string {
	sub, _, _ := c.Claims.Subject()
	return sub
}

// BindCallerClaims returns a child of ctx carrying caller.
func BindCallerClaims(ctx context.Context, caller CallerClaims) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerClaimsFromContext returns the claims bound by BindCallerClaims.
func CallerClaimsFromContext(ctx context.Context) (CallerClaims, bool) {
	if ctx == nil {
		return CallerClaims{}, false
	}
	caller, ok := ctx.Value(callerKey{}).(CallerClaims)
	return caller, ok
}
