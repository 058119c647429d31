// Package auth defines the authentication surface of the server: API-key
// validation, bearer-token validation, and the authenticated principal.
package auth

import (
	"context"
)

// Principal represents the authenticated entity (user or client
// application) after a successful credential check.
type Principal interface {
	// GetSubject returns a unique identifier for the principal.
	GetSubject() string

	// GetClaims returns claims associated with the principal. The concrete
	// type depends on the credential format (jwt.MapClaims for JWTs).
	GetClaims() interface{}
}

// APIKeyValidator is the pluggable API-key check. It receives the presented
// key and reports whether the key is valid. Implementations must be safe
// for concurrent use.
type APIKeyValidator func(key string) bool

// TokenValidator validates bearer access tokens (e.g. JWTs against a JWKS
// endpoint) and produces the authenticated Principal.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (Principal, error)
}

// StaticKeyValidator returns an APIKeyValidator accepting exactly the given
// keys. Useful for tests and simple deployments.
func StaticKeyValidator(keys ...string) APIKeyValidator {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return func(key string) bool {
		_, ok := allowed[key]
		return ok
	}
}

// --- Context handling ---

type principalKeyType struct{}

var principalKey = principalKeyType{}

// ContextWithPrincipal returns a new context with the Principal embedded.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext retrieves the Principal from the context, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

// SubjectPrincipal is a minimal Principal carrying only a subject string.
// The server uses it for Basic-auth and API-key authenticated requests.
type SubjectPrincipal struct {
	Subject string
}

func (p SubjectPrincipal) GetSubject() string     { return p.Subject }
func (p SubjectPrincipal) GetClaims() interface{} { return nil }

var _ Principal = SubjectPrincipal{}
