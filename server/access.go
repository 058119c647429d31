package server

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/lakeward/mcpserve/auth"
	"github.com/lakeward/mcpserve/protocol"
)

// accessControl evaluates the optional authentication gates before a
// request is dispatched. CORS is handled separately by the HTTP adapter,
// which asks the server for its configured origin.
type accessControl struct {
	basicUser       string
	basicPass       string
	apiKeyValidator auth.APIKeyValidator
	tokenValidator  auth.TokenValidator
}

// enabled reports whether any authentication scheme is configured.
func (a *accessControl) enabled() bool {
	return a.basicUser != "" || a.apiKeyValidator != nil || a.tokenValidator != nil
}

// authenticate checks the request's credentials against the configured
// schemes. Passing any one configured scheme is sufficient. On failure the
// returned MCPError carries the auth error code; registries and the rate
// limiter are never touched on this path.
func (a *accessControl) authenticate(ctx context.Context, meta RequestMeta) (auth.Principal, *protocol.MCPError) {
	if !a.enabled() {
		return nil, nil
	}

	authorization := meta.Header("Authorization")

	if a.basicUser != "" {
		if user, pass, ok := parseBasicAuth(authorization); ok {
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.basicUser)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(a.basicPass)) == 1
			if userMatch && passMatch {
				return auth.SubjectPrincipal{Subject: user}, nil
			}
			return nil, protocol.NewAuthError("Invalid credentials")
		}
	}

	if a.apiKeyValidator != nil {
		key := meta.Header("X-API-Key")
		if key == "" {
			key = strings.TrimPrefix(authorization, "Bearer ")
			if key == authorization {
				key = ""
			}
		}
		if key != "" {
			if a.apiKeyValidator(key) {
				return auth.SubjectPrincipal{Subject: "api-key"}, nil
			}
			return nil, protocol.NewAuthError("Invalid API key")
		}
	}

	if a.tokenValidator != nil {
		if token, ok := strings.CutPrefix(authorization, "Bearer "); ok && token != "" {
			principal, err := a.tokenValidator.ValidateToken(ctx, token)
			if err != nil {
				if mcpErr, ok := err.(*protocol.MCPError); ok {
					return nil, mcpErr
				}
				return nil, protocol.NewAuthError(err.Error())
			}
			return principal, nil
		}
	}

	return nil, protocol.NewAuthError("Missing authentication credentials")
}

// parseBasicAuth decodes an "Authorization: Basic ..." header value.
func parseBasicAuth(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}
