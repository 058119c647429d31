package server

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeward/mcpserve/auth"
	"github.com/lakeward/mcpserve/protocol"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAccessControl_DisabledPassesEverything(t *testing.T) {
	ac := accessControl{}
	assert.False(t, ac.enabled())
	principal, err := ac.authenticate(context.Background(), RequestMeta{})
	assert.Nil(t, principal)
	assert.Nil(t, err)
}

func TestAccessControl_BasicAuth(t *testing.T) {
	ac := accessControl{basicUser: "admin", basicPass: "hunter2"}
	require.True(t, ac.enabled())

	t.Run("valid credentials", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": basicHeader("admin", "hunter2")}}
		principal, err := ac.authenticate(context.Background(), meta)
		require.Nil(t, err)
		assert.Equal(t, "admin", principal.GetSubject())
	})

	t.Run("wrong password", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": basicHeader("admin", "wrong")}}
		_, err := ac.authenticate(context.Background(), meta)
		require.NotNil(t, err)
		assert.Equal(t, protocol.ErrorCodeAuthFailed, err.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := ac.authenticate(context.Background(), RequestMeta{})
		require.NotNil(t, err)
		assert.Equal(t, protocol.ErrorCodeAuthFailed, err.Code)
	})

	t.Run("garbage header", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": "Basic %%%%"}}
		_, err := ac.authenticate(context.Background(), meta)
		require.NotNil(t, err)
	})
}

func TestAccessControl_APIKey(t *testing.T) {
	ac := accessControl{apiKeyValidator: auth.StaticKeyValidator("k1", "k2")}

	t.Run("valid key in X-API-Key", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"X-API-Key": "k1"}}
		_, err := ac.authenticate(context.Background(), meta)
		assert.Nil(t, err)
	})

	t.Run("valid key as bearer token", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": "Bearer k2"}}
		_, err := ac.authenticate(context.Background(), meta)
		assert.Nil(t, err)
	})

	t.Run("header names are case-insensitive", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"x-api-key": "k1"}}
		_, err := ac.authenticate(context.Background(), meta)
		assert.Nil(t, err)
	})

	t.Run("invalid key", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"X-API-Key": "nope"}}
		_, err := ac.authenticate(context.Background(), meta)
		require.NotNil(t, err)
		assert.Equal(t, protocol.ErrorCodeAuthFailed, err.Code)
	})
}

type stubTokenValidator struct {
	accept string
}

func (v stubTokenValidator) ValidateToken(ctx context.Context, token string) (auth.Principal, error) {
	if token == v.accept {
		return auth.SubjectPrincipal{Subject: "token-user"}, nil
	}
	return nil, protocol.NewAuthError("Invalid token")
}

func TestAccessControl_TokenValidator(t *testing.T) {
	ac := accessControl{tokenValidator: stubTokenValidator{accept: "good-token"}}

	t.Run("valid token", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": "Bearer good-token"}}
		principal, err := ac.authenticate(context.Background(), meta)
		require.Nil(t, err)
		assert.Equal(t, "token-user", principal.GetSubject())
	})

	t.Run("invalid token", func(t *testing.T) {
		meta := RequestMeta{Headers: map[string]string{"Authorization": "Bearer bad-token"}}
		_, err := ac.authenticate(context.Background(), meta)
		require.NotNil(t, err)
		assert.Equal(t, protocol.ErrorCodeAuthFailed, err.Code)
	})
}

func TestAccessControl_AnyConfiguredSchemeSuffices(t *testing.T) {
	ac := accessControl{
		basicUser:       "admin",
		basicPass:       "secret",
		apiKeyValidator: auth.StaticKeyValidator("key-1"),
	}

	// No Basic header, but a valid API key: authenticated.
	meta := RequestMeta{Headers: map[string]string{"X-API-Key": "key-1"}}
	_, err := ac.authenticate(context.Background(), meta)
	assert.Nil(t, err)
}

func TestServer_PrincipalReachesHandlers(t *testing.T) {
	srv := newTestServer(t, WithBasicAuth("admin", "pw"))

	var seen auth.Principal
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "whoami"}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		seen, _ = auth.PrincipalFromContext(ctx)
		return "ok", nil
	}))

	meta := RequestMeta{ClientKey: "c", Headers: map[string]string{"Authorization": basicHeader("admin", "pw")}}
	responses := srv.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"whoami"}}`), meta)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)
	require.NotNil(t, seen)
	assert.Equal(t, "admin", seen.GetSubject())
}
