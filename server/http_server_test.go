package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeward/mcpserve/protocol"
)

func doPost(t *testing.T, srv *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) protocol.JSONRPCResponse {
	t.Helper()
	var resp protocol.JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHTTP_SuccessfulRequest(t *testing.T) {
	srv := newTestServer(t)
	rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, float64(1), resp.ID)
}

func TestHTTP_ContentTypeRequired(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeContentType, resp.Error.Code)
}

func TestHTTP_ContentTypeWithCharsetAccepted(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_StatusMapping(t *testing.T) {
	srv := newTestServer(t, WithBasicAuth("u", "p"), WithRateLimit(1))

	t.Run("parse error is 400", func(t *testing.T) {
		rec := doPost(t, srv, `{"bad json`, map[string]string{"Authorization": basicHeader("u", "p")})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("auth failure is 401", func(t *testing.T) {
		rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.ErrorCodeAuthFailed, resp.Error.Code)
	})

	t.Run("rate limit is 429", func(t *testing.T) {
		headers := map[string]string{
			"Authorization":   basicHeader("u", "p"),
			"X-Forwarded-For": "10.1.2.3",
		}
		first := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, headers)
		assert.Equal(t, http.StatusOK, first.Code)
		second := doPost(t, srv, `{"jsonrpc":"2.0","id":2,"method":"ping"}`, headers)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})

	t.Run("method not found stays 200", func(t *testing.T) {
		headers := map[string]string{
			"Authorization":   basicHeader("u", "p"),
			"X-Forwarded-For": "10.9.9.9",
		}
		rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"nope"}`, headers)
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.ErrorCodeMethodNotFound, resp.Error.Code)
	})
}

func TestHTTP_TransportRejectionsCounted(t *testing.T) {
	srv := newTestServer(t, WithMaxBodySize(64))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"`+strings.Repeat("x", 200)+`"}}`, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	snap := srv.Stats()
	assert.Equal(t, uint64(1), snap.ErrorsByCode[protocol.ErrorCodeContentType])
	assert.Equal(t, uint64(1), snap.ErrorsByCode[protocol.ErrorCodeInvalidRequest])
	assert.Equal(t, uint64(2), snap.TotalErrors)
}

func TestHTTP_NotificationReturns202(t *testing.T) {
	srv := newTestServer(t)
	rec := doPost(t, srv, `{"jsonrpc":"2.0","method":"initialized"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHTTP_BodySizeLimit(t *testing.T) {
	srv := newTestServer(t, WithMaxBodySize(64))
	rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"`+strings.Repeat("x", 200)+`"}}`, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHTTP_CORSHeaderOnAllResponses(t *testing.T) {
	srv := newTestServer(t, WithCORS("https://app.example.com"))

	t.Run("success", func(t *testing.T) {
		rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("error responses carry the header too", func(t *testing.T) {
		rec := doPost(t, srv, `{"broken`, nil)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rec := httptest.NewRecorder()
		srv.HTTPHandler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestHTTP_NoCORSHeaderWhenUnconfigured(t *testing.T) {
	srv := newTestServer(t)
	rec := doPost(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTP_BatchReturnsArray(t *testing.T) {
	srv := newTestServer(t)
	rec := doPost(t, srv, `[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","id":2,"method":"nope"}]`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var responses []protocol.JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &responses))
	require.Len(t, responses, 2)
	assert.Nil(t, responses[0].Error)
	require.NotNil(t, responses[1].Error)
}

func TestHTTP_GetRejected(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
