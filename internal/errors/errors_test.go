package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/stretchr/testify/require"
)

func TestTaxonomy_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *agenterrors.Error
		status int
		code   string
	}{
		{"invalid request", agenterrors.InvalidRequest("bad body", ""), http.StatusBadRequest, "invalid_request"},
		{"invalid state", agenterrors.InvalidState(), http.StatusBadRequest, "invalid_request"},
		{"missing login state", agenterrors.MissingLoginState(), http.StatusBadRequest, "invalid_request"},
		{"invalid id token", agenterrors.InvalidIDToken(nil), http.StatusBadRequest, "invalid_request"},
		{"invalid response jwt", agenterrors.InvalidResponseJWT(nil), http.StatusBadRequest, "invalid_request"},
		{"unauthorized", agenterrors.Unauthorized("csrf"), http.StatusUnauthorized, "unauthorized_request"},
		{"cookie decryption", agenterrors.CookieDecryption(nil), http.StatusUnauthorized, "unauthorized_request"},
		{"session expired", agenterrors.SessionExpired(""), http.StatusUnauthorized, "session_expired"},
		{"token expired", agenterrors.TokenExpired(""), http.StatusUnauthorized, "token_expired"},
		{"authorization error", agenterrors.AuthorizationError(""), http.StatusBadRequest, "authorization_error"},
		{"authorization server", agenterrors.AuthorizationServerFailure("", nil), http.StatusBadGateway, "authorization_server_error"},
		{"unhandled", agenterrors.UnhandledServerError(errors.New("boom")), http.StatusInternalServerError, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, tt.err.Status)
			require.Equal(t, tt.code, tt.err.Code)
			require.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAuthorizationResponseError(t *testing.T) {
	t.Run("defaults when blank", func(t *testing.T) {
		err := agenterrors.AuthorizationResponseError("", "")
		require.Equal(t, "authorization_response_error", err.Code)
		require.Equal(t, "Login failed at the Authorization Server", err.Message)
		require.Equal(t, http.StatusBadRequest, err.Status)
	})

	t.Run("login required is 401", func(t *testing.T) {
		err := agenterrors.AuthorizationResponseError("login_required", "prompt=none failed")
		require.Equal(t, http.StatusUnauthorized, err.Status)
		require.Equal(t, "login_required", err.Code)
	})

	t.Run("server error is 502", func(t *testing.T) {
		err := agenterrors.AuthorizationResponseError("server_error", "")
		require.Equal(t, http.StatusBadGateway, err.Status)
	})

	t.Run("temporarily unavailable is 502", func(t *testing.T) {
		err := agenterrors.AuthorizationResponseError(oauth2.ErrorTemporarilyUnavailable, "")
		require.Equal(t, http.StatusBadGateway, err.Status)
		require.Equal(t, "temporarily_unavailable", err.Code)
	})
}

func TestIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", agenterrors.SessionExpired("invalid_grant"))

	require.True(t, errors.Is(wrapped, agenterrors.ErrSessionExpired))
	require.False(t, errors.Is(wrapped, agenterrors.ErrTokenExpired))
}

func TestFromError(t *testing.T) {
	require.Nil(t, agenterrors.FromError(nil))

	plain := agenterrors.FromError(errors.New("database exploded"))
	require.Equal(t, agenterrors.KindUnhandledServerError, plain.Kind)
	require.Equal(t, http.StatusInternalServerError, plain.Status)
	require.NotContains(t, plain.Message, "database exploded")

	typed := agenterrors.InvalidState()
	require.Same(t, typed, agenterrors.FromError(agenterrors.Wrapf(typed, "login end")))
}
