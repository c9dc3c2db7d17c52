package jwt_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-agent/internal/testutil"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
	"github.com/stretchr/testify/require"
)

func TestDecodeUnverified(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"demouser","n":1}`))
		claims, err := jwt.DecodeUnverified("e30." + payload + ".sig")
		require.NoError(t, err)
		require.Equal(t, "demouser", claims["sub"])
		require.Equal(t, float64(1), claims["n"])
	})

	t.Run("padded payload", func(t *testing.T) {
		payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"a"}`))
		claims, err := jwt.DecodeUnverified("e30." + payload + ".sig")
		require.NoError(t, err)
		require.Equal(t, "a", claims["sub"])
	})

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"two parts", "a.b", jwt.ErrMalformedJWT},
		{"four parts", "a.b.c.d", jwt.ErrMalformedJWT},
		{"empty", "", jwt.ErrMalformedJWT},
		{"array payload", "e30." + base64.RawURLEncoding.EncodeToString([]byte(`[1,2]`)) + ".sig", jwt.ErrNotAnObject},
		{"null payload", "e30." + base64.RawURLEncoding.EncodeToString([]byte(`null`)) + ".sig", jwt.ErrNotAnObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwt.DecodeUnverified(tt.input)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	t.Run("bad base64", func(t *testing.T) {
		_, err := jwt.DecodeUnverified("a.!!!.c")
		require.Error(t, err)
	})
}

func TestIDTokenValidator(t *testing.T) {
	const issuer = "https://login.example.com/oauth/v2/oauth-anonymous"
	now := time.Now()
	validator := jwt.NewIDTokenValidator(issuer, testutil.ClientID)

	base := func() map[string]any {
		return map[string]any{
			"iss": issuer,
			"aud": testutil.ClientID,
			"azp": testutil.ClientID,
			"sub": "demouser",
			"exp": float64(now.Add(time.Hour).Unix()),
			"iat": float64(now.Unix()),
		}
	}

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr bool
	}{
		{"valid", func(map[string]any) {}, false},
		{"without azp", func(c map[string]any) { delete(c, "azp") }, false},
		{"audience list containing client", func(c map[string]any) { c["aud"] = []any{testutil.ClientID, "api"} }, false},
		{"audience list without azp", func(c map[string]any) { c["aud"] = []any{testutil.ClientID, "api"}; delete(c, "azp") }, true},
		{"wrong issuer", func(c map[string]any) { c["iss"] = "https://evil.example" }, true},
		{"wrong audience", func(c map[string]any) { c["aud"] = "other-client" }, true},
		{"wrong azp", func(c map[string]any) { c["azp"] = "other-client" }, true},
		{"expired", func(c map[string]any) { c["exp"] = float64(now.Add(-time.Minute).Unix()) }, true},
		{"expired within leeway", func(c map[string]any) { c["exp"] = float64(now.Add(-10 * time.Second).Unix()) }, false},
		{"missing exp", func(c map[string]any) { delete(c, "exp") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := base()
			tt.mutate(claims)
			err := validator.Validate(claims)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRemoteVerifier(t *testing.T) {
	as := testutil.NewAuthServer(t)
	verifier := jwt.NewRemoteVerifier(as.Issuer(), as.URL(testutil.JWKSPath), testutil.ClientID, as.Server.Client())

	now := time.Now()
	claims := jwtlib.MapClaims{
		"iss":   as.Issuer(),
		"aud":   testutil.ClientID,
		"exp":   now.Add(2 * time.Minute).Unix(),
		"code":  "C1",
		"state": "S1",
	}

	t.Run("valid signature", func(t *testing.T) {
		verified, err := verifier.Verify(context.Background(), as.Sign(claims))
		require.NoError(t, err)
		require.Equal(t, "C1", verified["code"])
		require.Equal(t, "S1", verified["state"])
	})

	t.Run("signed by another key", func(t *testing.T) {
		other, err := testutil.GenerateRSAKeyPair("test-key-1")
		require.NoError(t, err)
		forged, err := other.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), forged)
		require.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		wrong := jwtlib.MapClaims{}
		for k, v := range claims {
			wrong[k] = v
		}
		wrong["aud"] = "other-client"
		_, err := verifier.Verify(context.Background(), as.Sign(wrong))
		require.Error(t, err)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not-a-jwt")
		require.Error(t, err)
	})
}
