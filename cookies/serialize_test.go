package cookies_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	codec := newCodec(t, cookies.WithNowTime(func() time.Time { return now }))

	base := cookies.Attributes{
		Domain:   "api.example.com",
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}

	t.Run("session cookie", func(t *testing.T) {
		header := codec.Serialize("example-csrf", "v", base)
		require.Contains(t, header, "example-csrf=v")
		require.Contains(t, header, "HttpOnly")
		require.Contains(t, header, "Secure")
		require.Contains(t, header, "SameSite=Strict")
		require.Contains(t, header, "Domain=api.example.com")
		require.Contains(t, header, "Path=/")
		require.NotContains(t, header, "Max-Age")
		require.NotContains(t, header, "Expires")
	})

	t.Run("positive expiry", func(t *testing.T) {
		header := codec.Serialize("example-login", "v", base.WithExpiresIn(900))
		require.Contains(t, header, "Max-Age=900")
		require.Contains(t, header, "Expires="+now.Add(900*time.Second).Format(http.TimeFormat))
	})

	t.Run("zero expiry", func(t *testing.T) {
		header := codec.Serialize("example-login", "v", base.WithExpiresIn(0))
		require.Contains(t, header, "Max-Age=0")
		require.Contains(t, header, "Expires="+time.Unix(0, 0).UTC().Format(http.TimeFormat))
	})

	t.Run("unset", func(t *testing.T) {
		header := codec.UnsetCookie("example-auth", base.WithPath("/oauth-agent/refresh"))
		cookie, err := http.ParseSetCookie(header)
		require.NoError(t, err)
		require.Empty(t, cookie.Value)
		require.Equal(t, "/oauth-agent/refresh", cookie.Path)
		require.Contains(t, header, "Max-Age=0")
		require.Contains(t, header, "Expires="+now.Add(-24*time.Hour).Format(http.TimeFormat))
	})

	t.Run("lax same site", func(t *testing.T) {
		lax := base
		lax.SameSite = http.SameSiteLaxMode
		require.Contains(t, codec.Serialize("a", "b", lax), "SameSite=Lax")
	})

	t.Run("copies do not alias", func(t *testing.T) {
		scoped := base.WithPath("/claims").WithExpiresIn(10)
		require.Equal(t, "/", base.Path)
		require.Nil(t, base.ExpiresInSeconds)
		require.Equal(t, 10, *scoped.ExpiresInSeconds)
	})
}

func TestNames(t *testing.T) {
	names := cookies.NewNames("example")
	require.Equal(t, "example-login", names.TempLogin)
	require.Equal(t, "example-auth", names.Refresh)
	require.Equal(t, "example-at", names.AccessToken)
	require.Equal(t, "example-id", names.IDToken)
	require.Equal(t, "example-csrf", names.CSRF)
	require.ElementsMatch(t, []string{"example-auth", "example-at", "example-id", "example-csrf"}, names.SessionCookies())
}

func TestDeriveKey(t *testing.T) {
	key, err := cookies.DeriveKey("password", "salt", 1)
	require.NoError(t, err)
	require.Len(t, key, cookies.KeySize)

	again, err := cookies.DeriveKey("password", "salt", cookies.MinKDFIterations)
	require.NoError(t, err)
	require.Equal(t, key, again)

	other, err := cookies.DeriveKey("password", "pepper", cookies.MinKDFIterations)
	require.NoError(t, err)
	require.NotEqual(t, key, other)

	_, err = cookies.DeriveKey("", "salt", cookies.MinKDFIterations)
	require.Error(t, err)
}
