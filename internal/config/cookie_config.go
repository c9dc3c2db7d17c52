package config

import (
	"net/http"
	"strings"
)

type CookieConfig interface {
	GetCookieNamePrefix() string
	GetCookieDomain() string
	GetCookiePath() string
	GetCookieSecure() bool
	GetCookieSameSite() http.SameSite
	GetLoginCookieMaxAge() int

	GetEncryptionKey() string
	GetEncryptionPassword() string
	GetEncryptionSalt() string
	GetKDFIterations() int
}

type Cookie struct {
	NamePrefix  string `mapstructure:"namePrefix"`
	Domain      string `mapstructure:"domain"`
	Path        string `mapstructure:"path"`
	Secure      bool   `mapstructure:"secure"`
	SameSite    string `mapstructure:"sameSite"`
	LoginMaxAge int    `mapstructure:"loginMaxAge"`

	// EncryptionKey is 32 bytes of hex. When empty the key is derived from
	// EncryptionPassword and EncryptionSalt.
	EncryptionKey      string `mapstructure:"encryptionKey"`
	EncryptionPassword string `mapstructure:"encryptionPassword"`
	EncryptionSalt     string `mapstructure:"encryptionSalt"`
	KDFIterations      int    `mapstructure:"kdfIterations"`
}

var _ CookieConfig = Cookie{}

func (c Cookie) GetCookieNamePrefix() string { return c.NamePrefix }
func (c Cookie) GetCookieDomain() string     { return c.Domain }
func (c Cookie) GetCookieSecure() bool       { return c.Secure }
func (c Cookie) GetLoginCookieMaxAge() int   { return c.LoginMaxAge }

func (c Cookie) GetCookiePath() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// GetCookieSameSite maps the configured policy to a valid SameSite value.
// Strict is used when nothing is configured.
func (c Cookie) GetCookieSameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (c Cookie) GetEncryptionKey() string      { return c.EncryptionKey }
func (c Cookie) GetEncryptionPassword() string { return c.EncryptionPassword }
func (c Cookie) GetEncryptionSalt() string     { return c.EncryptionSalt }
func (c Cookie) GetKDFIterations() int         { return c.KDFIterations }
