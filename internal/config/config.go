package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	CookieConfig
	Validate() error
}

type EnvConfig interface {
	GetEnv() string
	GetPort() string
	GetAppName() string
	GetLogLevel() string
	GetEndpointsPrefix() string
	GetHTTPTimeout() time.Duration
	GetTelemetryEnabled() bool
}

type CorsConfig interface {
	GetTrustedWebOrigins() AllowedOrigins
	GetCorsEnabled() bool
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars `mapstructure:",squash"`
	Cors    `mapstructure:",squash"`
	OAuth   `mapstructure:",squash"`
	Cookie  `mapstructure:"cookie"`
}

var _ Config = mainConfig{}

// GetAllowedHeaders lists the request headers the SPA may send cross origin,
// including the CSRF header whose name depends on the cookie prefix.
func (c mainConfig) GetAllowedHeaders() string {
	return "Content-Type, " + CSRFHeaderName(c.GetCookieNamePrefix())
}

// CSRFHeaderName is the custom request header carrying the plaintext CSRF token
func CSRFHeaderName(cookieNamePrefix string) string {
	return fmt.Sprintf("X-%s-csrf", cookieNamePrefix)
}

// Validate checks that every setting the core depends on is present and coherent
func (c mainConfig) Validate() error {
	var errs []error

	required := map[string]string{
		"clientId":          c.ClientID,
		"redirectUri":       c.RedirectURI,
		"issuer":            c.Issuer,
		"authorizeEndpoint": c.AuthorizeEndpoint,
		"tokenEndpoint":     c.TokenEndpoint,
		"endpointsPrefix":   c.EndpointsPrefix,
		"cookie.namePrefix": c.NamePrefix,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.EncryptionKey == "" && c.EncryptionPassword == "" {
		errs = append(errs, errors.New("cookie.encryptionKey or cookie.encryptionPassword is required"))
	}
	if c.EncryptionKey != "" && len(c.EncryptionKey) != 64 {
		errs = append(errs, fmt.Errorf("cookie.encryptionKey must be 64 hex characters, got %d", len(c.EncryptionKey)))
	}
	if c.EncryptionKey == "" && c.EncryptionPassword != "" && c.EncryptionSalt == "" {
		errs = append(errs, errors.New("cookie.encryptionSalt is required with cookie.encryptionPassword"))
	}

	if c.FinancialGrade {
		if c.JWKSURI == "" {
			errs = append(errs, errors.New("jwksUri is required when financialGrade is enabled"))
		}
		if c.GetAuthorizeExternalEndpoint() == "" {
			errs = append(errs, errors.New("authorizeExternalEndpoint is required when financialGrade is enabled"))
		}
	}

	switch c.TokenEndpointAuthMethod {
	case AuthMethodClientSecretPost, AuthMethodClientSecretBasic, AuthMethodNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported tokenEndpointAuthMethod %q", c.TokenEndpointAuthMethod))
	}

	switch strings.ToLower(c.SameSite) {
	case "strict", "lax", "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported cookie.sameSite %q", c.SameSite))
	}

	if len(c.TrustedWebOrigins) == 0 {
		errs = append(errs, errors.New("at least one trustedWebOrigins entry is required"))
	}

	return errors.Join(errs...)
}
