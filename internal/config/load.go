package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. OAUTHAGENT_CLIENTID or OAUTHAGENT_COOKIE_ENCRYPTIONKEY.
const EnvPrefix = "OAUTHAGENT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "DEV")
	v.SetDefault("port", "8080")
	v.SetDefault("appName", "OAuth Agent")
	v.SetDefault("logLevel", "info")
	v.SetDefault("endpointsPrefix", "oauth-agent")
	v.SetDefault("httpTimeout", 10*time.Second)
	v.SetDefault("telemetryEnabled", false)

	v.SetDefault("clientId", "")
	v.SetDefault("clientSecret", "")
	v.SetDefault("tokenEndpointAuthMethod", AuthMethodClientSecretPost)
	v.SetDefault("redirectUri", "")
	v.SetDefault("postLogoutRedirectUri", "")
	v.SetDefault("scope", "openid profile")
	v.SetDefault("financialGrade", false)
	v.SetDefault("issuer", "")
	v.SetDefault("jwksUri", "")
	v.SetDefault("authorizeEndpoint", "")
	v.SetDefault("authorizeExternalEndpoint", "")
	v.SetDefault("parEndpoint", "")
	v.SetDefault("tokenEndpoint", "")
	v.SetDefault("userInfoEndpoint", "")
	v.SetDefault("logoutEndpoint", "")

	v.SetDefault("trustedWebOrigins", []string{})
	v.SetDefault("corsEnabled", true)

	v.SetDefault("cookie.namePrefix", "oauthagent")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.sameSite", "strict")
	v.SetDefault("cookie.loginMaxAge", 900)
	v.SetDefault("cookie.encryptionKey", "")
	v.SetDefault("cookie.encryptionPassword", "")
	v.SetDefault("cookie.encryptionSalt", "")
	v.SetDefault("cookie.kdfIterations", 600000)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result. The returned Config is read only.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("[config Load] failed to read %s: %w", path, err)
		}
	}
	return decode(v)
}

// FromValues builds a Config from in-memory values on top of the defaults.
// Keys use the same names as the YAML file, nested with maps.
func FromValues(values map[string]any) (Config, error) {
	v := newViper()
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("[config FromValues] %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var c mainConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("[config] failed to decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("[config] invalid configuration: %w", err)
	}
	return c, nil
}
