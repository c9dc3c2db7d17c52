package config

import (
	"sort"
	"strings"
)

type Cors struct {
	TrustedWebOrigins []string `mapstructure:"trustedWebOrigins"`
	CorsEnabled       bool     `mapstructure:"corsEnabled"`
}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func NewAllowedOrigins(origins ...string) AllowedOrigins {
	allowed := make(AllowedOrigins, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[origin] = nullValue{}
		}
	}
	return allowed
}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

func (c Cors) GetTrustedWebOrigins() AllowedOrigins {
	return NewAllowedOrigins(c.TrustedWebOrigins...)
}

func (c Cors) GetCorsEnabled() bool {
	return c.CorsEnabled
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}
