package config

import (
	"strings"
	"time"
)

type EnvVars struct {
	Env             string        `mapstructure:"env"`
	Port            string        `mapstructure:"port"`
	AppName         string        `mapstructure:"appName"`
	LogLevel        string        `mapstructure:"logLevel"`
	EndpointsPrefix string        `mapstructure:"endpointsPrefix"`
	HTTPTimeout     time.Duration `mapstructure:"httpTimeout"`
	Telemetry       bool          `mapstructure:"telemetryEnabled"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetEndpointsPrefix returns the path prefix without leading or trailing slashes
func (e EnvVars) GetEndpointsPrefix() string {
	return strings.Trim(e.EndpointsPrefix, "/")
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

func (e EnvVars) GetTelemetryEnabled() bool {
	return e.Telemetry
}
