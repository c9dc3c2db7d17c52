package config

import "strings"

// Client authentication methods at the token endpoint
const (
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodNone              = "none"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetTokenEndpointAuthMethod() string
	GetRedirectURI() string
	GetPostLogoutRedirectURI() string
	GetScope() string
	GetFinancialGrade() bool

	GetIssuer() string
	GetJWKSURI() string
	GetAuthorizeEndpoint() string
	GetAuthorizeExternalEndpoint() string
	GetPAREndpoint() string
	GetTokenEndpoint() string
	GetUserInfoEndpoint() string
	GetLogoutEndpoint() string
}

type OAuth struct {
	ClientID                string `mapstructure:"clientId"`
	ClientSecret            string `mapstructure:"clientSecret"`
	TokenEndpointAuthMethod string `mapstructure:"tokenEndpointAuthMethod"`
	RedirectURI             string `mapstructure:"redirectUri"`
	PostLogoutRedirectURI   string `mapstructure:"postLogoutRedirectUri"`
	Scope                   string `mapstructure:"scope"`

	// FinancialGrade switches login to Pushed Authorization Requests and
	// JWT secured authorization responses.
	FinancialGrade bool `mapstructure:"financialGrade"`

	Issuer                    string `mapstructure:"issuer"`
	JWKSURI                   string `mapstructure:"jwksUri"`
	AuthorizeEndpoint         string `mapstructure:"authorizeEndpoint"`
	AuthorizeExternalEndpoint string `mapstructure:"authorizeExternalEndpoint"`
	PAREndpoint               string `mapstructure:"parEndpoint"`
	TokenEndpoint             string `mapstructure:"tokenEndpoint"`
	UserInfoEndpoint          string `mapstructure:"userInfoEndpoint"`
	LogoutEndpoint            string `mapstructure:"logoutEndpoint"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string                { return o.ClientID }
func (o OAuth) GetClientSecret() string            { return o.ClientSecret }
func (o OAuth) GetTokenEndpointAuthMethod() string { return o.TokenEndpointAuthMethod }
func (o OAuth) GetRedirectURI() string             { return o.RedirectURI }
func (o OAuth) GetPostLogoutRedirectURI() string   { return o.PostLogoutRedirectURI }
func (o OAuth) GetScope() string                   { return o.Scope }
func (o OAuth) GetFinancialGrade() bool            { return o.FinancialGrade }
func (o OAuth) GetIssuer() string                  { return o.Issuer }
func (o OAuth) GetJWKSURI() string                 { return o.JWKSURI }
func (o OAuth) GetAuthorizeEndpoint() string       { return o.AuthorizeEndpoint }
func (o OAuth) GetTokenEndpoint() string           { return o.TokenEndpoint }
func (o OAuth) GetUserInfoEndpoint() string        { return o.UserInfoEndpoint }
func (o OAuth) GetLogoutEndpoint() string          { return o.LogoutEndpoint }

// GetAuthorizeExternalEndpoint is the browser facing authorize URL. It only
// differs from the authorize endpoint when the agent reaches the
// authorization server over an internal network.
func (o OAuth) GetAuthorizeExternalEndpoint() string {
	if o.AuthorizeExternalEndpoint != "" {
		return o.AuthorizeExternalEndpoint
	}
	return o.AuthorizeEndpoint
}

func (o OAuth) GetPAREndpoint() string {
	if o.PAREndpoint != "" {
		return o.PAREndpoint
	}
	if o.AuthorizeEndpoint == "" {
		return ""
	}
	return strings.TrimRight(o.AuthorizeEndpoint, "/") + "/par"
}
