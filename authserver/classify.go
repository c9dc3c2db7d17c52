package authserver

import (
	"fmt"
	"net/http"
	"strings"

	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
)

// Grant names the kind of call made to the authorization server
type Grant string

const (
	GrantPAR               Grant = "PAR"
	GrantAuthorizationCode Grant = "Authorization Code Grant"
	GrantRefreshToken      Grant = "Refresh Token Grant"
	GrantUserInfo          Grant = "User Info Download"
)

// Classify maps an error response from the authorization server to the
// error returned to the SPA. The body is only ever kept as log detail.
func Classify(grant Grant, status int, body string) *agenterrors.Error {
	detail := fmt.Sprintf("%s request failed with status %d: %s", grant, status, body)

	switch {
	case status >= http.StatusInternalServerError:
		return agenterrors.AuthorizationServerFailure(detail, nil)
	case grant == GrantPAR:
		return agenterrors.AuthorizationServerFailure(detail, nil)
	case grant == GrantRefreshToken && strings.Contains(body, oauth2.ErrorInvalidGrant):
		return agenterrors.SessionExpired(detail)
	case grant == GrantUserInfo && status == http.StatusUnauthorized:
		return agenterrors.TokenExpired(detail)
	default:
		return agenterrors.AuthorizationError(detail)
	}
}

// connectionFailure reports a call that never produced a response
func connectionFailure(grant Grant, err error) *agenterrors.Error {
	return agenterrors.AuthorizationServerFailure(fmt.Sprintf("Connectivity problem during a %s request", grant), err)
}

