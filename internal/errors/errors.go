package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oauth-agent/oauth2"
)

// Kind identifies one member of the closed set of failures the agent can report.
type Kind int

const (
	KindUnhandledServerError Kind = iota
	KindInvalidRequest
	KindInvalidState
	KindMissingLoginState
	KindInvalidIDToken
	KindInvalidResponseJWT
	KindAuthorizationResponseError
	KindUnauthorizedRequest
	KindCookieDecryptionFailure
	KindSessionExpired
	KindTokenExpired
	KindAuthorizationError
	KindAuthorizationServerFailure
)

var kindNames = map[Kind]string{
	KindUnhandledServerError:       "UnhandledServerError",
	KindInvalidRequest:             "InvalidRequest",
	KindInvalidState:               "InvalidState",
	KindMissingLoginState:          "MissingLoginState",
	KindInvalidIDToken:             "InvalidIdToken",
	KindInvalidResponseJWT:         "InvalidResponseJwt",
	KindAuthorizationResponseError: "AuthorizationResponseError",
	KindUnauthorizedRequest:        "UnauthorizedRequest",
	KindCookieDecryptionFailure:    "CookieDecryptionFailure",
	KindSessionExpired:             "SessionExpired",
	KindTokenExpired:               "TokenExpired",
	KindAuthorizationError:         "AuthorizationError",
	KindAuthorizationServerFailure: "AuthorizationServerFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Machine readable codes returned to the SPA
const (
	CodeInvalidRequest           = "invalid_request"
	CodeUnauthorizedRequest      = "unauthorized_request"
	CodeSessionExpired           = "session_expired"
	CodeTokenExpired             = "token_expired"
	CodeAuthorizationError       = "authorization_error"
	CodeAuthorizationServerError = "authorization_server_error"
	CodeServerError              = "server_error"
	CodeAuthorizationResponse    = "authorization_response_error"
)

const (
	msgAccessDenied        = "Access denied due to invalid request details"
	msgAuthorizationServer = "A problem occurred with a request to the Authorization Server"
)

// Error is the single failure type that crosses component boundaries.
// Status and Code are sent to the SPA, Message is the user facing text and
// LogDetail is only ever written to internal logs.
type Error struct {
	Kind      Kind
	Status    int
	Code      string
	Message   string
	LogDetail string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	if e.LogDetail != "" {
		msg += ": " + e.LogDetail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so the sentinels below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrUnhandledServerError       = &Error{Kind: KindUnhandledServerError}
	ErrInvalidRequest             = &Error{Kind: KindInvalidRequest}
	ErrInvalidState               = &Error{Kind: KindInvalidState}
	ErrMissingLoginState          = &Error{Kind: KindMissingLoginState}
	ErrInvalidIDToken             = &Error{Kind: KindInvalidIDToken}
	ErrInvalidResponseJWT         = &Error{Kind: KindInvalidResponseJWT}
	ErrAuthorizationResponseError = &Error{Kind: KindAuthorizationResponseError}
	ErrUnauthorizedRequest        = &Error{Kind: KindUnauthorizedRequest}
	ErrCookieDecryptionFailure    = &Error{Kind: KindCookieDecryptionFailure}
	ErrSessionExpired             = &Error{Kind: KindSessionExpired}
	ErrTokenExpired               = &Error{Kind: KindTokenExpired}
	ErrAuthorizationError         = &Error{Kind: KindAuthorizationError}
	ErrAuthorizationServerFailure = &Error{Kind: KindAuthorizationServerFailure}
)

func InvalidRequest(message, logDetail string) *Error {
	return &Error{
		Kind:      KindInvalidRequest,
		Status:    http.StatusBadRequest,
		Code:      CodeInvalidRequest,
		Message:   message,
		LogDetail: logDetail,
	}
}

func InvalidState() *Error {
	return &Error{
		Kind:    KindInvalidState,
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRequest,
		Message: "State parameter mismatch when completing a login",
	}
}

func MissingLoginState() *Error {
	return &Error{
		Kind:    KindMissingLoginState,
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRequest,
		Message: "Missing code verifier when completing a login",
	}
}

func InvalidIDToken(cause error) *Error {
	return &Error{
		Kind:    KindInvalidIDToken,
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRequest,
		Message: "ID Token missing or invalid",
		Err:     cause,
	}
}

func InvalidResponseJWT(cause error) *Error {
	return &Error{
		Kind:      KindInvalidResponseJWT,
		Status:    http.StatusBadRequest,
		Code:      CodeInvalidRequest,
		Message:   "Response JWT is invalid",
		LogDetail: "The received response JWT is not valid",
		Err:       cause,
	}
}

// AuthorizationResponseError reports an error returned by the authorization
// server in the front channel response. Blank values fall back to generic ones.
func AuthorizationResponseError(code, description string) *Error {
	if code == "" {
		code = CodeAuthorizationResponse
	}
	if description == "" {
		description = "Login failed at the Authorization Server"
	}

	status := http.StatusBadRequest
	switch code {
	case oauth2.ErrorLoginRequired:
		status = http.StatusUnauthorized
	case oauth2.ErrorServerError, oauth2.ErrorTemporarilyUnavailable:
		status = http.StatusBadGateway
	}

	return &Error{
		Kind:    KindAuthorizationResponseError,
		Status:  status,
		Code:    code,
		Message: description,
	}
}

func Unauthorized(logDetail string) *Error {
	return &Error{
		Kind:      KindUnauthorizedRequest,
		Status:    http.StatusUnauthorized,
		Code:      CodeUnauthorizedRequest,
		Message:   msgAccessDenied,
		LogDetail: logDetail,
	}
}

// CookieDecryption keeps the cause for logs. The client always sees the same
// status, code and message.
func CookieDecryption(cause error) *Error {
	return &Error{
		Kind:      KindCookieDecryptionFailure,
		Status:    http.StatusUnauthorized,
		Code:      CodeUnauthorizedRequest,
		Message:   msgAccessDenied,
		LogDetail: "A received cookie failed decryption",
		Err:       cause,
	}
}

func SessionExpired(logDetail string) *Error {
	return &Error{
		Kind:      KindSessionExpired,
		Status:    http.StatusUnauthorized,
		Code:      CodeSessionExpired,
		Message:   "The session has expired, please log in again",
		LogDetail: logDetail,
	}
}

func TokenExpired(logDetail string) *Error {
	return &Error{
		Kind:      KindTokenExpired,
		Status:    http.StatusUnauthorized,
		Code:      CodeTokenExpired,
		Message:   "The access token has expired",
		LogDetail: logDetail,
	}
}

func AuthorizationError(logDetail string) *Error {
	return &Error{
		Kind:      KindAuthorizationError,
		Status:    http.StatusBadRequest,
		Code:      CodeAuthorizationError,
		Message:   "A request sent to the Authorization Server was rejected",
		LogDetail: logDetail,
	}
}

func AuthorizationServerFailure(logDetail string, cause error) *Error {
	return &Error{
		Kind:      KindAuthorizationServerFailure,
		Status:    http.StatusBadGateway,
		Code:      CodeAuthorizationServerError,
		Message:   msgAuthorizationServer,
		LogDetail: logDetail,
		Err:       cause,
	}
}

func UnhandledServerError(cause error) *Error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &Error{
		Kind:      KindUnhandledServerError,
		Status:    http.StatusInternalServerError,
		Code:      CodeServerError,
		Message:   "A technical problem occurred in the OAuth Agent",
		LogDetail: detail,
		Err:       cause,
	}
}

// FromError returns the taxonomy error carried by err, or wraps err as an
// UnhandledServerError.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var agentErr *Error
	if errors.As(err, &agentErr) && agentErr.Status != 0 {
		return agentErr
	}
	return UnhandledServerError(err)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
