package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-oauth-agent/csrf"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/login"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/rs/zerolog"
)

const maxRequestBodyBytes = 64 << 10

// ErrorResponse is the body of every failed call
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// originOnly applies to POSTs without a CSRF token yet, csrfRequired to POSTs
// within an established session.
var (
	originOnly   = csrf.Options{RequireTrustedOrigin: true}
	csrfRequired = csrf.Options{RequireTrustedOrigin: true, RequireCSRFHeader: true}
)

// LoginStartHandler returns the authorization request URL and sets the
// temporary login cookie
func (s *Server) LoginStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), originOnly); err != nil {
			s.writeError(w, r, err)
			return
		}

		var req oauthmodel.StartLoginRequest
		if err := decodeBody(w, r, &req, true); err != nil {
			s.writeError(w, r, err)
			return
		}

		resp, cookie, err := s.engine.Start(r.Context(), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Add("Set-Cookie", cookie)
		writeJSON(w, http.StatusOK, resp)
	}
}

// LoginEndHandler completes a login when the page URL holds an authorization
// response, otherwise reports whether the user is logged in
func (s *Server) LoginEndHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), originOnly); err != nil {
			s.writeError(w, r, err)
			return
		}

		var req oauthmodel.EndLoginRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			s.writeError(w, r, err)
			return
		}

		resp, headers, err := s.engine.End(r.Context(), req, login.EndCookies{
			TempLogin:   cookieValue(r, s.names.TempLogin),
			AccessToken: cookieValue(r, s.names.AccessToken),
			CSRF:        cookieValue(r, s.names.CSRF),
		})
		setCookies(w, headers)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), csrfRequired); err != nil {
			s.writeError(w, r, err)
			return
		}

		headers, err := s.manager.Refresh(r.Context(), cookieValue(r, s.names.Refresh))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		setCookies(w, headers)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ClaimsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), s.readOptions()); err != nil {
			s.writeError(w, r, err)
			return
		}

		claims, err := s.manager.Claims(cookieValue(r, s.names.IDToken))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, claims)
	}
}

func (s *Server) UserInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), s.readOptions()); err != nil {
			s.writeError(w, r, err)
			return
		}

		claims, err := s.manager.UserInfo(r.Context(), cookieValue(r, s.names.AccessToken))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, claims)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard.Validate(s.guard.RequestFrom(r), csrfRequired); err != nil {
			s.writeError(w, r, err)
			return
		}

		resp, headers, err := s.manager.Logout(r.Context(), cookieValue(r, s.names.AccessToken))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		setCookies(w, headers)
		writeJSON(w, http.StatusOK, resp)
	}
}

// readOptions checks the origin of GETs only when cross origin calls are enabled
func (s *Server) readOptions() csrf.Options {
	return csrf.Options{RequireTrustedOrigin: s.config.GetCorsEnabled()}
}

// writeError logs the failure and writes its status with the public code and
// message. 5xx errors are logged with their full detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	agentErr := agenterrors.FromError(err)
	logger := zerolog.Ctx(r.Context())

	event := logger.Info()
	if agentErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Err(agentErr.Err)
	}
	event.
		Str("kind", agentErr.Kind.String()).
		Int("status", agentErr.Status).
		Str("code", agentErr.Code).
		Str("detail", agentErr.LogDetail).
		Str("path", r.URL.Path).
		Msg(agentErr.Message)

	s.metrics.RecordErrorResponse(r.Context(), agentErr.Code, agentErr.Status)
	writeJSON(w, agentErr.Status, ErrorResponse{Code: agentErr.Code, Message: agentErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeBody reads a JSON body into dst. An empty body is accepted when
// optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return agenterrors.InvalidRequest("The request body could not be parsed", err.Error())
	}
	return nil
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func setCookies(w http.ResponseWriter, headers []string) {
	for _, h := range headers {
		w.Header().Add("Set-Cookie", h)
	}
}
