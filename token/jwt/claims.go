package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	ErrMalformedJWT = errors.New("token is not a three part JWT")
	ErrNotAnObject  = errors.New("token payload is not a JSON object")
)

// DecodeUnverified returns the payload of a compact JWS without checking the
// signature. Only use it for tokens received over the back channel.
func DecodeUnverified(rawToken string) (map[string]any, error) {
	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedJWT
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if claims == nil {
		return nil, ErrNotAnObject
	}
	return claims, nil
}
