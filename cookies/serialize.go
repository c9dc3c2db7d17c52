package cookies

import (
	"net/http"
	"time"
)

// UnsetExpiresInSeconds moves the expiry a day into the past.
const UnsetExpiresInSeconds = -86400

// Attributes are the cookie attributes applied when serializing. HttpOnly is
// always set.
type Attributes struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite

	// ExpiresInSeconds: nil is a session cookie, 0 expires immediately,
	// positive values set both Max-Age and Expires.
	ExpiresInSeconds *int
}

// WithPath returns a copy of the attributes scoped to path
func (a Attributes) WithPath(path string) Attributes {
	a.Path = path
	return a
}

// WithExpiresIn returns a copy of the attributes with the given lifetime
func (a Attributes) WithExpiresIn(seconds int) Attributes {
	a.ExpiresInSeconds = &seconds
	return a
}

// Serialize renders a Set-Cookie header value.
func (c *Codec) Serialize(name, value string, attrs Attributes) string {
	return serialize(name, value, attrs, c.nowTime())
}

func serialize(name, value string, attrs Attributes, now time.Time) string {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   attrs.Domain,
		Path:     attrs.Path,
		Secure:   attrs.Secure,
		HttpOnly: true,
		SameSite: attrs.SameSite,
	}

	if attrs.ExpiresInSeconds != nil {
		seconds := *attrs.ExpiresInSeconds
		switch {
		case seconds > 0:
			cookie.MaxAge = seconds
			cookie.Expires = now.Add(time.Duration(seconds) * time.Second).UTC()
		case seconds == 0:
			cookie.MaxAge = -1
			cookie.Expires = time.Unix(0, 0).UTC()
		default:
			cookie.MaxAge = -1
			cookie.Expires = now.Add(time.Duration(seconds) * time.Second).UTC()
		}
	}

	return cookie.String()
}
