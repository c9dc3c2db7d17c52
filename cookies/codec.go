// Package cookies implements the encrypted cookie format that carries all
// session state between the SPA and the agent.
//
// A cookie value is base64url-no-pad(version || nonce || ciphertext+tag),
// sealed with AES-256-GCM under a key held only in process memory.
package cookies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
)

const (
	VersionSize    = 1
	NonceSize      = 12
	TagSize        = 16
	CurrentVersion = byte(1)
	KeySize        = 32
)

// errMalformed covers every structural problem with a cookie value so that
// decoding, length and version failures look identical to callers.
var errMalformed = errors.New("malformed cookie value")

// Codec encrypts, decrypts and serializes cookies. It is safe for
// concurrent use and holds no per-request state.
type Codec struct {
	aead    cipher.AEAD
	random  io.Reader
	nowTime func() time.Time
}

type Option func(*Codec)

// WithRandom replaces the nonce source. Only tests should use this.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		c.random = r
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

func NewCodec(key []byte, opts ...Option) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes for AES-256, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	c := &Codec{
		aead:    aead,
		random:  rand.Reader,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	buf := make([]byte, VersionSize+NonceSize, VersionSize+NonceSize+len(plaintext)+TagSize)
	buf[0] = CurrentVersion

	nonce := buf[VersionSize : VersionSize+NonceSize]
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(buf, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Every failure is reported as
// the same CookieDecryptionFailure.
func (c *Codec) Decrypt(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", agenterrors.CookieDecryption(errMalformed)
	}

	if len(raw) < VersionSize+NonceSize+TagSize {
		return "", agenterrors.CookieDecryption(errMalformed)
	}

	if raw[0] != CurrentVersion {
		return "", agenterrors.CookieDecryption(errMalformed)
	}

	nonce := raw[VersionSize : VersionSize+NonceSize]
	ciphertext := raw[VersionSize+NonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", agenterrors.CookieDecryption(err)
	}
	return string(plaintext), nil
}

// EncryptedCookie encrypts value and returns the Set-Cookie header for it.
func (c *Codec) EncryptedCookie(name, value string, attrs Attributes) (string, error) {
	encrypted, err := c.Encrypt(value)
	if err != nil {
		return "", err
	}
	return c.Serialize(name, encrypted, attrs), nil
}

// UnsetCookie returns a Set-Cookie header that removes the named cookie.
func (c *Codec) UnsetCookie(name string, attrs Attributes) string {
	return c.Serialize(name, "", attrs.WithExpiresIn(UnsetExpiresInSeconds))
}
