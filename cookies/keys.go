package cookies

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"golang.org/x/crypto/pbkdf2"
)

// MinKDFIterations is the floor applied to configured PBKDF2 iteration counts
const MinKDFIterations = 100000

// KeyFromConfig returns the 32 byte cookie key, either decoded from hex or
// derived from a password with PBKDF2-HMAC-SHA256.
func KeyFromConfig(c config.CookieConfig) ([]byte, error) {
	if c.GetEncryptionKey() != "" {
		key, err := hex.DecodeString(c.GetEncryptionKey())
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex encryption key: %w", err)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
		}
		return key, nil
	}

	return DeriveKey(c.GetEncryptionPassword(), c.GetEncryptionSalt(), c.GetKDFIterations())
}

func DeriveKey(password, salt string, iterations int) ([]byte, error) {
	if password == "" || salt == "" {
		return nil, errors.New("password and salt are required for key derivation")
	}
	if iterations < MinKDFIterations {
		iterations = MinKDFIterations
	}
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, KeySize, sha256.New), nil
}
