// Package apikey generates and verifies TPMJS API keys.
//
// A key has the form tpm_<prefix>_<secret>. The prefix is stored in clear for
// lookup; only the SHA-256 digest of the full key is persisted. The raw key
// is shown to the user exactly once, at creation time.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

const (
	keyScheme    = "tpm"
	prefixBytes  = 5
	secretBytes  = 20
	keySeparator = "_"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrMalformedKey is returned when a presented key does not have the
// tpm_<prefix>_<secret> shape.
var ErrMalformedKey = errors.New("malformed API key")

// Generate returns a new raw key, its lookup prefix, and its digest.
func Generate() (raw, prefix, digest string, err error) {
	buf := make([]byte, prefixBytes+secretBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", "", "", err
	}

	prefix = strings.ToLower(encoding.EncodeToString(buf[:prefixBytes]))
	secret := strings.ToLower(encoding.EncodeToString(buf[prefixBytes:]))

	raw = strings.Join([]string{keyScheme, prefix, secret}, keySeparator)
	return raw, prefix, Digest(raw), nil
}

// Digest returns the hex SHA-256 digest of a raw key.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Prefix extracts the lookup prefix from a presented raw key.
func Prefix(raw string) (string, error) {
	parts := strings.Split(raw, keySeparator)
	if len(parts) != 3 || parts[0] != keyScheme || parts[1] == "" || parts[2] == "" {
		return "", ErrMalformedKey
	}
	return parts[1], nil
}

// Verify compares a presented raw key against a stored digest in constant
// time.
func Verify(raw, storedDigest string) bool {
	presented := Digest(raw)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedDigest)) == 1
}
