// Package auth models the bearer credential attached to calls made on behalf
// of a user. Token acquisition and refresh happen elsewhere; here a credential
// is an opaque string.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrNoCredential is returned when no bearer credential is available.
var ErrNoCredential = errors.New("no bearer credential")

// Credential is an opaque bearer token.
type Credential string

// Source provides the credential of the current caller.
type Source interface {
	Credential(ctx context.Context) (Credential, error)
}

// Static is a Source that always returns the same credential.
type Static Credential

// Credential implements Source.
func (s Static) Credential(context.Context) (Credential, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return Credential(s), nil
}

type credentialKey struct{}

// WithCredential returns a context carrying c.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

// FromContext is a Source reading the credential stored by WithCredential.
type FromContext struct{}

// Credential implements Source.
func (FromContext) Credential(ctx context.Context) (Credential, error) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	if !ok || c == "" {
		return "", ErrNoCredential
	}
	return c, nil
}

// Hasher derives stable owner identifiers from credentials with HMAC-SHA256,
// so that raw tokens are never stored.
type Hasher struct {
	pepper []byte
}

// NewHasher returns a Hasher keyed with pepper.
func NewHasher(pepper []byte) *Hasher {
	return &Hasher{pepper: pepper}
}

// Hash returns the hex-encoded HMAC of c.
func (h *Hasher) Hash(c Credential) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(c))
	return hex.EncodeToString(mac.Sum(nil))
}

// SameOwner compares two hex owner hashes in constant time.
func SameOwner(a, b string) bool {
	ab, err := hex.DecodeString(a)
	if err != nil {
		return false
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}
