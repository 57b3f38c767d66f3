// Package idempotency validates client supplied idempotency keys and scopes
// them to the operation they guard.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinKeyLength = 16
	MaxKeyLength = 128

	cacheNamespace = "storefront:idempotency"
)

var (
	ErrKeyTooShort = fmt.Errorf("idempotency key must be at least %d characters", MinKeyLength)
	ErrKeyTooLong  = fmt.Errorf("idempotency key must not exceed %d characters", MaxKeyLength)
	ErrKeyInvalid  = errors.New("idempotency key may only contain letters, digits, '-', '_', '.' and ':'")

	validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9._:\-]+$`)
)

// Key is an idempotency key that passed Parse.
type Key string

// Parse trims raw and checks its length and alphabet. Order numbers such as
// "order:2026-03-01.0001" are accepted as is.
func Parse(raw string) (Key, error) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case len(trimmed) < MinKeyLength:
		return "", ErrKeyTooShort
	case len(trimmed) > MaxKeyLength:
		return "", ErrKeyTooLong
	case !validKeyPattern.MatchString(trimmed):
		return "", ErrKeyInvalid
	}

	return Key(trimmed), nil
}

func (k Key) String() string {
	return string(k)
}

// Scope returns the cache entry name for k on one method and path. Reusing a
// key against another operation does not replay the first response.
func (k Key) Scope(method, path string) string {
	hash := sha256.Sum256([]byte(method + " " + path + " " + string(k)))

	return cacheNamespace + ":" + strings.ToLower(method) + ":" + hex.EncodeToString(hash[:])
}
