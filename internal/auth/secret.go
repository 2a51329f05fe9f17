// Package auth implements the shared-secret gate guarding edit and delete of
// historical closing records.
//
// The gate is deliberately a collaborator interface: the store enforces that
// it returns granted before mutating, but never decides policy itself. The
// default implementation compares candidates against a bcrypt hash from
// configuration, so the plaintext secret never lives in the process
// environment.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrDenied is returned for any candidate that does not match the secret.
var ErrDenied = errors.New("authorization denied")

// Authorizer gates a mutation on a shared-secret check.
type Authorizer interface {
	// Authorize returns nil when candidate is accepted, ErrDenied otherwise.
	Authorize(candidate string) error
}

// SecretGate checks candidates against a bcrypt hash.
type SecretGate struct {
	hash []byte
}

// NewSecretGate creates a gate from a bcrypt hash string. An empty hash
// yields a gate that denies everything, which is the safe default for
// deployments that have not configured a secret yet.
func NewSecretGate(hash string) *SecretGate {
	return &SecretGate{hash: []byte(hash)}
}

// HashSecret produces a bcrypt hash suitable for the EDIT_SECRET_HASH
// configuration value.
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (g *SecretGate) Authorize(candidate string) error {
	if len(g.hash) == 0 {
		return ErrDenied
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(candidate)); err != nil {
		return ErrDenied
	}
	return nil
}
