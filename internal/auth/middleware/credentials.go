package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sovereign-school/interactive-core/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Principal struct {
	Subject string
	Role    string
}

// CredentialProvider checks a username and password.
type CredentialProvider interface {
	Authenticate(ctx context.Context, username, password string) (Principal, error)
}

// StaticCredentials serves a fixed table of bcrypt-hashed logins from configuration.
type StaticCredentials struct {
	byUser map[string]config.Credential
}

func NewStaticCredentials(creds []config.Credential) *StaticCredentials {
	m := make(map[string]config.Credential, len(creds))
	for _, c := range creds {
		m[strings.ToLower(strings.TrimSpace(c.Username))] = c
	}
	return &StaticCredentials{byUser: m}
}

func (s *StaticCredentials) Authenticate(_ context.Context, username, password string) (Principal, error) {
	c, ok := s.byUser[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		// keep timing close to the found case
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3M9lLkD6mEdNQgGXHm3lZ5e"), []byte(password))
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Subject: c.Username, Role: c.Role}, nil
}
