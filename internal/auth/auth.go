// Package auth stores the bearer token the remote backend sends.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	credFileName = "credentials.json"
	DefaultEnv   = "TADA_TOKEN"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional (JWT or server-provided)
}

// Store reads the token from an env var first, then from <Dir>/credentials.json.
type Store struct {
	Dir    string
	EnvVar string
}

// DefaultDir is ~/.tada.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, EnvVar: DefaultEnv}
}

func (s *Store) credFilePath() (string, error) {
	if s.Dir == "" {
		return "", errors.New("credentials dir is empty")
	}
	return filepath.Join(s.Dir, credFileName), nil
}

// Get returns nil, nil when no token is configured.
func (s *Store) Get() (*TokenInfo, error) {
	// 1) env override
	if s.EnvVar != "" {
		if env := strings.TrimSpace(os.Getenv(s.EnvVar)); env != "" {
			ti := &TokenInfo{Token: stripBearer(env), Source: "env"}
			ti.ExpiresAt = expiryOf(ti.Token)
			return ti, nil
		}
	}

	// 2) file
	p, err := s.credFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// BearerToken satisfies api.TokenSource.
func (s *Store) BearerToken() (string, error) {
	ti, err := s.Get()
	if err != nil || ti == nil {
		return "", err
	}
	return ti.Token, nil
}

// Set writes the token with 0600 permissions. A nil expires is filled from
// the JWT exp claim when the token is a JWT.
func (s *Store) Set(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	p, err := s.credFilePath()
	if err != nil {
		return err
	}
	// ensure the dir exists with 0700
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if expires == nil {
		expires = expiryOf(token)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *Store) Delete() error {
	p, err := s.credFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
