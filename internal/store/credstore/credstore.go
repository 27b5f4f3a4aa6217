// Package credstore keeps the session credentials of the meal-planning
// server in a small JSON file under the user's home directory.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	credFileName = "credentials.json"
	EnvToken     = "THEMENU_CSRF_TOKEN"

	lockRetry   = 50 * time.Millisecond
	lockTimeout = 5 * time.Second
)

var ErrLocked = errors.New("credentials file is locked by another process")

type Credentials struct {
	BaseURL   string    `json:"base_url,omitempty"`
	CSRFToken string    `json:"csrf_token"`
	SessionID string    `json:"session_id,omitempty"`
	Source    string    `json:"source"`     // "env" | "file"
	CreatedAt time.Time `json:"created_at"` // when we saved to file
}

// Store reads and writes credentials in Dir. The zero value uses ~/.themenu.
type Store struct {
	Dir string
}

func (s Store) dir() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".themenu"), nil
}

func (s Store) Path() (string, error) {
	dir, err := s.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// Get returns the env override if set, else the saved file, else nil.
func (s Store) Get() (*Credentials, error) {
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return &Credentials{CSRFToken: env, Source: "env"}, nil
	}
	p, err := s.Path()
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
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	c.Source = "file"
	return &c, nil
}

// Save writes c with owner-only permissions.
func (s Store) Save(ctx context.Context, c Credentials) error {
	c.CSRFToken = strings.TrimSpace(c.CSRFToken)
	if c.CSRFToken == "" {
		return fmt.Errorf("empty token")
	}
	dir, err := s.dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	c.Source = "file"
	c.CreatedAt = time.Now()
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.locked(ctx, func(p string) error {
		tmp := p + ".tmp"
		if err := os.WriteFile(tmp, b, 0o600); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if err := os.Rename(tmp, p); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
		return nil
	})
}

func (s Store) Delete(ctx context.Context) error {
	return s.locked(ctx, func(p string) error {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove: %w", err)
		}
		return nil
	})
}

func (s Store) locked(ctx context.Context, fn func(path string) error) error {
	p, err := s.Path()
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Dir(p)); errors.Is(err, os.ErrNotExist) {
		return fn(p)
	}
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	fl := flock.New(p + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock credentials: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer fl.Unlock()
	return fn(p)
}
