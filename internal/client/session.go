package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the client-side login state: the bearer token plus what the
// client may show about it without asking the server.
type Session struct {
	BaseURL   string    `json:"baseUrl,omitempty"`
	Token     string    `json:"token,omitempty"`
	UserID    int64     `json:"userId,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Active reports whether the session holds a token that has not yet expired.
func (s Session) Active(now time.Time) bool {
	return s.Token != "" && (s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt))
}

// IsAdmin is a display hint only; the server decides.
func (s Session) IsAdmin() bool {
	return s.Role == "admin"
}

// SessionFromToken reads the claims without verifying the signature; the
// client never holds the signing key.
func SessionFromToken(baseURL, token string) (Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}

	s := Session{BaseURL: baseURL, Token: token}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.UserID, _ = strconv.ParseInt(sub, 10, 64)
	}
	if role, ok := claims["role"].(string); ok {
		s.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	return s, nil
}

// SessionFile persists a Session as JSON on disk.
type SessionFile struct {
	path string
}

func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// DefaultSessionPath is $XDG_CONFIG_HOME/recipehub/session.json (or the OS equivalent).
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "recipehub", "session.json"), nil
}

func (f *SessionFile) Path() string {
	return f.path
}

// Load returns an empty session when no file exists yet.
func (f *SessionFile) Load() (Session, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (f *SessionFile) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// the token is a credential
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *SessionFile) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
