// Package storage persists client state between runs, the way a browser keeps
// values in local storage. The session lives under two keys that are always
// written and cleared together.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/binhbb2204/bookhub/pkg/models"
)

const (
	TokenKey = "token"
	UserKey  = "user"
)

var ErrNoSession = errors.New("no stored session")

type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// SaveSession writes the bearer token and the serialized user.
func SaveSession(s Store, token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.Set(UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// SaveUser replaces the stored user record and keeps the token.
func SaveUser(s Store, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.Set(UserKey, string(data))
}

// LoadSession returns ErrNoSession unless both keys are present and the user
// record decodes.
func LoadSession(s Store) (string, models.User, error) {
	var user models.User
	token, ok, err := s.Get(TokenKey)
	if err != nil {
		return "", user, err
	}
	if !ok || token == "" {
		return "", user, ErrNoSession
	}
	raw, ok, err := s.Get(UserKey)
	if err != nil {
		return "", user, err
	}
	if !ok || raw == "" {
		return "", user, ErrNoSession
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", user, fmt.Errorf("%w: corrupt user record: %v", ErrNoSession, err)
	}
	if user.ID == 0 {
		return "", user, fmt.Errorf("%w: user record has no id", ErrNoSession)
	}
	return token, user, nil
}

// Token returns the stored bearer token, or "".
func Token(s Store) string {
	token, ok, err := s.Get(TokenKey)
	if err != nil || !ok {
		return ""
	}
	return token
}

func ClearSession(s Store) error {
	return s.Remove(TokenKey, UserKey)
}
