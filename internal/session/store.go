// Package session holds the signed-in user for the lifetime of the client.
//
// The store mirrors the two persisted storage keys in memory. It is created
// once by the caller and passed by reference; nothing here is global.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/models"
)

var (
	ErrNotLoggedIn   = errors.New("You must be logged in")
	ErrAdminRequired = errors.New("Admin access required. Please use an admin account.")
)

// Backend is the slice of the API the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	DemoLogin(ctx context.Context, userType string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.UserResponse, error)
	ChangePassword(ctx context.Context, id int64, req models.ChangePasswordRequest) error
}

type clientBackend struct {
	c *api.Client
}

func (b clientBackend) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return b.c.Auth.Login(ctx, email, password)
}

func (b clientBackend) DemoLogin(ctx context.Context, userType string) (*models.AuthResponse, error) {
	return b.c.Auth.DemoLogin(ctx, userType)
}

func (b clientBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return b.c.Auth.Register(ctx, req)
}

func (b clientBackend) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return b.c.Users.Get(ctx, id)
}

func (b clientBackend) UpdateUser(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.UserResponse, error) {
	return b.c.Users.Update(ctx, id, req)
}

func (b clientBackend) ChangePassword(ctx context.Context, id int64, req models.ChangePasswordRequest) error {
	return b.c.Users.ChangePassword(ctx, id, req)
}

type Store struct {
	backend Backend
	storage storage.Store
	log     *logger.Logger

	mu            sync.RWMutex
	user          *models.User
	token         string
	authenticated bool
	loading       bool
	lastErr       string
}

type Option func(*Store)

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l.WithContext("component", "session") }
}

// New returns a store that reports Loading until Validate has run.
func New(backend Backend, st storage.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		storage: st,
		log:     logger.Nop(),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromClient wires the store to c and registers it for c's 401 teardown.
func NewFromClient(c *api.Client, st storage.Store, opts ...Option) *Store {
	s := New(clientBackend{c: c}, st, opts...)
	c.OnUnauthorized(s.HandleUnauthorized)
	return s
}

// Validate restores the persisted session and confirms it with the server.
// Any failure leaves the store logged out with storage cleared.
func (s *Store) Validate(ctx context.Context) error {
	token, user, err := storage.LoadSession(s.storage)
	if err != nil {
		switch {
		case err == storage.ErrNoSession:
			// nothing stored
		case errors.Is(err, storage.ErrNoSession):
			// LoadSession wraps ErrNoSession for a record that does not decode.
			s.log.Warn("stored_session_corrupt", "error", err.Error())
		default:
			s.log.Warn("session_load_failed", "error", err.Error())
		}
		s.clearStorage()
		s.setLoggedOut()
		return nil
	}

	fresh, err := s.backend.GetUser(ctx, user.ID)
	if err != nil {
		s.log.Info("session_validation_failed", "user_id", user.ID, "error", err.Error())
		s.clearStorage()
		s.setLoggedOut()
		return err
	}
	if err := storage.SaveUser(s.storage, *fresh); err != nil {
		s.log.Warn("session_persist_failed", "error", err.Error())
	}

	s.mu.Lock()
	s.user = fresh
	s.token = token
	s.authenticated = true
	s.loading = false
	s.mu.Unlock()
	s.log.Debug("session_restored", "user_id", fresh.ID)
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setErr("")
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.setErr(api.Message(err, "Login failed"))
		return err
	}
	return s.establish(res)
}

// AdminLogin is Login restricted to admin accounts. A non-admin account is
// rejected without being persisted.
func (s *Store) AdminLogin(ctx context.Context, email, password string) error {
	s.setErr("")
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.setErr(api.Message(err, "Admin login failed"))
		return err
	}
	if !res.User.IsAdmin() {
		s.setErr(ErrAdminRequired.Error())
		return ErrAdminRequired
	}
	return s.establish(res)
}

// DemoLogin signs in as the shared demo account for role.
func (s *Store) DemoLogin(ctx context.Context, role string) error {
	s.setErr("")
	res, err := s.backend.DemoLogin(ctx, role)
	if err != nil {
		s.setErr(api.Message(err, "Demo login failed"))
		return err
	}
	return s.establish(res)
}

func (s *Store) Register(ctx context.Context, req models.RegisterRequest) error {
	s.setErr("")
	res, err := s.backend.Register(ctx, req)
	if err != nil {
		s.setErr(api.Message(err, "Registration failed"))
		return err
	}
	return s.establish(res)
}

// Logout never touches the network.
func (s *Store) Logout() {
	s.clearStorage()
	s.setLoggedOut()
	s.setErr("")
	s.log.Info("logged_out")
}

// UpdateProfile replaces the session user with the server's copy. When the
// server does not echo the user back the submitted fields are merged locally.
func (s *Store) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) error {
	current := s.User()
	if current == nil {
		return ErrNotLoggedIn
	}
	s.setErr("")
	res, err := s.backend.UpdateUser(ctx, current.ID, req)
	if err != nil {
		s.setErr(api.Message(err, "Profile update failed"))
		return err
	}

	updated := *current
	if res != nil && res.User != nil {
		updated = *res.User
	} else {
		if v := strings.TrimSpace(req.Username); v != "" {
			updated.Username = v
		}
		if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" {
			updated.Email = v
		}
	}
	if err := storage.SaveUser(s.storage, updated); err != nil {
		s.log.Warn("session_persist_failed", "error", err.Error())
	}

	s.mu.Lock()
	s.user = &updated
	s.mu.Unlock()
	return nil
}

func (s *Store) ChangePassword(ctx context.Context, current, next string) error {
	u := s.User()
	if u == nil {
		return ErrNotLoggedIn
	}
	req := models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := validate.Struct(req); err != nil {
		s.setErr(err.Error())
		return err
	}
	s.setErr("")
	if err := s.backend.ChangePassword(ctx, u.ID, req); err != nil {
		s.setErr(api.Message(err, "Password change failed"))
		return err
	}
	s.log.Info("password_changed", "user_id", u.ID)
	return nil
}

// HandleUnauthorized drops the in-memory session after the API client has
// cleared storage on a 401.
func (s *Store) HandleUnauthorized() {
	s.setLoggedOut()
	s.setErr("Your session has expired. Please log in again.")
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.user != nil && s.user.IsAdmin()
}

// Loading is true until the first Validate completes.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err is the display message of the last failed operation.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// establish persists the session and then marks it live. A session that
// cannot be stored is not established.
func (s *Store) establish(res *models.AuthResponse) error {
	user := *res.User
	if err := storage.SaveSession(s.storage, res.Token, user); err != nil {
		s.log.Error("session_persist_failed", "error", err.Error())
		s.clearStorage()
		s.setLoggedOut()
		s.setErr("Could not save your session: " + err.Error())
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.mu.Lock()
	s.user = &user
	s.token = res.Token
	s.authenticated = true
	s.loading = false
	s.mu.Unlock()
	s.log.Info("logged_in", "user_id", user.ID, "role", user.Role)
	return nil
}

func (s *Store) setLoggedOut() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *Store) clearStorage() {
	if err := storage.ClearSession(s.storage); err != nil {
		s.log.Error("clear_session_failed", "error", err.Error())
	}
}
