// Package guard decides whether a protected view may render.
package guard

import "github.com/binhbb2204/bookhub/internal/api"

type Decision int

const (
	// Pending means the stored session is still being validated; show a
	// loading placeholder.
	Pending Decision = iota
	Allow
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Route is the view a redirect decision points to, or "".
func (d Decision) Route() string {
	switch d {
	case RedirectLogin:
		return api.LoginRoute
	case RedirectUnauthorized:
		return api.UnauthorizedRoute
	default:
		return ""
	}
}

// SessionState is implemented by *session.Store.
type SessionState interface {
	Loading() bool
	IsAuthenticated() bool
	IsAdmin() bool
}

type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

func ParseLevel(s string) Level {
	switch s {
	case "auth":
		return Authenticated
	case "admin":
		return Admin
	default:
		return Public
	}
}

func (l Level) String() string {
	switch l {
	case Authenticated:
		return "auth"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

func RequireAuth(s SessionState) Decision {
	if s.Loading() {
		return Pending
	}
	if !s.IsAuthenticated() {
		return RedirectLogin
	}
	return Allow
}

func RequireAdmin(s SessionState) Decision {
	if d := RequireAuth(s); d != Allow {
		return d
	}
	if !s.IsAdmin() {
		return RedirectUnauthorized
	}
	return Allow
}

// Check applies the guard for level.
func Check(level Level, s SessionState) Decision {
	switch level {
	case Authenticated:
		return RequireAuth(s)
	case Admin:
		return RequireAdmin(s)
	default:
		return Allow
	}
}
