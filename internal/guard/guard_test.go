package guard

import "testing"

type state struct {
	loading, authed, admin bool
}

func (s state) Loading() bool         { return s.loading }
func (s state) IsAuthenticated() bool { return s.authed }
func (s state) IsAdmin() bool         { return s.admin }

func TestGuards(t *testing.T) {
	tests := []struct {
		name      string
		state     state
		wantAuth  Decision
		wantAdmin Decision
	}{
		{"validating", state{loading: true}, Pending, Pending},
		{"anonymous", state{}, RedirectLogin, RedirectLogin},
		{"reader", state{authed: true}, Allow, RedirectUnauthorized},
		{"admin", state{authed: true, admin: true}, Allow, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequireAuth(tt.state); got != tt.wantAuth {
				t.Errorf("RequireAuth = %v, want %v", got, tt.wantAuth)
			}
			if got := RequireAdmin(tt.state); got != tt.wantAdmin {
				t.Errorf("RequireAdmin = %v, want %v", got, tt.wantAdmin)
			}
			if got := Check(Public, tt.state); got != Allow {
				t.Errorf("Check(Public) = %v, want allow", got)
			}
		})
	}
}

func TestDecisionRoute(t *testing.T) {
	if RedirectLogin.Route() != "/login" {
		t.Fatalf("unexpected login route %q", RedirectLogin.Route())
	}
	if RedirectUnauthorized.Route() != "/unauthorized" {
		t.Fatalf("unexpected unauthorized route %q", RedirectUnauthorized.Route())
	}
	if Allow.Route() != "" {
		t.Fatalf("allow should not redirect")
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{Public, Authenticated, Admin} {
		if got := ParseLevel(l.String()); got != l {
			t.Errorf("ParseLevel(%q) = %v", l.String(), got)
		}
	}
}
