package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := newIssuer()
	pair, err := ti.Issue("user-1", RoleParent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ti.Parse(pair.AccessToken, TokenAccess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != RoleParent {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenIssuer_RejectsRefreshAsAccess(t *testing.T) {
	ti := newIssuer()
	pair, _ := ti.Issue("user-1", RoleParent)

	if _, err := ti.Parse(pair.RefreshToken, TokenAccess); err == nil {
		t.Fatal("expected refresh token to be rejected as access token")
	}
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	pair, _ := newIssuer().Issue("user-1", RoleParent)
	other := NewTokenIssuer("other-secret", time.Hour, 24*time.Hour)
	if _, err := other.Parse(pair.AccessToken, TokenAccess); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestTokenIssuer_Refresh(t *testing.T) {
	ti := newIssuer()
	pair, _ := ti.Issue("user-1", RoleDoctor)

	renewed, err := ti.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := ti.Parse(renewed.AccessToken, TokenAccess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("expected doctor role preserved, got %s", claims.Role)
	}
}

func TestHashPassword_RejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "correct-horse-battery") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong-password-here") {
		t.Error("expected wrong password to fail")
	}
}

// -- Middleware + guard --

type mapLoader struct {
	principals map[string]*Principal
	failFor    string
}

func (m *mapLoader) LoadPrincipal(_ context.Context, userID string) (*Principal, error) {
	if userID == m.failFor {
		return nil, fmt.Errorf("storage unavailable")
	}
	return m.principals[userID], nil
}

func runGuarded(t *testing.T, token string, loader ProfileLoader, allowed ...string) (int, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := http.StatusTeapot
	h := Middleware(sharedIssuer, loader, zerolog.Nop())(
		RequireRole(allowed...)(func(c echo.Context) error {
			called = http.StatusOK
			return c.NoContent(http.StatusOK)
		}))
	err := h(c)
	if err == nil {
		return called, nil
	}
	return called, err
}

var sharedIssuer = newIssuer()

func TestGuard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	_, err := runGuarded(t, "", &mapLoader{}, RoleParent)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	body, _ := he.Message.(map[string]string)
	if body["redirect"] != "/login" {
		t.Errorf("expected /login redirect, got %q", body["redirect"])
	}
}

func TestGuard_DisallowedRolesNeverRender(t *testing.T) {
	loader := &mapLoader{principals: map[string]*Principal{}}
	for _, role := range []string{RoleDoctor, RoleParent} {
		pair, _ := sharedIssuer.Issue("u-"+role, role)
		loader.principals["u-"+role] = &Principal{ID: "u-" + role, Role: role}

		// Guard allows only the other role.
		allowed := RoleParent
		if role == RoleParent {
			allowed = RoleDoctor
		}

		called, err := runGuarded(t, pair.AccessToken, loader, allowed)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403, got %v", role, err)
		}
		if called == http.StatusOK {
			t.Errorf("role %s: protected handler must not run", role)
		}
		body, _ := he.Message.(map[string]string)
		if body["redirect"] != LandingRoute(role) {
			t.Errorf("role %s: expected redirect %s, got %s", role, LandingRoute(role), body["redirect"])
		}
	}
}

func TestGuard_AdminPassesEveryGate(t *testing.T) {
	pair, _ := sharedIssuer.Issue("u-admin", RoleAdmin)
	loader := &mapLoader{principals: map[string]*Principal{
		"u-admin": {ID: "u-admin", Role: RoleAdmin},
	}}

	called, err := runGuarded(t, pair.AccessToken, loader, RoleParent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != http.StatusOK {
		t.Error("expected handler to run for admin")
	}
}

func TestMiddleware_ProfileFetchFailureTreatedAsNoProfile(t *testing.T) {
	pair, _ := sharedIssuer.Issue("u-broken", RoleParent)
	loader := &mapLoader{failFor: "u-broken"}

	_, err := runGuarded(t, pair.AccessToken, loader, RoleParent)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when profile fetch fails, got %v", err)
	}
}

func TestMiddleware_InvalidTokenRejected(t *testing.T) {
	_, err := runGuarded(t, "not-a-token", &mapLoader{}, RoleParent)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %v", err)
	}
}
