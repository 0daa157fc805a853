package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, expires, err := issuer.Issue(Identity{UserID: 42, Email: "a@b.c", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Error("expected expiry in the future")
	}

	id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if id.UserID != 42 || id.Email != "a@b.c" || id.Role != RoleAdmin {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue(Identity{UserID: 1, Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("other-secret", time.Hour).Issue(Identity{UserID: 1, Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := NewTokenIssuer(testSecret, time.Hour).Parse(token); err == nil {
		t.Error("expected signature mismatch to be rejected")
	}
}

func TestTokenIssuer_RejectsUnknownRole(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "mdt",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "superuser",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenIssuer(testSecret, time.Hour).Parse(token); err == nil {
		t.Error("expected unknown role to be rejected")
	}
}

func TestTokenIssuer_Authenticate(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, _, err := issuer.Issue(Identity{UserID: 7, Email: "u@x.y", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		wantID int64
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, 7},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) }, 7},
		{"session cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, 7},
		{"no credentials", func(r *http.Request) {}, 0},
		{"basic auth", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }, 0},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-token") }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)

			id := issuer.Authenticate(req)
			if tt.wantID == 0 {
				if id != nil {
					t.Errorf("expected no identity, got %+v", id)
				}
				return
			}
			if id == nil || id.UserID != tt.wantID {
				t.Errorf("expected user %d, got %+v", tt.wantID, id)
			}
		})
	}
}
