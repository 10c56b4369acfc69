package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func invokeWithToken(t *testing.T, token string) (error, bool, uuid.UUID) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	var gotID uuid.UUID
	handler := RequireUser(func(c echo.Context) error {
		called = true
		id, err := UserID(c)
		if err != nil {
			t.Errorf("UserID after RequireUser: %v", err)
		}
		gotID = id
		return c.NoContent(http.StatusOK)
	})

	return handler(c), called, gotID
}

func TestRequireUserAcceptsIssuedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	token, err := generateToken(userID)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	err, called, gotID := invokeWithToken(t, token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}
	if gotID != userID {
		t.Errorf("context user = %s, want %s", gotID, userID)
	}
}

func TestRequireUserRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	secret, err := jwtSecretFromEnv()
	if err != nil {
		t.Fatalf("jwtSecretFromEnv: %v", err)
	}

	sign := func(claims jwt.RegisteredClaims, key []byte) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		if err != nil {
			t.Fatalf("signing test token: %v", err)
		}
		return s
	}

	now := time.Now()
	expired := sign(jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}, secret)
	wrongIssuer := sign(jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, secret)
	wrongKey := sign(jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, []byte("not-the-secret"))
	badSubject := sign(jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, secret)

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not.a.jwt"},
		{"expired", expired},
		{"wrong issuer", wrongIssuer},
		{"wrong key", wrongKey},
		{"non-uuid subject", badSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err, called, _ := invokeWithToken(t, tt.token)
			if called {
				t.Fatal("handler invoked for rejected token")
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", httpErr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestUserIDWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, err := UserID(c); err == nil {
		t.Error("expected error when no user is on the context")
	}
}
