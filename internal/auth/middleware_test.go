package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, restaurantID string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		Role:         "owner",
		RestaurantID: restaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   restaurantID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newTestMiddleware() *Middleware {
	return NewMiddleware(testSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRequire(t *testing.T) {
	t.Run("passes restaurant id to handler", func(t *testing.T) {
		var got string
		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {
			got = RestaurantID(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "r-1", time.Hour))
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got != "r-1" {
			t.Errorf("expected restaurant id r-1, got %q", got)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "r-1", -time.Minute))
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		claims := &Claims{RestaurantID: "r-1", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("reissues token near expiry", func(t *testing.T) {
		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "r-1", 2*time.Minute))
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		fresh := rec.Header().Get("X-New-Token")
		if fresh == "" {
			t.Fatal("expected X-New-Token header")
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(fresh, claims, func(t *jwt.Token) (any, error) {
			return testSecret, nil
		}); err != nil {
			t.Fatalf("reissued token does not parse: %v", err)
		}
		if claims.RestaurantID != "r-1" {
			t.Errorf("reissued token restaurant id = %q", claims.RestaurantID)
		}
	})

	t.Run("no reissue for fresh token", func(t *testing.T) {
		handler := newTestMiddleware().Require(func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "r-1", time.Hour))
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Header().Get("X-New-Token") != "" {
			t.Error("did not expect X-New-Token header")
		}
	})
}
