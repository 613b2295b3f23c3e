// Package auth is the in-process face of the identity collaborator:
// it verifies owner bearer tokens and exposes the verified restaurant
// identity to handlers. Token issuance lives elsewhere.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var identityKey contextKey

// reissue window: tokens closer to expiry than this get a fresh one
const refreshWindow = 5 * time.Minute

const tokenTTL = time.Hour

// Claims carries the owner identity. RestaurantID is the scoping key for
// every restaurant-filtered query and ledger operation.
type Claims struct {
	Role         string `json:"role"`
	RestaurantID string `json:"restaurantId"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

func NewMiddleware(secret []byte, logger *slog.Logger) *Middleware {
	return &Middleware{
		secret: secret,
		logger: logger,
		now:    time.Now,
	}
}

// Require wraps a handler so it only runs with a valid bearer token. A
// token inside the refresh window gets a replacement via X-New-Token,
// matching what the dashboard client expects.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			m.unauthorized(w)
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !parsed.Valid {
			m.logger.Info("rejected token", "error", err)
			m.unauthorized(w)
			return
		}

		if claims.RestaurantID == "" {
			claims.RestaurantID = claims.Subject
		}
		if claims.RestaurantID == "" {
			m.unauthorized(w)
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Sub(m.now()) < refreshWindow {
			if fresh, err := m.issue(claims); err == nil {
				w.Header().Set("X-New-Token", fresh)
			} else {
				m.logger.Error("failed to reissue token", "error", err)
			}
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.RestaurantID)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) issue(old *Claims) (string, error) {
	claims := &Claims{
		Role:         old.Role,
		RestaurantID: old.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   old.Subject,
			ExpiresAt: jwt.NewNumericDate(m.now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(m.now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Middleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication failed"})
}

// RestaurantID returns the verified restaurant identity set by Require.
func RestaurantID(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}
