package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sample-logistics/internal/app"
)

type actorKey struct{}

// actorFromContext returns the authenticated actor stored in ctx.
func actorFromContext(ctx context.Context) (app.Actor, bool) {
	v, ok := ctx.Value(actorKey{}).(app.Actor)
	return v, ok
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	StoreID     int64  `json:"store_id,omitempty"`
	WarehouseID int64  `json:"warehouse_id,omitempty"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token carrying actor's identity and scope.
func SignToken(secret string, actor app.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:      actor.UserID,
		Role:        string(actor.Role),
		StoreID:     actor.StoreID,
		WarehouseID: actor.WarehouseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", actor.UserID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseToken validates raw and returns the actor it identifies.
func parseToken(secret, raw string) (app.Actor, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return app.Actor{}, err
	}
	if !token.Valid {
		return app.Actor{}, fmt.Errorf("token is not valid")
	}
	role, err := app.ParseRole(claims.Role)
	if err != nil {
		return app.Actor{}, err
	}
	return app.Actor{
		UserID:      claims.UserID,
		Role:        role,
		StoreID:     claims.StoreID,
		WarehouseID: claims.WarehouseID,
	}, nil
}

// bearerToken reads the token from the Authorization header, falling back to the
// auth_token cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth is chi middleware that validates the caller's token and injects the
// actor into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		actor, err := parseToken(h.jwtSecret, raw)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// me handles GET /api/auth/me, echoing the caller's identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	type meResponse struct {
		UserID      int64  `json:"user_id"`
		Role        string `json:"role"`
		StoreID     int64  `json:"store_id,omitempty"`
		WarehouseID int64  `json:"warehouse_id,omitempty"`
	}
	writeJSON(w, meResponse{
		UserID:      actor.UserID,
		Role:        string(actor.Role),
		StoreID:     actor.StoreID,
		WarehouseID: actor.WarehouseID,
	})
}
