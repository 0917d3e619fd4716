package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bookinghub/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the authenticated identity the booking flow needs: who is booking
// and where confirmations go.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

type contextKey struct{}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}

// WithUser returns a context carrying the given user. Exposed for tests.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// IssueToken signs a session token for the given profile.
func IssueToken(secret string, profile *db.Profile, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   profile.ID.String(),
		"email": profile.Email,
		"name":  profile.FullName,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Middleware validates a Bearer token and stores the user on the request
// context. Requests without a valid token are rejected; handlers that allow
// anonymous access are simply not mounted behind it.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			sub, _ := claims["sub"].(string)
			id, err := uuid.Parse(sub)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			email, _ := claims["email"].(string)
			name, _ := claims["name"].(string)

			ctx := WithUser(r.Context(), &User{ID: id, Email: email, Name: name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
