package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
)

// UserIDHeader carries the acting user when token auth is disabled.
const UserIDHeader = "X-User-ID"

// AuthConfig configures the identity boundary in front of the studio routes.
// An empty Secret switches to header-based identity for local development.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Claims are the token claims the studio understands. The acting user is
// taken from user_id, falling back to sub.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Auth resolves the acting user id and stores it in the request context.
// Requests without a usable identity get 401.
func Auth(cfg AuthConfig, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveUser(cfg, r)
			if err != nil {
				HandleError(w, r, log, err)
				return
			}

			ctx := logger.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveUser(cfg AuthConfig, r *http.Request) (string, error) {
	if cfg.Secret == "" {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			return "", errors.Unauthorized("missing " + UserIDHeader + " header")
		}
		return userID, nil
	}

	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.Unauthorized("missing bearer token")
	}

	claims, err := ParseToken(cfg, strings.TrimSpace(token))
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUnauthorized, "auth.parse", "invalid token")
	}
	return claims.subject(), nil
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(cfg AuthConfig, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if claims.subject() == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// SignToken issues an HS256 token for userID valid for ttl.
func SignToken(cfg AuthConfig, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
