/*
auth.go - Session resolution for API requests

PURPOSE:
  Every /api route needs an authenticated session (user id + role). The
  session comes from an HS256 bearer token; in development a caller may
  instead send X-User-ID / X-User-Role headers when DevBypass is on.

TOKEN CLAIMS:
  {"user_id": "...", "role": "dietitian", "iss": "...", "exp": ...}

SEE ALSO:
  - generic/session.go: Session, Role
  - server.go: middleware wiring
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtps/mealplan-engine/generic"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingUser  = errors.New("missing user_id in claims")
)

const (
	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
	devUserHeader = "X-User-ID"
	devRoleHeader = "X-User-Role"
)

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string       `json:"user_id"`
	Role   generic.Role `json:"role"`
}

// Authenticator issues and validates session tokens.
type Authenticator struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	devBypass bool
}

// NewAuthenticator creates an authenticator. devBypass enables header-based
// sessions and must stay off in production.
func NewAuthenticator(secret, issuer string, devBypass bool) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		issuer:    issuer,
		ttl:       12 * time.Hour,
		devBypass: devBypass,
	}
}

// IssueToken signs a session token for the user.
func (a *Authenticator) IssueToken(userID string, role generic.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Role:   role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken parses a token and returns its session.
func (a *Authenticator) ValidateToken(tokenString string) (generic.Session, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return generic.Session{}, ErrExpiredToken
		}
		return generic.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return generic.Session{}, ErrInvalidToken
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return generic.Session{}, ErrMissingUser
	}
	return generic.Session{UserID: userID, Role: claims.Role}, nil
}

// Middleware resolves the session or answers 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.sessionFrom(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (a *Authenticator) sessionFrom(r *http.Request) (generic.Session, error) {
	if header := r.Header.Get(authHeaderKey); header != "" {
		if !strings.HasPrefix(header, bearerPrefix) {
			return generic.Session{}, ErrInvalidToken
		}
		return a.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
	}
	if a.devBypass {
		if user := r.Header.Get(devUserHeader); user != "" {
			role := generic.Role(r.Header.Get(devRoleHeader))
			if role == "" {
				role = generic.RoleDietitian
			}
			return generic.Session{UserID: user, Role: role}, nil
		}
	}
	return generic.Session{}, generic.ErrUnauthorized
}

type sessionKey struct{}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, s generic.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the request session, zero when unauthenticated.
func SessionFrom(ctx context.Context) generic.Session {
	s, _ := ctx.Value(sessionKey{}).(generic.Session)
	return s
}

// RequireRole answers 403 unless the session has one of roles.
func RequireRole(roles ...generic.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFrom(r.Context())
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Forbidden", generic.ErrForbidden)
		})
	}
}
