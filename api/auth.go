package api

import (
	// Go Internal Packages
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	// Local Packages
	config "cardflow/config"
	errors "cardflow/errors"

	// External Packages
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

type claimsKey struct{}

// ClaimsFrom returns the claims of the authenticated caller, or nil.
func ClaimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// Authenticator issues and verifies HS256 tokens for the users in the configuration.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	users  map[string]config.User
	now    func() time.Time
}

func NewAuthenticator(conf config.Auth) *Authenticator {
	return &Authenticator{
		secret: []byte(conf.JWTSecret),
		issuer: conf.Issuer,
		ttl:    conf.TokenTTL(),
		users:  conf.Users,
		now:    time.Now,
	}
}

// Login checks the credentials and returns a signed token whose subject is the user name.
func (a *Authenticator) Login(username, password string) (string, error) {
	user, ok := a.users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return "", errors.UnauthorizedErr("invalid credentials")
	}

	now := a.now()
	claims := &Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return nil, errors.E(errors.Unauthorized, "invalid token", err)
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			writeError(w, r, errors.UnauthorizedErr("bearer token required"))
			return
		}

		claims, err := a.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// RequireRole must run after Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil || !claims.HasRole(role) {
				writeError(w, r, errors.ForbiddenErr("role "+role+" required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIKey guards internal routes shared between services.
func RequireAPIKey(header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(header)), []byte(key)) != 1 {
				writeError(w, r, errors.UnauthorizedErr("invalid api key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *Authenticator) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Username == "" {
		writeError(w, r, errors.EmptyParamErr("username"))
		return
	}

	token, err := a.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
