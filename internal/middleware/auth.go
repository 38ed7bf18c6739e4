package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/postcraft/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type contextKey string

const accountIDKey contextKey = "accountID"

var errNoSubject = errors.New("token has no subject")

// Authenticator validates HS256 session tokens and tracks revoked ones in Redis.
type Authenticator struct {
	secret []byte
	redis  *redis.Client
	log    logrus.FieldLogger
}

// NewAuthenticator creates an authenticator. redisClient may be nil, in which
// case logout does not revoke anything.
func NewAuthenticator(secret string, redisClient *redis.Client, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{secret: []byte(secret), redis: redisClient, log: log}
}

// AccountIDFromContext returns the authenticated account id, or "" if none.
func AccountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// WithAccountID stores an account id in ctx.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "Authorization header required")
			return
		}

		claims, err := a.parse(tokenString)
		if err != nil {
			a.log.WithError(err).Debug("rejected session token")
			unauthorized(w, "Invalid token")
			return
		}

		if a.isRevoked(r.Context(), tokenString, claims) {
			unauthorized(w, "Session has been revoked")
			return
		}

		accountID, err := subject(claims)
		if err != nil {
			unauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
	})
}

// Revoke blacklists the request's token until it expires.
func (a *Authenticator) Revoke(ctx context.Context, r *http.Request) error {
	if a.redis == nil {
		return nil
	}
	tokenString, ok := bearerToken(r)
	if !ok {
		return errors.New("no bearer token")
	}
	claims, err := a.parse(tokenString)
	if err != nil {
		return err
	}

	ttl := 24 * time.Hour
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = time.Until(exp.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return a.redis.Set(ctx, revocationKey(tokenString, claims), "1", ttl).Err()
}

func (a *Authenticator) parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (a *Authenticator) isRevoked(ctx context.Context, tokenString string, claims jwt.MapClaims) bool {
	if a.redis == nil {
		return false
	}
	n, err := a.redis.Exists(ctx, revocationKey(tokenString, claims)).Result()
	if err != nil {
		// Revocation is best effort; an unreachable Redis does not lock users out.
		a.log.WithError(err).Warn("revocation check failed")
		return false
	}
	return n > 0
}

func revocationKey(tokenString string, claims jwt.MapClaims) string {
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		return "revoked:" + jti
	}
	sum := sha256.Sum256([]byte(tokenString))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// subject reads the account id from "sub", falling back to "user_id".
func subject(claims jwt.MapClaims) (string, error) {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	return "", errNoSubject
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, message string) {
	services.SendErrorResponse(w, services.NewAPIError(http.StatusUnauthorized, services.CodeAuthRequired, message))
}
