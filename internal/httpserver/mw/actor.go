package mw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

// ActorClaims are the bearer token claims identifying who mutates bookings.
type ActorClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// WithActor stores a in ctx.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor set by the Actor middleware, or the system
// actor when none was set.
func ActorFrom(ctx context.Context) domain.Actor {
	if a, ok := ctx.Value(actorKey{}).(domain.Actor); ok {
		return a
	}
	return domain.SystemActor
}

// Actor resolves the caller from an HS256 bearer token.
// If secret is empty, every request acts as the system actor.
func Actor(secret string, log logger.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Debug("Actor: no secret configured, requests act as system")
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), domain.SystemActor)))
			})
		}
	}

	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				log.Debugf("Actor: missing bearer token for %s %s", r.Method, r.URL.Path)
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			claims := &ActorClaims{}
			token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil || !token.Valid {
				log.Debug("Actor: invalid token", logger.Error(err))
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			actor := domain.Actor{ID: claims.Subject, Name: claims.Name, Role: claims.Role}
			if actor.Name == "" {
				actor.Name = actor.ID
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
