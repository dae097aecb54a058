package api

import (
	"context"
	"net/http"

	"github.com/medibook/hospital-api/internal/auth"
	"github.com/medibook/hospital-api/internal/profile"
)

const actorKey contextKey = "actor"

// ActorMiddleware resolves the verified token claims into an Actor once
// per request. It runs after the auth middleware, so missing claims
// mean a routing mistake rather than a bad token.
func ActorMiddleware(profiles *profile.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
				return
			}

			actor, err := profiles.ResolveActor(r.Context(), claims)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "could not resolve account")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFrom(r *http.Request) auth.Actor {
	actor, _ := r.Context().Value(actorKey).(auth.Actor)
	return actor
}
