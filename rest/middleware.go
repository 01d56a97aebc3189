package rest

import (
	"net/http"
	"strings"

	"github.com/mohitkumar/quorum/auth"
)

// actorMiddleware resolves the calling identity from the X-Profile-Id and
// X-Roles headers and binds it to the request context. Requests without a
// profile are rejected before they reach a handler.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profileId := r.Header.Get("X-Profile-Id")
		if profileId == "" {
			respondWithError(w, http.StatusUnauthorized, "missing X-Profile-Id header")
			return
		}
		var roles []string
		if raw := r.Header.Get("X-Roles"); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, role)
				}
			}
		}
		actor := &auth.Actor{ProfileId: profileId, Roles: roles}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}
