package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/model"
	"github.com/stretchr/testify/require"
)

func TestActorMiddleware(t *testing.T) {
	var captured *auth.Actor
	handler := actorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.FromContext(r.Context())
		require.NoError(t, err)
		captured = actor
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("test missing profile rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/instance/x", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("test actor bound from headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/instance/x", nil)
		req.Header.Set("X-Profile-Id", "user-1")
		req.Header.Set("X-Roles", "owner, reviewer")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", captured.ProfileId)
		require.Equal(t, []string{"owner", "reviewer"}, captured.Roles)
		require.True(t, captured.HasRole(auth.ROLE_OWNER))
	})
}

func TestDomainErrorMapping(t *testing.T) {
	for scenario, tc := range map[string]struct {
		err  error
		code int
	}{
		"test unauthorized": {model.UnauthorizedError{Message: "no"}, http.StatusUnauthorized},
		"test not found":    {model.NotFoundError{Entity: "instance", Id: "x"}, http.StatusNotFound},
		"test conflict":     {model.ConflictError{Message: "stale"}, http.StatusConflict},
		"test validation":   {model.ValidationError{Message: "blocked"}, http.StatusBadRequest},
	} {
		t.Run(scenario, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithDomainError(rec, tc.err)
			require.Equal(t, tc.code, rec.Code)
			require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}
