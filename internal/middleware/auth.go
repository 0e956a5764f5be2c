package middleware

import (
	"net/http"
	"strings"

	"mooki/internal/auth"
	"mooki/internal/domain/models"
	"mooki/internal/httputil"
)

// Auth validates the bearer token on every request and stamps the
// resulting actor into the request context. Requests without a valid
// token are rejected before reaching any handler.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Liveness probes carry no credentials
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			actor := &models.Actor{ID: claims.Subject, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(httputil.WithActor(r.Context(), actor)))
		})
	}
}
