package auth

import (
	"net/http"
	"strings"

	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
)

// Verifier checks a bearer token. identity.LocalProvider implements it.
type Verifier interface {
	Verify(token string) (identity.Claims, error)
}

// RequireBearer rejects requests without a valid "Authorization: Bearer"
// token with 401 and stores the token subject in the request context.
// CORS preflight requests pass through untouched.
func RequireBearer(v Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.WarnContext(r.Context(), "missing bearer token")
				unauthorized(w)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				log.WarnContext(r.Context(), "rejected bearer token", "error", err)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="items"`)
	httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized")
}
