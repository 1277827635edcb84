package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Blekysha/project-x-backend/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/users/register",
	"/users/login",
	"/healthz",
	"/readyz",
	"/info",
	"/metrics",
	"/",
}

// withAuth verifies the bearer token on every non-public request and puts
// the caller's identity into the request context. Tokens are self-contained:
// a verified token is trusted until it expires.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				unauthorized(w, r, "missing bearer token")
			} else {
				unauthorized(w, r, "invalid authorization scheme")
			}
			return
		}

		identity, err := a.codec.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				unauthorized(w, r, "token expired")
			default:
				unauthorized(w, r, "invalid token")
			}
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="project-x"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

// identityFrom is used by handlers behind withAuth; a missing identity
// there means the route table and the public path list disagree.
func identityFrom(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
