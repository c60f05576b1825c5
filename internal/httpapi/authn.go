package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"accountd.org/internal/account"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/auth/refresh",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.accounts == nil || !a.accounts.SupportsTokens() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		// Registration is open.
		if r.URL.Path == "/v1/accounts" && r.Method == http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := a.accounts.AuthenticateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, account.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := account.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal loads the authenticated caller or writes 401.
func (a *API) requirePrincipal(w http.ResponseWriter, r *http.Request) (account.Principal, bool) {
	principal, ok := account.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return account.Principal{}, false
	}
	return principal, true
}

// requireOwnerOrAdmin allows the account owner and admins through.
func (a *API) requireOwnerOrAdmin(w http.ResponseWriter, r *http.Request, accountID string) (account.Principal, bool) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return account.Principal{}, false
	}
	if principal.AccountID != accountID && !principal.Admin {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return account.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
