package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// unguarded lists operational routes that skip auth and rate limiting.
var unguarded = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

func skipGuards(r *http.Request) bool {
	return r.Method == http.MethodOptions || unguarded[r.URL.Path]
}

// keyring holds digests of the accepted API keys.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

// contains compares against every key so timing does not depend on which one matched.
func (kr keyring) contains(token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range kr {
		found |= subtle.ConstantTimeCompare(sum[:], kr[i][:])
	}
	return found == 1
}

// bearerToken extracts the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (token string, ok bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(rest)
	return token, token != ""
}

// BearerAuthMiddleware rejects requests without a known API key.
// Blank keys are ignored; with none left the middleware is a no-op.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipGuards(r) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := bearerToken(header)
			switch {
			case header == "":
				unauthorized(w, "missing authorization header")
			case !ok:
				unauthorized(w, "authorization header must use Bearer scheme")
			case !kr.contains(token):
				unauthorized(w, "invalid api key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="facilityfinder"`)
	WriteError(w, http.StatusUnauthorized, msg)
}
