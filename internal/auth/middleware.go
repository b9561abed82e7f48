package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
)

// Authenticator wires token verification into chi middleware.
type Authenticator struct {
	tokens *Tokens
	logger *slog.Logger
}

func NewAuthenticator(tokens *Tokens, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, logger: logger}
}

// Require verifies the bearer token and, when roles are given, that the
// caller holds one of them.
func (a *Authenticator) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpx.WriteMessage(w, r, a.logger, http.StatusUnauthorized, "authorization header missing or invalid")
				return
			}
			identity, err := a.tokens.Verify(raw)
			if err != nil {
				httpx.WriteMessage(w, r, a.logger, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if len(roles) > 0 && !hasRole(identity, roles) {
				httpx.WriteMessage(w, r, a.logger, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func hasRole(identity *Identity, roles []domain.Role) bool {
	for _, role := range roles {
		if identity.Role == role {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Caller returns the identity placed on the request by Require.
func Caller(r *http.Request) (*Identity, error) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}
