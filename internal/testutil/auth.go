package testutil

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewAuth returns token issuing and verification sharing a test secret.
func NewAuth(t *testing.T) (*auth.Tokens, *auth.Authenticator) {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", "cayocagi", "cayocagi-app", time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens, auth.NewAuthenticator(tokens, DiscardLogger())
}

// Bearer returns an Authorization header value for the given caller.
func Bearer(t *testing.T, tokens *auth.Tokens, userID int64, role domain.Role) string {
	t.Helper()
	raw, _, err := tokens.Issue(domain.User{ID: userID, Username: "test", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + raw
}
