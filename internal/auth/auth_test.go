package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", "cayocagi", "cayocagi-app", time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := newTestTokens(t)

	raw, expires, err := tokens.Issue(domain.User{ID: 7, Username: "ayse", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	identity, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.UserID)
	assert.Equal(t, "ayse", identity.Username)
	assert.True(t, identity.IsAdmin())
}

func TestTokens_Verify(t *testing.T) {
	tokens := newTestTokens(t)

	t.Run("rejects expired token", func(t *testing.T) {
		raw, _, err := tokens.Issue(domain.User{ID: 1, Username: "u", Role: domain.RoleUser})
		require.NoError(t, err)

		later := *tokens
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.Verify(raw)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other, err := NewTokens("other-secret", "cayocagi", "cayocagi-app", time.Hour)
		require.NoError(t, err)
		raw, _, err := other.Issue(domain.User{ID: 1, Username: "u", Role: domain.RoleUser})
		require.NoError(t, err)

		_, err = tokens.Verify(raw)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("rejects wrong audience", func(t *testing.T) {
		other, err := NewTokens("test-secret", "cayocagi", "someone-else", time.Hour)
		require.NoError(t, err)
		raw, _, err := other.Issue(domain.User{ID: 1, Username: "u", Role: domain.RoleUser})
		require.NoError(t, err)

		_, err = tokens.Verify(raw)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestAuthenticator_Require(t *testing.T) {
	tokens := newTestTokens(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authn := NewAuthenticator(tokens, logger)

	var seen *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	userToken, _, err := tokens.Issue(domain.User{ID: 3, Username: "mehmet", Role: domain.RoleUser})
	require.NoError(t, err)

	t.Run("missing header is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		authn.Require()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rec := httptest.NewRecorder()
		authn.Require()(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(3), seen.UserID)
	})

	t.Run("role gate rejects non-admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rec := httptest.NewRecorder()
		authn.Require(domain.RoleAdmin)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
