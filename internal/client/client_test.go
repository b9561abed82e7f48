package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
	"github.com/joao-fontenele/cayocagi/internal/testutil"
)

const token = "tok-123"

// fakeAPI mimics the order API closely enough to exercise the wire format.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	logger := testutil.DiscardLogger()
	r := httpx.NewRouter()

	requireToken := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer "+token {
				httpx.WriteError(w, req, logger, domain.ErrUnauthenticated)
				return
			}
			next(w, req)
		}
	}

	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["password"] != "secret" {
			httpx.WriteMessage(w, req, logger, http.StatusUnauthorized, "invalid username or password")
			return
		}
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]any{
			"token":     token,
			"expiresAt": time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			"user":      domain.User{ID: 7, Username: body["username"], Role: domain.RoleUser},
		})
	})
	r.Post("/orders", requireToken(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RoomID int64  `json:"roomId"`
			Lines  []Line `json:"lines"`
		}
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		owner := int64(7)
		o := domain.Order{ID: 1, RoomID: body.RoomID, Status: domain.OrderStatusPending, OwnerID: &owner}
		for _, l := range body.Lines {
			o.Lines = append(o.Lines, domain.OrderLine{OrderID: 1, BeverageID: l.BeverageID, Quantity: l.Quantity})
		}
		httpx.WriteJSON(w, logger, http.StatusCreated, o)
	}))
	r.Patch("/orders/{id}", requireToken(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if chi.URLParam(req, "id") != "1" {
			httpx.WriteError(w, req, logger, domain.ErrNotFound)
			return
		}
		assert.Equal(t, "approved", body["status"])
		httpx.WriteMessage(w, req, logger, http.StatusForbidden, "forbidden: admin role required")
	}))
	r.Get("/users/{id}/ticket-count", requireToken(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]any{"userId": 7, "ticketCount": 4})
	}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	srv := fakeAPI(t)
	c := New(srv.URL+"/", srv.Client())

	t.Run("bad credentials", func(t *testing.T) {
		_, err := c.Login(ctx, "ayse", "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "invalid username or password", apiErr.Message)
	})

	session, err := c.Login(ctx, "ayse", "secret")
	require.NoError(t, err)
	assert.Equal(t, token, session.Token)
	assert.Equal(t, int64(7), session.User.ID)

	t.Run("create order with lines", func(t *testing.T) {
		o, err := session.CreateOrder(ctx, 3, nil, Line{BeverageID: 5, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), o.RoomID)
		assert.Equal(t, domain.OrderStatusPending, o.Status)
		require.Len(t, o.Lines, 1)
		assert.Equal(t, 2, o.Lines[0].Quantity)
	})

	t.Run("error envelope unwraps to domain errors", func(t *testing.T) {
		_, err := session.Approve(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = session.Approve(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.NotEmpty(t, apiErr.RequestID)
	})

	t.Run("ticket count", func(t *testing.T) {
		n, err := session.TicketCount(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("expired session", func(t *testing.T) {
		stale := &Session{client: c, Token: "old"}
		_, err := stale.TicketCount(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
