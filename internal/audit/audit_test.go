package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
	"github.com/joao-fontenele/cayocagi/internal/messaging"
	"github.com/joao-fontenele/cayocagi/internal/testutil"
)

type memHistory struct {
	entries map[string]Entry
	err     error
}

func newMemHistory() *memHistory {
	return &memHistory{entries: map[string]Entry{}}
}

func (m *memHistory) Record(_ context.Context, e domain.OrderEvent) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.entries[e.EventID]; ok {
		return false, nil
	}
	m.entries[e.EventID] = Entry{OrderEvent: e, RecordedAt: e.OccurredAt}
	return true, nil
}

func (m *memHistory) ListByOrder(_ context.Context, orderID int64) ([]Entry, error) {
	out := []Entry{}
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func approvedEvent(orderID int64) domain.OrderEvent {
	owner := int64(10)
	return domain.OrderEvent{
		EventID:        uuid.NewString(),
		Type:           domain.EventOrderStatusChanged,
		OrderID:        orderID,
		OwnerID:        &owner,
		ActorID:        99,
		Status:         domain.OrderStatusApproved,
		PreviousStatus: domain.OrderStatusPending,
		OccurredAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRecorderHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("records an event once", func(t *testing.T) {
		history := newMemHistory()
		rec := NewRecorder(history, testutil.DiscardLogger())
		payload := encode(t, approvedEvent(7))

		require.NoError(t, rec.Handle(ctx, payload))
		require.NoError(t, rec.Handle(ctx, payload))

		entries, _ := history.ListByOrder(ctx, 7)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.OrderStatusApproved, entries[0].Status)
		assert.Equal(t, domain.OrderStatusPending, entries[0].PreviousStatus)
	})

	t.Run("malformed payloads are skippable", func(t *testing.T) {
		noID := approvedEvent(7)
		noID.EventID = "not-a-uuid"
		badType := approvedEvent(7)
		badType.Type = "order.exploded"
		noOrder := approvedEvent(0)

		cases := map[string][]byte{
			"not json":       []byte(`{`),
			"unknown status": []byte(`{"eventId":"` + uuid.NewString() + `","type":"order.created","orderId":1,"status":"Done"}`),
			"bad event id":   encode(t, noID),
			"bad type":       encode(t, badType),
			"no order":       encode(t, noOrder),
		}
		for name, payload := range cases {
			t.Run(name, func(t *testing.T) {
				history := newMemHistory()
				err := NewRecorder(history, testutil.DiscardLogger()).Handle(ctx, payload)
				assert.ErrorIs(t, err, messaging.ErrMalformed)
				assert.Empty(t, history.entries)
			})
		}
	})

	t.Run("store failure is retryable", func(t *testing.T) {
		history := newMemHistory()
		history.err = errors.New("connection refused")

		err := NewRecorder(history, testutil.DiscardLogger()).Handle(ctx, encode(t, approvedEvent(7)))
		require.Error(t, err)
		assert.NotErrorIs(t, err, messaging.ErrMalformed)
	})
}

func TestHistoryHandler(t *testing.T) {
	tokens, authn := testutil.NewAuth(t)
	history := newMemHistory()
	_, _ = history.Record(context.Background(), approvedEvent(3))

	router := httpx.NewRouter()
	NewHandler(history, testutil.DiscardLogger()).Register(router, authn)

	get := func(path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", bearer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}
	admin := testutil.Bearer(t, tokens, 99, domain.RoleAdmin)
	user := testutil.Bearer(t, tokens, 10, domain.RoleUser)

	t.Run("admin reads history", func(t *testing.T) {
		rec := get("/orders/3/history", admin)
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []Entry
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
		require.Len(t, entries, 1)
		assert.Equal(t, domain.EventOrderStatusChanged, entries[0].Type)
		assert.Equal(t, int64(3), entries[0].OrderID)
	})

	t.Run("order without history is an empty list", func(t *testing.T) {
		rec := get("/orders/4/history", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("owner is forbidden", func(t *testing.T) {
		rec := get("/orders/3/history", user)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := get("/orders/abc/history", admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
