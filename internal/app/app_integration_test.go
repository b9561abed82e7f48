//go:build integration

package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/cayocagi/internal/client"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/testutil"
)

func TestOrderApprovalFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db := testutil.StartPostgres(ctx, t)
	tokens, _ := testutil.NewAuth(t)
	api := New(db, tokens, testutil.DiscardLogger())
	require.NoError(t, api.Users.EnsureAdmin(ctx, "admin", "admin-pass"))

	srv := httptest.NewServer(api.Router)
	defer srv.Close()
	c := client.New(srv.URL, srv.Client())

	admin, err := c.Login(ctx, "admin", "admin-pass")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.User.Role)

	room, err := admin.CreateRoom(ctx, "Toplantı Odası")
	require.NoError(t, err)
	tea, err := admin.CreateBeverage(ctx, "çay", 10)
	require.NoError(t, err)

	ayse, err := admin.Register(ctx, "ayse", "secret1", domain.RoleUser, 2)
	require.NoError(t, err)
	_, err = admin.Register(ctx, "mehmet", "secret2", domain.RoleUser, 0)
	require.NoError(t, err)

	owner, err := c.Login(ctx, "ayse", "secret1")
	require.NoError(t, err)
	stranger, err := c.Login(ctx, "mehmet", "secret2")
	require.NoError(t, err)

	order, err := owner.CreateOrder(ctx, room.ID, nil, client.Line{BeverageID: tea.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Lines, 1)

	_, err = stranger.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unchanged, err := owner.Approve(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, unchanged.Status, "status from a non-admin is ignored")

	approved, err := admin.Approve(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, approved.Status)

	_, err = admin.Reject(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument, "terminal orders cannot transition")

	balance, err := owner.TicketCount(ctx, ayse.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	err = owner.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	mine, err := owner.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.OrderStatusApproved, mine[0].Status)

	_, err = owner.PendingOrders(ctx)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	deleted, err := admin.DeleteAllOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
