package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Session carries the bearer token of a logged-in user.
type Session struct {
	client    *Client
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type Line struct {
	BeverageID int64 `json:"beverageId"`
	Quantity   int   `json:"quantity"`
}

func (s *Session) call(ctx context.Context, method, path string, body, out any) error {
	return s.client.do(ctx, method, path, s.Token, body, out)
}

func (s *Session) CreateOrder(ctx context.Context, roomID int64, note *string, lines ...Line) (*domain.Order, error) {
	body := map[string]any{"roomId": roomID, "note": note, "lines": lines}
	var o domain.Order
	if err := s.call(ctx, http.MethodPost, "/orders", body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Session) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := s.call(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// PatchOrder sends only the given fields. A nil value clears the field.
func (s *Session) PatchOrder(ctx context.Context, id int64, fields map[string]any) (*domain.Order, error) {
	var o domain.Order
	if err := s.call(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d", id), fields, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Session) Approve(ctx context.Context, id int64) (*domain.Order, error) {
	return s.PatchOrder(ctx, id, map[string]any{"status": domain.OrderStatusApproved})
}

func (s *Session) Reject(ctx context.Context, id int64) (*domain.Order, error) {
	return s.PatchOrder(ctx, id, map[string]any{"status": domain.OrderStatusRejected})
}

func (s *Session) DeleteOrder(ctx context.Context, id int64) error {
	return s.call(ctx, http.MethodDelete, fmt.Sprintf("/orders/%d", id), nil, nil)
}

func (s *Session) MyOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, "/orders/my-orders")
}

func (s *Session) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, "/orders/pending")
}

func (s *Session) listOrders(ctx context.Context, path string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.call(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Session) AddLine(ctx context.Context, orderID int64, line Line) (*domain.OrderLine, error) {
	body := map[string]any{"orderId": orderID, "beverageId": line.BeverageID, "quantity": line.Quantity}
	var l domain.OrderLine
	if err := s.call(ctx, http.MethodPost, "/orderdrinks", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Session) TicketCount(ctx context.Context, userID int64) (int, error) {
	var resp struct {
		TicketCount int `json:"ticketCount"`
	}
	if err := s.call(ctx, http.MethodGet, fmt.Sprintf("/users/%d/ticket-count", userID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.TicketCount, nil
}

func (s *Session) SetTicketCount(ctx context.Context, userID int64, count int) error {
	body := map[string]any{"userId": userID, "newTicketCount": count}
	return s.call(ctx, http.MethodPut, "/users/ticket-count", body, nil)
}
