package client

import (
	"context"
	"net/http"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Admin-only calls. Non-admin sessions get an *APIError wrapping
// domain.ErrForbidden.

func (s *Session) Register(ctx context.Context, username, password string, role domain.Role, tickets int) (*domain.User, error) {
	body := map[string]any{"username": username, "password": password, "role": role, "ticketCount": tickets}
	var u domain.User
	if err := s.call(ctx, http.MethodPost, "/auth/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Session) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	if err := s.call(ctx, http.MethodPost, "/rooms", map[string]string{"name": name}, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Session) CreateBeverage(ctx context.Context, name string, price int) (*domain.Beverage, error) {
	var b domain.Beverage
	if err := s.call(ctx, http.MethodPost, "/beverages", map[string]any{"name": name, "price": price}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Session) DeleteAllOrders(ctx context.Context) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := s.call(ctx, http.MethodDelete, "/orders/all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
