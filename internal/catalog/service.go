package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
)

type Store interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	UpdateRoom(ctx context.Context, room *domain.Room) error
	DeleteRoom(ctx context.Context, id int64, guard func(context.Context) error) error
	ListBeverages(ctx context.Context, activeOnly bool) ([]domain.Beverage, error)
	GetBeverage(ctx context.Context, id int64) (*domain.Beverage, error)
	CreateBeverage(ctx context.Context, b *domain.Beverage) error
	UpdateBeverage(ctx context.Context, b *domain.Beverage) error
	ToggleBeverage(ctx context.Context, id int64) (*domain.Beverage, error)
	DeleteBeverage(ctx context.Context, id int64) error
}

// Orders is the side of the order service the catalog depends on: the room
// deletion guard, and dropping cached order views that embed catalog data.
type Orders interface {
	HasPendingOrdersForRoom(ctx context.Context, roomID int64) (bool, error)
	InvalidateViews(ctx context.Context)
}

type Service struct {
	store  Store
	orders Orders
	logger *slog.Logger
}

func NewService(store Store, orders Orders, logger *slog.Logger) *Service {
	return &Service{store: store, orders: orders, logger: logger}
}

type BeverageInput struct {
	Name   string  `json:"name"`
	Price  int     `json:"price"`
	Pics   *string `json:"pics"`
	Active *bool   `json:"active"`
}

func (in BeverageInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.store.ListRooms(ctx)
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return s.store.GetRoom(ctx, id)
}

func (s *Service) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	name, err := roomName(name)
	if err != nil {
		return nil, err
	}
	room := &domain.Room{Name: name}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("room created", "room_id", room.ID)
	return room, nil
}

func (s *Service) RenameRoom(ctx context.Context, id int64, name string) (*domain.Room, error) {
	name, err := roomName(name)
	if err != nil {
		return nil, err
	}
	room := &domain.Room{ID: id, Name: name}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom refuses while any pending order still points at the room.
// Orders that are done keep their history with no room.
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	err := s.store.DeleteRoom(ctx, id, func(ctx context.Context) error {
		pending, err := s.orders.HasPendingOrdersForRoom(ctx, id)
		if err != nil {
			return fmt.Errorf("check pending orders: %w", err)
		}
		if pending {
			return fmt.Errorf("%w: room %d has pending orders", domain.ErrInvalidArgument, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.orders.InvalidateViews(ctx)
	s.logger.Info("room deleted", "room_id", id)
	return nil
}

func roomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	return name, nil
}

// ListBeverages returns the active menu.
func (s *Service) ListBeverages(ctx context.Context) ([]domain.Beverage, error) {
	return s.store.ListBeverages(ctx, true)
}

func (s *Service) ListAllBeverages(ctx context.Context) ([]domain.Beverage, error) {
	return s.store.ListBeverages(ctx, false)
}

// GetBeverage hides inactive beverages from non-admins.
func (s *Service) GetBeverage(ctx context.Context, caller *auth.Identity, id int64) (*domain.Beverage, error) {
	b, err := s.store.GetBeverage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Active && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: beverage %d", domain.ErrNotFound, id)
	}
	return b, nil
}

func (s *Service) CreateBeverage(ctx context.Context, in BeverageInput) (*domain.Beverage, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b := &domain.Beverage{
		Name:   strings.TrimSpace(in.Name),
		Price:  in.Price,
		Pics:   in.Pics,
		Active: in.Active == nil || *in.Active,
	}
	if err := s.store.CreateBeverage(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("beverage created", "beverage_id", b.ID)
	return b, nil
}

func (s *Service) ReplaceBeverage(ctx context.Context, id int64, in BeverageInput) (*domain.Beverage, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.store.GetBeverage(ctx, id)
	if err != nil {
		return nil, err
	}
	b := &domain.Beverage{
		ID:     id,
		Name:   strings.TrimSpace(in.Name),
		Price:  in.Price,
		Pics:   in.Pics,
		Active: current.Active,
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	if err := s.store.UpdateBeverage(ctx, b); err != nil {
		return nil, err
	}
	s.orders.InvalidateViews(ctx)
	return b, nil
}

func (s *Service) ToggleBeverage(ctx context.Context, id int64) (*domain.Beverage, error) {
	b, err := s.store.ToggleBeverage(ctx, id)
	if err != nil {
		return nil, err
	}
	s.orders.InvalidateViews(ctx)
	s.logger.Info("beverage toggled", "beverage_id", id, "active", b.Active)
	return b, nil
}

func (s *Service) DeleteBeverage(ctx context.Context, id int64) error {
	if err := s.store.DeleteBeverage(ctx, id); err != nil {
		return err
	}
	s.logger.Info("beverage deleted", "beverage_id", id)
	return nil
}
