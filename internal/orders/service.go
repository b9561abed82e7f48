package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/telemetry"
)

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service is the order lifecycle engine. Every mutation of an order or its
// lines runs while the order row is locked, so status transitions and the
// Pending gate on lines are serialized per order.
type Service struct {
	store   Store
	catalog Catalog
	tickets TicketDebiter
	cache   Cache
	events  Publisher
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, catalog Catalog, tickets TicketDebiter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		tickets: tickets,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LineInput struct {
	BeverageID int64 `json:"beverageId"`
	Quantity   int   `json:"quantity"`
}

type CreateInput struct {
	Note   *string
	RoomID int64
	Lines  []LineInput
}

// UpdateInput replaces note and room. Status is applied only for admins.
type UpdateInput struct {
	Note   *string
	RoomID int64
	Status *domain.OrderStatus
}

type PatchInput struct {
	Note   domain.Optional[string]
	RoomID domain.Optional[int64]
	Status domain.Optional[domain.OrderStatus]
}

func (s *Service) Create(ctx context.Context, caller *auth.Identity, in CreateInput) (*domain.Order, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.RoomID <= 0 {
		return nil, fmt.Errorf("%w: roomId is required", domain.ErrInvalidArgument)
	}
	if err := s.requireRoom(ctx, in.RoomID); err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if err := s.validateLine(ctx, l.BeverageID, l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, domain.OrderLine{BeverageID: l.BeverageID, Quantity: l.Quantity})
	}

	ownerID := caller.UserID
	now := s.now()
	o := &domain.Order{
		Note:      in.Note,
		RoomID:    in.RoomID,
		Status:    domain.OrderStatusPending,
		OwnerID:   &ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateOrder(ctx, o, lines); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", "order_id", o.ID, "owner_id", ownerID, "lines", len(lines))
	s.publish(ctx, caller, domain.EventOrderCreated, o.ID, o.OwnerID, "", o.Status)
	return s.store.GetOrder(ctx, o.ID)
}

// Update applies full-replacement semantics: note and room are overwritten.
// A status equal to the current one is not a transition and is ignored.
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id int64, in UpdateInput) (*domain.Order, error) {
	if in.RoomID <= 0 {
		return nil, fmt.Errorf("%w: roomId is required", domain.ErrInvalidArgument)
	}
	return s.modify(ctx, caller, id, func(ctx context.Context, o *domain.Order) error {
		if in.RoomID != o.RoomID {
			if err := s.requireRoom(ctx, in.RoomID); err != nil {
				return err
			}
		}
		o.Note = in.Note
		o.RoomID = in.RoomID
		if in.Status != nil && caller.IsAdmin() && *in.Status != o.Status {
			return transition(o, *in.Status)
		}
		return nil
	})
}

// Patch changes only the supplied fields. An explicit null note clears it.
// A supplied status from an admin must be a legal transition.
func (s *Service) Patch(ctx context.Context, caller *auth.Identity, id int64, in PatchInput) (*domain.Order, error) {
	return s.modify(ctx, caller, id, func(ctx context.Context, o *domain.Order) error {
		if in.RoomID.Set {
			if in.RoomID.Null || in.RoomID.Value <= 0 {
				return fmt.Errorf("%w: roomId must reference a room", domain.ErrInvalidArgument)
			}
			if in.RoomID.Value != o.RoomID {
				if err := s.requireRoom(ctx, in.RoomID.Value); err != nil {
					return err
				}
				o.RoomID = in.RoomID.Value
			}
		}
		if in.Note.Set {
			o.Note = in.Note.Ptr()
		}
		if in.Status.Set && !in.Status.Null && caller.IsAdmin() {
			return transition(o, in.Status.Value)
		}
		return nil
	})
}

// transition moves o to a terminal status. Any other target is rejected
// before the current status is considered.
func transition(o *domain.Order, to domain.OrderStatus) error {
	if !to.IsTerminal() {
		return fmt.Errorf("%w: %q is not a status an order can move to", domain.ErrInvalidArgument, to)
	}
	if !domain.CanTransition(o.Status, to) {
		return fmt.Errorf("%w: order %d cannot move from %s to %s",
			domain.ErrInvalidStateTransition, o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

func (s *Service) modify(ctx context.Context, caller *auth.Identity, id int64, apply func(context.Context, *domain.Order) error) (*domain.Order, error) {
	var before, after domain.OrderStatus
	var ownerID *int64
	err := s.store.LockOrder(ctx, id, func(ctx context.Context, tx OrderTx, o *domain.Order) error {
		if err := authorize(caller, o); err != nil {
			return err
		}
		before = o.Status
		if err := apply(ctx, o); err != nil {
			return err
		}
		after, ownerID = o.Status, o.OwnerID
		o.UpdatedAt = s.now()
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	if after != before {
		s.transitioned(ctx, caller, id, ownerID, before, after)
	}
	return s.store.GetOrder(ctx, id)
}

// transitioned runs the side effects of a committed status change. They are
// detached from request cancellation so a disconnect cannot skip the debit.
func (s *Service) transitioned(ctx context.Context, caller *auth.Identity, id int64, ownerID *int64, from, to domain.OrderStatus) {
	ctx = context.WithoutCancel(ctx)
	s.metrics.RecordTransition(ctx, string(to))
	s.logger.Info("order status changed", "order_id", id, "from", from, "to", to, "actor_id", caller.UserID)

	if to == domain.OrderStatusApproved {
		s.debit(ctx, id, ownerID)
	}
	s.publish(ctx, caller, domain.EventOrderStatusChanged, id, ownerID, from, to)
}

// debit consumes one ticket from the owner. Approval stands whatever the
// outcome; failures are logged and counted.
func (s *Service) debit(ctx context.Context, orderID int64, ownerID *int64) {
	if ownerID == nil {
		s.metrics.RecordDecrement(ctx, telemetry.DecrementEmpty)
		s.logger.Warn("approved order has no owner", "order_id", orderID)
		return
	}

	ok, err := s.tickets.DecrementIfPositive(ctx, *ownerID)
	switch {
	case err != nil:
		s.metrics.RecordDecrement(ctx, telemetry.DecrementError)
		s.logger.Error("failed to debit ticket", "error", err, "order_id", orderID, "user_id", *ownerID)
	case !ok:
		s.metrics.RecordDecrement(ctx, telemetry.DecrementEmpty)
		s.logger.Warn("order approved with empty ticket balance", "order_id", orderID, "user_id", *ownerID)
	default:
		s.metrics.RecordDecrement(ctx, telemetry.DecrementDebited)
		s.logger.Info("ticket debited", "order_id", orderID, "user_id", *ownerID)
	}
}

func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id int64) error {
	var ownerID *int64
	err := s.store.LockOrder(ctx, id, func(ctx context.Context, tx OrderTx, o *domain.Order) error {
		if err := authorize(caller, o); err != nil {
			return err
		}
		if err := requirePending(o); err != nil {
			return err
		}
		ownerID = o.OwnerID
		return tx.DeleteOrder(ctx, o.ID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.logger.Info("order deleted", "order_id", id, "actor_id", caller.UserID)
	s.publish(ctx, caller, domain.EventOrderDeleted, id, ownerID, domain.OrderStatusPending, domain.OrderStatusPending)
	return nil
}

func (s *Service) Get(ctx context.Context, caller *auth.Identity, id int64) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListPending(ctx context.Context, caller *auth.Identity) ([]domain.Order, error) {
	return s.listAdmin(ctx, caller, Filter{Statuses: []domain.OrderStatus{domain.OrderStatusPending}})
}

func (s *Service) ListCompleted(ctx context.Context, caller *auth.Identity) ([]domain.Order, error) {
	return s.listAdmin(ctx, caller, Filter{Statuses: []domain.OrderStatus{domain.OrderStatusApproved, domain.OrderStatusRejected}})
}

func (s *Service) ListAll(ctx context.Context, caller *auth.Identity) ([]domain.Order, error) {
	return s.listAdmin(ctx, caller, Filter{})
}

func (s *Service) ListMine(ctx context.Context, caller *auth.Identity) ([]domain.Order, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	ownerID := caller.UserID
	return s.store.ListOrders(ctx, Filter{OwnerID: &ownerID})
}

func (s *Service) listAdmin(ctx context.Context, caller *auth.Identity, f Filter) ([]domain.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, f)
}

// DeleteAll removes every order and line. It is a reset tool, not part of
// the lifecycle, and emits no per-order events.
func (s *Service) DeleteAll(ctx context.Context, caller *auth.Identity) (int64, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all orders: %w", err)
	}
	s.InvalidateViews(ctx)
	s.logger.Warn("all orders deleted", "count", n, "actor_id", caller.UserID)
	return n, nil
}

// HasPendingOrdersForRoom backs the catalog's room deletion guard.
func (s *Service) HasPendingOrdersForRoom(ctx context.Context, roomID int64) (bool, error) {
	return s.store.HasPendingOrdersForRoom(ctx, roomID)
}

// load reads through the cache. The version is taken before the store read;
// if a mutation invalidates in between, the write lands under a version no
// reader asks for anymore.
func (s *Service) load(ctx context.Context, id int64) (*domain.Order, error) {
	var version string
	if s.cache != nil {
		cached, v, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn("order cache read failed", "error", err, "order_id", id)
		case cached != nil:
			return cached, nil
		default:
			version = v
		}
	}

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != "" {
		if err := s.cache.Set(ctx, version, o); err != nil {
			s.logger.Warn("order cache write failed", "error", err, "order_id", id)
		}
	}
	return o, nil
}

// InvalidateViews drops every cached order view. The catalog calls it when a
// room or beverage embedded in order views changes.
func (s *Service) InvalidateViews(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to clear order cache", "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, ids ...int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), ids...); err != nil {
		s.logger.Warn("order cache invalidation failed", "error", err, "order_ids", ids)
	}
}

func (s *Service) requireRoom(ctx context.Context, roomID int64) error {
	ok, err := s.catalog.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: room %d", domain.ErrNotFound, roomID)
	}
	return nil
}

func (s *Service) validateLine(ctx context.Context, beverageID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	return s.requireActiveBeverage(ctx, beverageID)
}

func (s *Service) requireActiveBeverage(ctx context.Context, beverageID int64) error {
	if beverageID <= 0 {
		return fmt.Errorf("%w: beverageId is required", domain.ErrInvalidArgument)
	}
	b, err := s.catalog.GetBeverage(ctx, beverageID)
	if err != nil {
		return err
	}
	if !b.Active {
		return fmt.Errorf("%w: beverage %d is not active", domain.ErrInvalidArgument, beverageID)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, caller *auth.Identity, typ domain.OrderEventType, orderID int64, ownerID *int64, from, to domain.OrderStatus) {
	if s.events == nil {
		return
	}
	event := domain.OrderEvent{
		EventID:        uuid.NewString(),
		Type:           typ,
		OrderID:        orderID,
		OwnerID:        ownerID,
		ActorID:        caller.UserID,
		Status:         to,
		PreviousStatus: from,
		OccurredAt:     s.now(),
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.events.Publish(ctx, strconv.FormatInt(orderID, 10), event); err != nil {
		s.metrics.RecordPublishFailure(ctx, string(typ))
		s.logger.Error("failed to publish order event", "error", err, "order_id", orderID, "type", typ)
	}
}
