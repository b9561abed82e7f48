package orders

import (
	"context"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Filter narrows ListOrders. Zero values match everything.
type Filter struct {
	Statuses []domain.OrderStatus
	OwnerID  *int64
}

// Store persists orders and their lines.
type Store interface {
	// CreateOrder inserts the order and its lines atomically, filling in ids
	// and timestamps.
	CreateOrder(ctx context.Context, o *domain.Order, lines []domain.OrderLine) error
	// GetOrder returns the order with owner and line details, or
	// domain.ErrNotFound.
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f Filter) ([]domain.Order, error)
	GetLine(ctx context.Context, id int64) (*domain.OrderLine, error)
	ListLines(ctx context.Context) ([]domain.OrderLine, error)
	// LockOrder runs fn with the order row held exclusively until fn returns.
	// Writes made through tx are committed only if fn returns nil.
	LockOrder(ctx context.Context, id int64, fn func(ctx context.Context, tx OrderTx, o *domain.Order) error) error
	DeleteAll(ctx context.Context) (int64, error)
	HasPendingOrdersForRoom(ctx context.Context, roomID int64) (bool, error)
}

// OrderTx is the write surface available while an order is locked.
type OrderTx interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	DeleteOrder(ctx context.Context, id int64) error
	Line(ctx context.Context, id int64) (*domain.OrderLine, error)
	InsertLine(ctx context.Context, l *domain.OrderLine) error
	SaveLine(ctx context.Context, l *domain.OrderLine) error
	DeleteLine(ctx context.Context, id int64) error
}

// Catalog answers existence questions about rooms and beverages.
type Catalog interface {
	RoomExists(ctx context.Context, id int64) (bool, error)
	GetBeverage(ctx context.Context, id int64) (*domain.Beverage, error)
}

// TicketDebiter consumes one ticket from a user when an order is approved.
type TicketDebiter interface {
	DecrementIfPositive(ctx context.Context, userID int64) (bool, error)
}

// Cache holds order views. Get returns a version token along with the
// cached view, and Set stores under that token only. Delete and Clear move
// the version forward, so a view loaded before an invalidation is never
// served after it.
type Cache interface {
	Get(ctx context.Context, id int64) (*domain.Order, string, error)
	Set(ctx context.Context, version string, o *domain.Order) error
	Delete(ctx context.Context, ids ...int64) error
	Clear(ctx context.Context) error
}

// Publisher emits lifecycle events keyed by order id.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}
