package orders

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// memStore is an in-memory Store. LockOrder holds a single mutex, which is a
// coarser but equivalent serialization to a row lock.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]domain.Order
	lines     map[int64]domain.OrderLine
	users     map[int64]domain.UserSummary
	beverages map[int64]domain.BeverageSummary
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[int64]domain.Order{},
		lines:     map[int64]domain.OrderLine{},
		users:     map[int64]domain.UserSummary{},
		beverages: map[int64]domain.BeverageSummary{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateOrder(_ context.Context, o *domain.Order, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = m.id()
	stored := *o
	stored.Lines = nil
	m.orders[o.ID] = stored
	for _, l := range lines {
		l.ID = m.id()
		l.OrderID = o.ID
		m.lines[l.ID] = l
	}
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view(id)
}

func (m *memStore) view(id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	if o.OwnerID != nil {
		if u, ok := m.users[*o.OwnerID]; ok {
			o.Owner = &u
		}
	}
	o.Lines = []domain.OrderLine{}
	for _, lineID := range slices.Sorted(maps.Keys(m.lines)) {
		if l := m.lines[lineID]; l.OrderID == id {
			o.Lines = append(o.Lines, m.lineView(l))
		}
	}
	return &o, nil
}

func (m *memStore) lineView(l domain.OrderLine) domain.OrderLine {
	if b, ok := m.beverages[l.BeverageID]; ok {
		l.Beverage = &b
	}
	return l
}

func (m *memStore) ListOrders(_ context.Context, f Filter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Order{}
	for _, id := range slices.Sorted(maps.Keys(m.orders)) {
		o := m.orders[id]
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
			continue
		}
		if f.OwnerID != nil && !o.OwnedBy(*f.OwnerID) {
			continue
		}
		v, _ := m.view(id)
		out = append(out, *v)
	}
	return out, nil
}

func (m *memStore) GetLine(_ context.Context, id int64) (*domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, fmt.Errorf("%w: order line %d", domain.ErrNotFound, id)
	}
	v := m.lineView(l)
	return &v, nil
}

func (m *memStore) ListLines(_ context.Context) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.OrderLine{}
	for _, id := range slices.Sorted(maps.Keys(m.lines)) {
		out = append(out, m.lineView(m.lines[id]))
	}
	return out, nil
}

func (m *memStore) LockOrder(ctx context.Context, id int64, fn func(context.Context, OrderTx, *domain.Order) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	ordersBefore, linesBefore, nextBefore := maps.Clone(m.orders), maps.Clone(m.lines), m.nextID
	if err := fn(ctx, &memTx{m: m}, &o); err != nil {
		m.orders, m.lines, m.nextID = ordersBefore, linesBefore, nextBefore
		return err
	}
	return nil
}

func (m *memStore) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.orders))
	m.orders = map[int64]domain.Order{}
	m.lines = map[int64]domain.OrderLine{}
	return n, nil
}

func (m *memStore) HasPendingOrdersForRoom(_ context.Context, roomID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.RoomID == roomID && o.Status == domain.OrderStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) status(id int64) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

// memTx mutates memStore directly; the caller already holds m.mu.
type memTx struct {
	m *memStore
}

func (t *memTx) SaveOrder(_ context.Context, o *domain.Order) error {
	stored := *o
	stored.Lines, stored.Owner = nil, nil
	t.m.orders[o.ID] = stored
	return nil
}

func (t *memTx) DeleteOrder(_ context.Context, id int64) error {
	delete(t.m.orders, id)
	for lineID, l := range t.m.lines {
		if l.OrderID == id {
			delete(t.m.lines, lineID)
		}
	}
	return nil
}

func (t *memTx) Line(_ context.Context, id int64) (*domain.OrderLine, error) {
	l, ok := t.m.lines[id]
	if !ok {
		return nil, fmt.Errorf("%w: order line %d", domain.ErrNotFound, id)
	}
	return &l, nil
}

func (t *memTx) InsertLine(_ context.Context, l *domain.OrderLine) error {
	l.ID = t.m.id()
	t.m.lines[l.ID] = *l
	return nil
}

func (t *memTx) SaveLine(_ context.Context, l *domain.OrderLine) error {
	stored := *l
	stored.Beverage = nil
	t.m.lines[l.ID] = stored
	return nil
}

func (t *memTx) DeleteLine(_ context.Context, id int64) error {
	delete(t.m.lines, id)
	return nil
}

type fakeCatalog struct {
	rooms     map[int64]bool
	beverages map[int64]domain.Beverage
}

func (c *fakeCatalog) RoomExists(_ context.Context, id int64) (bool, error) {
	return c.rooms[id], nil
}

func (c *fakeCatalog) GetBeverage(_ context.Context, id int64) (*domain.Beverage, error) {
	b, ok := c.beverages[id]
	if !ok {
		return nil, fmt.Errorf("%w: beverage %d", domain.ErrNotFound, id)
	}
	return &b, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int
	calls    int
	err      error
}

func (l *fakeLedger) DecrementIfPositive(_ context.Context, userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return false, l.err
	}
	if l.balances[userID] <= 0 {
		return false, nil
	}
	l.balances[userID]--
	return true, nil
}

func (l *fakeLedger) balance(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.(domain.OrderEvent))
	return nil
}

func (p *recordingPublisher) types() []domain.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// mapCache versions entries the same way the Redis cache does: a view is
// stored under the generation observed on Get, and Delete or Clear moves the
// generation past it.
type mapCache struct {
	mu     sync.Mutex
	epoch  int
	gens   map[int64]int
	items  map[string]domain.Order
	hits   int
	clears int
}

func newMapCache() *mapCache {
	return &mapCache{gens: map[int64]int{}, items: map[string]domain.Order{}}
}

func (c *mapCache) version(id int64) string {
	return fmt.Sprintf("%d:%d", c.epoch, c.gens[id])
}

func (c *mapCache) Get(_ context.Context, id int64) (*domain.Order, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.version(id)
	o, ok := c.items[fmt.Sprintf("%s:%d", v, id)]
	if !ok {
		return nil, v, nil
	}
	c.hits++
	return &o, v, nil
}

func (c *mapCache) Set(_ context.Context, version string, o *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[fmt.Sprintf("%s:%d", version, o.ID)] = *o
	return nil
}

func (c *mapCache) Delete(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.gens[id]++
	}
	return nil
}

func (c *mapCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.gens = map[int64]int{}
	c.clears++
	return nil
}

// cached reports whether a current view of id is stored.
func (c *mapCache) cached(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[fmt.Sprintf("%s:%d", c.version(id), id)]
	return ok
}

var errLedgerDown = errors.New("ledger unavailable")

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
