package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/pgerr"
)

// OrderRepository is the Postgres Store.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.note, o.room_id, o.status, o.owner_id, o.created_at, o.updated_at,
	       u.username, u.role
	FROM orders o
	LEFT JOIN users u ON u.id = o.owner_id
`

const lineSelect = `
	SELECT l.id, l.order_id, l.beverage_id, l.quantity, b.name, b.price
	FROM order_lines l
	JOIN beverages b ON b.id = l.beverage_id
`

// roomArg stores the zero room id, left behind by a deleted room, as NULL.
func roomArg(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o        domain.Order
		note     sql.NullString
		roomID   sql.NullInt64
		ownerID  sql.NullInt64
		username sql.NullString
		role     sql.NullString
	)
	if err := row.Scan(&o.ID, &note, &roomID, &o.Status, &ownerID, &o.CreatedAt, &o.UpdatedAt,
		&username, &role); err != nil {
		return nil, err
	}
	if note.Valid {
		o.Note = &note.String
	}
	o.RoomID = roomID.Int64
	if ownerID.Valid {
		id := ownerID.Int64
		o.OwnerID = &id
		if username.Valid {
			o.Owner = &domain.UserSummary{
				ID:       id,
				Username: username.String,
				Role:     domain.Role(role.String),
			}
		}
	}
	o.Lines = []domain.OrderLine{}
	return &o, nil
}

func scanLine(row rowScanner) (*domain.OrderLine, error) {
	var (
		l   domain.OrderLine
		bev domain.BeverageSummary
	)
	if err := row.Scan(&l.ID, &l.OrderID, &l.BeverageID, &l.Quantity, &bev.Name, &bev.Price); err != nil {
		return nil, err
	}
	bev.ID = l.BeverageID
	l.Beverage = &bev
	return &l, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o *domain.Order, lines []domain.OrderLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (note, room_id, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, o.Note, roomArg(o.RoomID), o.Status, o.OwnerID, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: room %d", domain.ErrNotFound, o.RoomID)
		}
		return err
	}

	o.Lines = make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		l.OrderID = o.ID
		if err := insertLine(ctx, tx, &l); err != nil {
			return err
		}
		o.Lines = append(o.Lines, l)
	}

	return tx.Commit()
}

func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachLines(ctx, map[int64]*domain.Order{o.ID: o}, []int64{o.ID}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, f Filter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("o.status = ANY($%d)", len(args)))
	}
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		where = append(where, fmt.Sprintf("o.owner_id = $%d", len(args)))
	}

	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orderMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}
	if err := r.attachLines(ctx, orderMap, orderIDs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}
	return orders, nil
}

// attachLines loads the lines of every order in one query.
func (r *OrderRepository) attachLines(ctx context.Context, orderMap map[int64]*domain.Order, orderIDs []int64) error {
	rows, err := r.db.QueryContext(ctx, lineSelect+`
		WHERE l.order_id = ANY($1)
		ORDER BY l.id
	`, pq.Array(orderIDs))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return err
		}
		if o, ok := orderMap[l.OrderID]; ok {
			o.Lines = append(o.Lines, *l)
		}
	}
	return rows.Err()
}

func (r *OrderRepository) GetLine(ctx context.Context, id int64) (*domain.OrderLine, error) {
	l, err := scanLine(r.db.QueryRowContext(ctx, lineSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order line %d", domain.ErrNotFound, id)
	}
	return l, err
}

func (r *OrderRepository) ListLines(ctx context.Context) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, lineSelect+` ORDER BY l.id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.OrderLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

// LockOrder holds SELECT ... FOR UPDATE on the order row for the duration of
// fn, so concurrent mutations of one order are applied one at a time.
func (r *OrderRepository) LockOrder(ctx context.Context, id int64, fn func(ctx context.Context, tx OrderTx, o *domain.Order) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		o       domain.Order
		note    sql.NullString
		roomID  sql.NullInt64
		ownerID sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, note, room_id, status, owner_id, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&o.ID, &note, &roomID, &o.Status, &ownerID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if note.Valid {
		o.Note = &note.String
	}
	o.RoomID = roomID.Int64
	if ownerID.Valid {
		owner := ownerID.Int64
		o.OwnerID = &owner
	}

	if err := fn(ctx, &orderTx{tx: tx}, &o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *OrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines`); err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (r *OrderRepository) HasPendingOrdersForRoom(ctx context.Context, roomID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders WHERE room_id = $1 AND status = $2
		)
	`, roomID, domain.OrderStatusPending).Scan(&exists)
	return exists, err
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE orders
		SET note = $2, room_id = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, o.ID, o.Note, roomArg(o.RoomID), o.Status, o.UpdatedAt)
	if pgerr.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: room %d", domain.ErrNotFound, o.RoomID)
	}
	return err
}

func (t *orderTx) DeleteOrder(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

func (t *orderTx) Line(ctx context.Context, id int64) (*domain.OrderLine, error) {
	var l domain.OrderLine
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, order_id, beverage_id, quantity
		FROM order_lines
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&l.ID, &l.OrderID, &l.BeverageID, &l.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order line %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *orderTx) InsertLine(ctx context.Context, l *domain.OrderLine) error {
	return insertLine(ctx, t.tx, l)
}

func (t *orderTx) SaveLine(ctx context.Context, l *domain.OrderLine) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE order_lines
		SET beverage_id = $2, quantity = $3
		WHERE id = $1
	`, l.ID, l.BeverageID, l.Quantity)
	if pgerr.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: beverage %d", domain.ErrNotFound, l.BeverageID)
	}
	return err
}

func (t *orderTx) DeleteLine(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	return err
}

func insertLine(ctx context.Context, tx *sql.Tx, l *domain.OrderLine) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO order_lines (order_id, beverage_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`, l.OrderID, l.BeverageID, l.Quantity).Scan(&l.ID)
	if pgerr.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: beverage %d", domain.ErrNotFound, l.BeverageID)
	}
	return err
}
