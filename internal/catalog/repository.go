package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/pgerr"
)

// Repository stores rooms and beverages.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM rooms
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	rooms := []domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *Repository) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM rooms
		WHERE id = $1
	`, id).Scan(&room.ID, &room.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *Repository) RoomExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateRoom(ctx context.Context, room *domain.Room) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (name)
		VALUES ($1)
		RETURNING id
	`, room.Name).Scan(&room.ID)
}

func (r *Repository) UpdateRoom(ctx context.Context, room *domain.Room) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET name = $2
		WHERE id = $1
	`, room.ID, room.Name)
	if err != nil {
		return err
	}
	return requireRow(result, "room", room.ID)
}

// DeleteRoom locks the room row, runs guard, then deletes. Orders inserted or
// moved into the room take a key share lock on the same row, so while guard
// runs no new reference can appear and any earlier one is committed.
func (r *Repository) DeleteRoom(ctx context.Context, id int64, guard func(context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	if err := guard(ctx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const beverageColumns = `id, name, price, pics, active`

func scanBeverage(row interface{ Scan(...any) error }) (*domain.Beverage, error) {
	var (
		b    domain.Beverage
		pics sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Price, &pics, &b.Active); err != nil {
		return nil, err
	}
	if pics.Valid {
		b.Pics = &pics.String
	}
	return &b, nil
}

func (r *Repository) ListBeverages(ctx context.Context, activeOnly bool) ([]domain.Beverage, error) {
	query := `SELECT ` + beverageColumns + ` FROM beverages`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	beverages := []domain.Beverage{}
	for rows.Next() {
		b, err := scanBeverage(rows)
		if err != nil {
			return nil, err
		}
		beverages = append(beverages, *b)
	}
	return beverages, rows.Err()
}

func (r *Repository) GetBeverage(ctx context.Context, id int64) (*domain.Beverage, error) {
	b, err := scanBeverage(r.db.QueryRowContext(ctx,
		`SELECT `+beverageColumns+` FROM beverages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: beverage %d", domain.ErrNotFound, id)
	}
	return b, err
}

func (r *Repository) CreateBeverage(ctx context.Context, b *domain.Beverage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO beverages (name, price, pics, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, b.Name, b.Price, b.Pics, b.Active).Scan(&b.ID)
}

func (r *Repository) UpdateBeverage(ctx context.Context, b *domain.Beverage) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE beverages SET name = $2, price = $3, pics = $4, active = $5
		WHERE id = $1
	`, b.ID, b.Name, b.Price, b.Pics, b.Active)
	if err != nil {
		return err
	}
	return requireRow(result, "beverage", b.ID)
}

func (r *Repository) ToggleBeverage(ctx context.Context, id int64) (*domain.Beverage, error) {
	b, err := scanBeverage(r.db.QueryRowContext(ctx, `
		UPDATE beverages SET active = NOT active
		WHERE id = $1
		RETURNING `+beverageColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: beverage %d", domain.ErrNotFound, id)
	}
	return b, err
}

func (r *Repository) DeleteBeverage(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM beverages WHERE id = $1`, id)
	if pgerr.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: beverage %d is used by order lines", domain.ErrInvalidArgument, id)
	}
	if err != nil {
		return err
	}
	return requireRow(result, "beverage", id)
}

func requireRow(result sql.Result, kind string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
	}
	return nil
}
