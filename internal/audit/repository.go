package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	domain.OrderEvent
	RecordedAt time.Time `json:"recordedAt"`
}

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record stores the event once. It reports false when the event id was
// already recorded, which happens on redelivery.
func (r *HistoryRepository) Record(ctx context.Context, e domain.OrderEvent) (bool, error) {
	var previous sql.NullString
	if e.PreviousStatus != "" {
		previous = sql.NullString{String: string(e.PreviousStatus), Valid: true}
	}
	var owner sql.NullInt64
	if e.OwnerID != nil {
		owner = sql.NullInt64{Int64: *e.OwnerID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO order_history (event_id, order_id, event_type, status, previous_status, owner_id, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`, e.EventID, e.OrderID, string(e.Type), string(e.Status), previous, owner, e.ActorID, e.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("insert order history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, order_id, event_type, status, previous_status, owner_id, actor_id, occurred_at, recorded_at
		FROM order_history
		WHERE order_id = $1
		ORDER BY occurred_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			typ      string
			status   string
			previous sql.NullString
			owner    sql.NullInt64
		)
		if err := rows.Scan(&e.EventID, &e.OrderID, &typ, &status, &previous, &owner, &e.ActorID, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		e.Type = domain.OrderEventType(typ)
		e.Status = domain.OrderStatus(status)
		if previous.Valid {
			e.PreviousStatus = domain.OrderStatus(previous.String)
		}
		if owner.Valid {
			id := owner.Int64
			e.OwnerID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
