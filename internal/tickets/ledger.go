package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Ledger is the per-user ticket balance stored on the users table.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the caller's ticket count, or 0 for an unknown user.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := l.db.QueryRowContext(ctx, `
		SELECT ticket_count
		FROM users
		WHERE id = $1
	`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read ticket balance: %w", err)
	}
	return balance, nil
}

// DecrementIfPositive consumes one ticket in a single conditional update.
// It reports false, without error, when the balance is zero or the user is
// missing.
func (l *Ledger) DecrementIfPositive(ctx context.Context, userID int64) (bool, error) {
	result, err := l.db.ExecContext(ctx, `
		UPDATE users
		SET ticket_count = ticket_count - 1
		WHERE id = $1 AND ticket_count > 0
	`, userID)
	if err != nil {
		return false, fmt.Errorf("decrement ticket balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// SetBalance overwrites the balance unconditionally.
func (l *Ledger) SetBalance(ctx context.Context, userID int64, balance int) error {
	if balance < 0 {
		return fmt.Errorf("%w: ticket count must not be negative", domain.ErrInvalidArgument)
	}

	result, err := l.db.ExecContext(ctx, `
		UPDATE users
		SET ticket_count = $2
		WHERE id = $1
	`, userID, balance)
	if err != nil {
		return fmt.Errorf("set ticket balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}
	return nil
}
