package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/messaging"
)

type historyWriter interface {
	Record(ctx context.Context, e domain.OrderEvent) (bool, error)
}

// Recorder consumes order lifecycle events and appends them to the history.
type Recorder struct {
	history historyWriter
	logger  *slog.Logger
}

func NewRecorder(history historyWriter, logger *slog.Logger) *Recorder {
	return &Recorder{history: history, logger: logger}
}

// Handle is a messaging.HandlerFunc. Undecodable or incomplete events are
// reported as messaging.ErrMalformed so the consumer skips them.
func (r *Recorder) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: unmarshal order event: %v", messaging.ErrMalformed, err)
	}
	if err := validate(event); err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrMalformed, err)
	}

	inserted, err := r.history.Record(ctx, event)
	if err != nil {
		r.logger.Error("failed to record order event", "error", err, "order_id", event.OrderID, "event_id", event.EventID)
		return err
	}
	if !inserted {
		r.logger.Info("order event already recorded", "order_id", event.OrderID, "event_id", event.EventID)
		return nil
	}

	r.logger.Info("order event recorded", "order_id", event.OrderID, "type", event.Type, "status", event.Status)
	return nil
}

func validate(e domain.OrderEvent) error {
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("event id: %v", err)
	}
	if e.OrderID <= 0 {
		return fmt.Errorf("order id must be positive")
	}
	switch e.Type {
	case domain.EventOrderCreated, domain.EventOrderStatusChanged, domain.EventOrderDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Status == "" {
		return fmt.Errorf("status is required")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurredAt is required")
	}
	return nil
}
