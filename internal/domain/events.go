package domain

import "time"

type OrderEventType string

const (
	EventOrderCreated       OrderEventType = "order.created"
	EventOrderStatusChanged OrderEventType = "order.status_changed"
	EventOrderDeleted       OrderEventType = "order.deleted"
)

// OrderEvent is published on the lifecycle topic, keyed by order id.
type OrderEvent struct {
	EventID        string         `json:"eventId"`
	Type           OrderEventType `json:"type"`
	OrderID        int64          `json:"orderId"`
	OwnerID        *int64         `json:"ownerId,omitempty"`
	ActorID        int64          `json:"actorId"`
	Status         OrderStatus    `json:"status"`
	PreviousStatus OrderStatus    `json:"previousStatus,omitempty"`
	OccurredAt     time.Time      `json:"occurredAt"`
}
