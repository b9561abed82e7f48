package domain

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order. The wire representation is
// the lowercase string; any other value is rejected.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

// ParseOrderStatus accepts only the canonical status literals.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// UnmarshalText rejects anything that is not a canonical status literal, so
// numeric or differently cased values never reach the lifecycle engine.
func (s *OrderStatus) UnmarshalText(b []byte) error {
	st, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// CanTransition reports whether an order may move from one status to another.
// Pending is the only non-terminal state.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderStatusPending && to.IsTerminal()
}

type OrderLine struct {
	ID         int64            `json:"id"`
	OrderID    int64            `json:"orderId"`
	BeverageID int64            `json:"beverageId"`
	Quantity   int              `json:"quantity"`
	Beverage   *BeverageSummary `json:"beverage,omitempty"`
}

// Order is a tea-room order. RoomID is zero once its room has been deleted.
type Order struct {
	ID        int64        `json:"id"`
	Note      *string      `json:"note"`
	RoomID    int64        `json:"roomId"`
	Status    OrderStatus  `json:"status"`
	OwnerID   *int64       `json:"ownerId"`
	Owner     *UserSummary `json:"owner,omitempty"`
	Lines     []OrderLine  `json:"lines"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// OwnedBy reports whether userID is the order's owner.
func (o *Order) OwnedBy(userID int64) bool {
	return o.OwnerID != nil && *o.OwnerID == userID
}
