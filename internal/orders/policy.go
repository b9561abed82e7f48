package orders

import (
	"fmt"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// authorize permits admins and the order's owner.
func authorize(caller *auth.Identity, o *domain.Order) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	if caller.IsAdmin() || o.OwnedBy(caller.UserID) {
		return nil
	}
	return fmt.Errorf("%w: order %d belongs to another user", domain.ErrForbidden, o.ID)
}

func requireAdmin(caller *auth.Identity) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

// requirePending gates line changes and deletion on a still open order.
func requirePending(o *domain.Order) error {
	if o.Status != domain.OrderStatusPending {
		return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidStateTransition, o.ID, o.Status)
	}
	return nil
}
