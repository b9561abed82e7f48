package orders

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
)

type LinePatch struct {
	BeverageID domain.Optional[int64]
	Quantity   domain.Optional[int]
}

func (s *Service) AddLine(ctx context.Context, caller *auth.Identity, orderID int64, in LineInput) (*domain.OrderLine, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}

	var lineID int64
	err := s.store.LockOrder(ctx, orderID, func(ctx context.Context, tx OrderTx, o *domain.Order) error {
		if err := authorize(caller, o); err != nil {
			return err
		}
		if err := requirePending(o); err != nil {
			return err
		}
		if err := s.requireActiveBeverage(ctx, in.BeverageID); err != nil {
			return err
		}
		line := &domain.OrderLine{OrderID: o.ID, BeverageID: in.BeverageID, Quantity: in.Quantity}
		if err := tx.InsertLine(ctx, line); err != nil {
			return err
		}
		lineID = line.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, orderID)
	s.logger.Info("order line added", "order_id", orderID, "line_id", lineID, "beverage_id", in.BeverageID)
	return s.store.GetLine(ctx, lineID)
}

// UpdateLine replaces beverage and quantity.
func (s *Service) UpdateLine(ctx context.Context, caller *auth.Identity, lineID int64, in LineInput) (*domain.OrderLine, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	err := s.modifyLine(ctx, caller, lineID, func(ctx context.Context, tx OrderTx, l *domain.OrderLine) error {
		if err := s.requireActiveBeverage(ctx, in.BeverageID); err != nil {
			return err
		}
		l.BeverageID = in.BeverageID
		l.Quantity = in.Quantity
		return tx.SaveLine(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetLine(ctx, lineID)
}

func (s *Service) PatchLine(ctx context.Context, caller *auth.Identity, lineID int64, in LinePatch) (*domain.OrderLine, error) {
	if in.Quantity.Set && (in.Quantity.Null || in.Quantity.Value <= 0) {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	if in.BeverageID.Set && in.BeverageID.Null {
		return nil, fmt.Errorf("%w: beverageId cannot be null", domain.ErrInvalidArgument)
	}
	err := s.modifyLine(ctx, caller, lineID, func(ctx context.Context, tx OrderTx, l *domain.OrderLine) error {
		if in.BeverageID.Set {
			if err := s.requireActiveBeverage(ctx, in.BeverageID.Value); err != nil {
				return err
			}
			l.BeverageID = in.BeverageID.Value
		}
		if in.Quantity.Set {
			l.Quantity = in.Quantity.Value
		}
		return tx.SaveLine(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetLine(ctx, lineID)
}

func (s *Service) DeleteLine(ctx context.Context, caller *auth.Identity, lineID int64) error {
	return s.modifyLine(ctx, caller, lineID, func(ctx context.Context, tx OrderTx, l *domain.OrderLine) error {
		return tx.DeleteLine(ctx, l.ID)
	})
}

// modifyLine locks the line's parent order, applies the owner-or-admin and
// Pending gates, then hands the freshly read line to fn.
func (s *Service) modifyLine(ctx context.Context, caller *auth.Identity, lineID int64, fn func(context.Context, OrderTx, *domain.OrderLine) error) error {
	existing, err := s.store.GetLine(ctx, lineID)
	if err != nil {
		return err
	}

	err = s.store.LockOrder(ctx, existing.OrderID, func(ctx context.Context, tx OrderTx, o *domain.Order) error {
		if err := authorize(caller, o); err != nil {
			return err
		}
		if err := requirePending(o); err != nil {
			return err
		}
		l, err := tx.Line(ctx, lineID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, l)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, existing.OrderID)
	s.logger.Info("order line changed", "order_id", existing.OrderID, "line_id", lineID)
	return nil
}

// GetLine returns a line if the caller may see its order.
func (s *Service) GetLine(ctx context.Context, caller *auth.Identity, lineID int64) (*domain.OrderLine, error) {
	l, err := s.store.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, caller, l.OrderID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) LinesByOrder(ctx context.Context, caller *auth.Identity, orderID int64) ([]domain.OrderLine, error) {
	o, err := s.Get(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	return o.Lines, nil
}

func (s *Service) ListLines(ctx context.Context, caller *auth.Identity) ([]domain.OrderLine, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.store.ListLines(ctx)
}
