package waitlist

import (
	"context"

	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

// sender is the outbound surface the fan-out needs.
type sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Service defines restock waitlist operations.
type Service interface {
	Subscribe(ctx context.Context, phone string, productID uint) error
	Flush(ctx context.Context, productID uint, message string) (int, error)
	Forget(ctx context.Context, phone string) error
}

type service struct {
	repo      Repository
	messenger sender
	logg      *logger.Logger
}

// NewService wires waitlist dependencies.
func NewService(repo Repository, messenger sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "waitlist repository required")
	}
	if messenger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "waitlist messenger required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "waitlist logger required")
	}
	return &service{repo: repo, messenger: messenger, logg: logg}, nil
}

// Subscribe adds the customer to the product's waitlist. A repeat
// subscription surfaces as a Conflict.
func (s *service) Subscribe(ctx context.Context, phone string, productID uint) error {
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if productID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	err := s.repo.Create(ctx, &models.StockNotification{
		CustomerPhone: phone,
		ProductID:     productID,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "already on the waitlist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to waitlist")
	}
	return nil
}

// Flush sends the restock message to every subscriber and clears the
// product's waitlist. A failed send is logged and skipped so one unreachable
// customer never blocks the rest, and never blocks the stock update that
// triggered the flush.
func (s *service) Flush(ctx context.Context, productID uint, message string) (int, error) {
	subs, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waitlist")
	}
	if len(subs) == 0 {
		return 0, nil
	}

	notified := 0
	for _, sub := range subs {
		if err := s.messenger.SendText(ctx, sub.CustomerPhone, message); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "customer_phone", sub.CustomerPhone),
				"restock notification failed: "+err.Error())
			continue
		}
		notified++
	}

	if err := s.repo.DeleteByProduct(ctx, productID); err != nil {
		return notified, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear waitlist")
	}
	return notified, nil
}

// Forget drops all of the customer's subscriptions, used when a customer is
// removed.
func (s *service) Forget(ctx context.Context, phone string) error {
	if err := s.repo.DeleteByCustomer(ctx, phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "forget waitlist customer")
	}
	return nil
}
