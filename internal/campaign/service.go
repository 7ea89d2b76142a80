package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

// sender is the outbound surface the broadcast needs.
type sender interface {
	SendText(ctx context.Context, to, body string) error
}

// customerLister supplies the audience.
type customerLister interface {
	List(ctx context.Context) ([]models.Customer, error)
}

// adminResolver supplies the admin phone for the completion summary.
type adminResolver interface {
	AdminPhone(ctx context.Context) (string, error)
}

// Service broadcasts a message to every registered customer. Sends are paced
// with a fixed delay so the gateway does not rate-limit or flag the session.
type Service interface {
	Broadcast(ctx context.Context, message string) error
}

type service struct {
	customers customerLister
	messenger sender
	settings  adminResolver
	delay     time.Duration
	logg      *logger.Logger
}

// NewService wires campaign dependencies.
func NewService(customers customerLister, messenger sender, settings adminResolver, delay time.Duration, logg *logger.Logger) (Service, error) {
	if customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "campaign customer source required")
	}
	if messenger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "campaign messenger required")
	}
	if settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "campaign settings required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "campaign logger required")
	}
	if delay <= 0 {
		delay = 2500 * time.Millisecond
	}
	return &service{
		customers: customers,
		messenger: messenger,
		settings:  settings,
		delay:     delay,
		logg:      logg,
	}, nil
}

// Broadcast validates the message, then runs the send loop in the background
// and returns immediately. {nome} in the message is replaced with each
// customer's name.
func (s *service) Broadcast(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "campaign message required")
	}
	audience, err := s.customers.List(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaign audience")
	}
	if len(audience) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no registered customers to message")
	}

	go s.run(context.WithoutCancel(ctx), message, audience)
	return nil
}

func (s *service) run(ctx context.Context, message string, audience []models.Customer) {
	var errs error
	sent := 0
	for i, customer := range audience {
		if i > 0 {
			time.Sleep(s.delay)
		}
		body := personalize(message, customer)
		if err := s.messenger.SendText(ctx, customer.Phone, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", customer.Phone, err))
			continue
		}
		sent++
	}

	fields := map[string]any{"sent": sent, "failed": len(audience) - sent}
	if errs != nil {
		s.logg.Error(s.logg.WithFields(ctx, fields), "campaign finished with failures", errs)
	} else {
		s.logg.Info(s.logg.WithFields(ctx, fields), "campaign finished")
	}

	adminPhone, err := s.settings.AdminPhone(ctx)
	if err != nil || adminPhone == "" {
		return
	}
	summary := fmt.Sprintf("Campanha concluída: %d enviadas, %d falhas.", sent, len(audience)-sent)
	if err := s.messenger.SendText(ctx, adminPhone, summary); err != nil {
		s.logg.Warn(ctx, "campaign summary send failed: "+err.Error())
	}
}

func personalize(message string, customer models.Customer) string {
	name := "cliente"
	if customer.Name != nil && *customer.Name != "" {
		name = *customer.Name
	}
	return strings.ReplaceAll(message, "{nome}", name)
}
