package chat

import (
	"context"

	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

// Sender labels for stored chat lines. Agent replies use the agent's display
// name instead.
const (
	SenderCustomer = "customer"
	SenderBot      = "bot"
)

// emitter is the live-event surface chat publishing needs.
type emitter interface {
	Emit(ctx context.Context, eventType string, payload any) error
}

// Service persists conversation history and notifies live dashboard viewers.
type Service interface {
	Record(ctx context.Context, phone, body, sender string) (*models.ChatMessage, error)
	History(ctx context.Context, phone string, limit int) ([]models.ChatMessage, error)
}

type service struct {
	repo Repository
	live emitter
	logg *logger.Logger
}

// NewService wires chat dependencies. The live emitter is optional; without
// it messages are only persisted.
func NewService(repo Repository, live emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "chat repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "chat logger required")
	}
	return &service{repo: repo, live: live, logg: logg}, nil
}

// Record stores one chat line and emits it to live viewers. Emit failures are
// logged, not returned; history persistence is the contract, the live feed is
// best-effort.
func (s *service) Record(ctx context.Context, phone, body, sender string) (*models.ChatMessage, error) {
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if sender == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender required")
	}

	message := &models.ChatMessage{
		CustomerPhone: phone,
		Body:          body,
		Sender:        sender,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store chat message")
	}

	if s.live != nil {
		event := "messageSaved"
		if sender == SenderCustomer {
			event = "newMessage"
		}
		if err := s.live.Emit(ctx, event, message); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "customer_phone", phone),
				"live emit failed: "+err.Error())
		}
	}
	return message, nil
}

func (s *service) History(ctx context.Context, phone string, limit int) ([]models.ChatMessage, error) {
	rows, err := s.repo.ListByCustomer(ctx, phone, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat history")
	}
	return rows, nil
}
