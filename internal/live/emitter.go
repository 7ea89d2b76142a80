package live

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/redis"
)

// Event names published for dashboard live views.
const (
	EventNewMessage    = "newMessage"
	EventMessageSaved  = "messageSaved"
	EventPaymentUpdate = "paymentUpdate"
)

// Event is the envelope published on the events channel.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// publisher is the slice of the redis client the emitter needs.
type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Emitter broadcasts dashboard events over Redis pub/sub. Any number of
// dashboard processes can subscribe without the bot knowing about them.
type Emitter struct {
	pub publisher
}

// NewEmitter wires the live event publisher.
func NewEmitter(pub publisher) (*Emitter, error) {
	if pub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "live publisher required")
	}
	return &Emitter{pub: pub}, nil
}

// Emit publishes one event. Delivery is best-effort; subscribers that are
// offline simply miss it.
func (e *Emitter) Emit(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(Event{
		Type:    eventType,
		Payload: payload,
		At:      time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode live event")
	}
	if err := e.pub.Publish(ctx, redis.EventsChannel, body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish live event")
	}
	return nil
}
