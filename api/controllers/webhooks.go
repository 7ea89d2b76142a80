package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/internal/dialog"
	"github.com/yupvendas/storebot/internal/payment"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

// conversationHandler is the slice of the dialogue engine the webhooks need.
type conversationHandler interface {
	HandleEvent(ctx context.Context, ev dialog.Event) error
	HandlePaymentResolution(ctx context.Context, res *payment.Resolution) error
}

// paymentResolver fetches the authoritative charge state from the provider.
type paymentResolver interface {
	Resolve(ctx context.Context, paymentID string) (*payment.Resolution, error)
}

// inboundMessage mirrors the gateway's message webhook payload. Unknown
// fields are ignored so gateway upgrades do not break intake.
type inboundMessage struct {
	Event      string `json:"event"`
	From       string `json:"from"`
	Body       string `json:"body"`
	FromMe     bool   `json:"fromMe"`
	IsGroupMsg bool   `json:"isGroupMsg"`
	NotifyName string `json:"notifyName"`
	Sender     struct {
		Pushname string `json:"pushname"`
	} `json:"sender"`
	ListResponse struct {
		SingleSelectReply struct {
			SelectedRowID string `json:"selectedRowId"`
		} `json:"singleSelectReply"`
	} `json:"listResponse"`
}

func checkWebhookToken(r *http.Request, token string) error {
	if token == "" {
		return nil
	}
	provided := strings.TrimSpace(r.Header.Get("X-Webhook-Token"))
	if provided == "" {
		provided = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if provided != token {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook token")
	}
	return nil
}

// WhatsAppWebhook receives gateway message events and feeds the dialogue
// engine. Non-message events are acknowledged and dropped.
func WhatsAppWebhook(engine conversationHandler, token string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkWebhookToken(r, token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var msg inboundMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body"))
			return
		}

		if msg.Event != "" && msg.Event != "onmessage" && msg.Event != "onMessage" {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		name := msg.NotifyName
		if name == "" {
			name = msg.Sender.Pushname
		}
		ev := dialog.Event{
			From:       msg.From,
			SenderName: name,
			Body:       msg.Body,
			ListRowID:  msg.ListResponse.SingleSelectReply.SelectedRowID,
			FromMe:     msg.FromMe,
			IsGroup:    msg.IsGroupMsg,
		}

		if err := engine.HandleEvent(r.Context(), ev); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

// PaymentWebhook receives provider notifications, re-reads the charge from
// the provider and applies the verdict. The notification body is never
// trusted beyond the payment id it carries.
func PaymentWebhook(engine conversationHandler, resolver paymentResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		paymentID, err := payment.ParseWebhook(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if paymentID == "" {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		resolution, err := resolver.Resolve(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.HandlePaymentResolution(r.Context(), resolution); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
