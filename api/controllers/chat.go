package controllers

import (
	"net/http"

	"github.com/yupvendas/storebot/api/middleware"
	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/api/validators"
	"github.com/yupvendas/storebot/internal/chat"
	"github.com/yupvendas/storebot/internal/whatsapp"
	"github.com/yupvendas/storebot/pkg/logger"
)

type sendMessageRequest struct {
	Message string `json:"message" validate:"required,min=1"`
}

// ChatHistory returns the stored conversation for one customer, oldest first.
func ChatHistory(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), phone, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// ChatSend delivers a manual reply from the dashboard and stores it under
// the sending agent's username.
func ChatSend(svc chat.Service, messenger whatsapp.Messenger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := customerPhoneParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req sendMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := messenger.SendText(r.Context(), phone, req.Message); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sender := middleware.UsernameFromContext(r.Context())
		if sender == "" {
			sender = chat.SenderBot
		}
		message, err := svc.Record(r.Context(), phone, req.Message, sender)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message)
	}
}
