package controllers

import (
	"net/http"

	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/api/validators"
	"github.com/yupvendas/storebot/internal/campaign"
	"github.com/yupvendas/storebot/pkg/logger"
)

type campaignRequest struct {
	Message string `json:"message" validate:"required,min=1"`
}

// CampaignSend starts a broadcast to every registered customer. Delivery
// runs in the background; the response only acknowledges the start.
func CampaignSend(svc campaign.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req campaignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Broadcast(r.Context(), req.Message); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"started": true})
	}
}
