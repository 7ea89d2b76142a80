package payment

import (
	"encoding/json"

	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

type webhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseWebhook extracts the payment id from a provider webhook body. Events
// that are not payment notifications return an empty id and no error.
func ParseWebhook(body []byte) (string, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if payload.Type != "" && payload.Type != "payment" {
		return "", nil
	}
	return payload.Data.ID.String(), nil
}
