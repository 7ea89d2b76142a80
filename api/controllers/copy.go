package controllers

import (
	"net/http"

	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/api/validators"
	"github.com/yupvendas/storebot/internal/dialog"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

type setCopyRequest struct {
	Key     string `json:"key" validate:"required"`
	Content string `json:"content" validate:"required,min=1"`
}

type copyEntry struct {
	Key        string `json:"key"`
	Default    string `json:"default"`
	Override   string `json:"override,omitempty"`
	Overridden bool   `json:"overridden"`
}

// CopyList returns every bot message with its default text and any override.
func CopyList(repo dialog.CopyRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overrides, err := repo.All(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		defaults := dialog.Defaults()
		out := make([]copyEntry, 0, len(defaults))
		for key, text := range defaults {
			entry := copyEntry{Key: key, Default: text}
			if override, ok := overrides[key]; ok {
				entry.Override = override
				entry.Overridden = true
			}
			out = append(out, entry)
		}
		responses.WriteSuccess(w, out)
	}
}

// CopySet overrides the text of one bot message. The bot reads overrides
// fresh on every send, so changes apply immediately.
func CopySet(repo dialog.CopyRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setCopyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !dialog.ValidCopyKey(req.Key) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown message key"))
			return
		}
		if err := dialog.SetCopy(r.Context(), repo, req.Key, req.Content); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"key": req.Key, "content": req.Content})
	}
}
