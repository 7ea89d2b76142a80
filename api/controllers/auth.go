package controllers

import (
	"net/http"
	"time"

	"github.com/yupvendas/storebot/api/responses"
	"github.com/yupvendas/storebot/api/validators"
	"github.com/yupvendas/storebot/internal/users"
	pkgauth "github.com/yupvendas/storebot/pkg/auth"
	"github.com/yupvendas/storebot/pkg/config"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
	"github.com/yupvendas/storebot/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// AuthLogin exchanges dashboard credentials for an access token.
func AuthLogin(svc users.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now().UTC()
		token, err := pkgauth.MintAccessToken(cfg, now, pkgauth.AccessTokenPayload{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "username", user.Username), "auth.login")
		}
		responses.WriteSuccess(w, loginResponse{
			Token:     token,
			ExpiresAt: now.Add(cfg.Expiration()),
			User: userResponse{
				ID:       user.ID,
				Username: user.Username,
				Name:     user.Name,
				Role:     string(user.Role),
			},
		})
	}
}
