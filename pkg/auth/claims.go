package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/yupvendas/storebot/pkg/enums"
)

// AccessTokenClaims is the payload carried by every access token.
type AccessTokenClaims struct {
	UserID   uint           `json:"uid"`
	Username string         `json:"username"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AccessTokenPayload is the input for minting a token.
type AccessTokenPayload struct {
	UserID   uint
	Username string
	Role     enums.UserRole
}
