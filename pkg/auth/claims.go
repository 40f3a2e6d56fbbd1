package auth

import (
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uint
	Username string
	Role     enums.UserRole
	TeamID   *uint
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. TeamID is
// snapshotted at mint time and refreshes on the next login.
type AccessTokenClaims struct {
	UserID   uint           `json:"user_id"`
	Username string         `json:"username"`
	Role     enums.UserRole `json:"role"`
	TeamID   *uint          `json:"team_id,omitempty"`
	jwt.RegisteredClaims
}
