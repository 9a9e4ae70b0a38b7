package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	OperatorID uuid.UUID
	LoginName  string
	Role       enums.OperatorRole
}

// AccessTokenClaims represents the typed JWT issued to POS terminals.
type AccessTokenClaims struct {
	OperatorID uuid.UUID          `json:"operator_id"`
	LoginName  string             `json:"login_name"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
