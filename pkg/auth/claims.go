package auth

import (
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorTokenPayload captures the data available when minting an operator JWT.
type OperatorTokenPayload struct {
	OperatorID string
	Name       string
	Role       enums.OperatorRole
	JTI        string
}

// OperatorClaims represents the typed JWT presented by console operators.
type OperatorClaims struct {
	OperatorID string             `json:"operator_id"`
	Name       string             `json:"name,omitempty"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
