package models

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims are the claims carried by a signed access token.
// Access tokens are stateless: validity is determined entirely by the
// signature and the exp claim.
type AccessTokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
