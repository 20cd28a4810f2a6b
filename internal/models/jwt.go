package models

// JWTClaims represents the claims read from an identity provider token
type JWTClaims struct {
	Sub      string `json:"sub"`              // Subject (user ID from provider)
	Email    string `json:"email"`            // User email
	Username string `json:"cognito:username"` // Provider username
	Exp      int64  `json:"exp"`              // Expiration time
	Iat      int64  `json:"iat"`              // Issued at
	Iss      string `json:"iss"`              // Issuer
}
