package models

import "github.com/golang-jwt/jwt/v5"

// Credentials is the login payload.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenClaims is the payload segment of the issued bearer token. The client
// decodes it without verification, purely to show who is signed in.
type TokenClaims struct {
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	jwt.RegisteredClaims
}
