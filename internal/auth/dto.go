package auth

import "github.com/tavernkeep/bazaar-backend/internal/dms"

// LoginRequest carries DM credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	DM          *dms.DMDTO `json:"dm"`
}

// RegisterRequest contains the payload required to onboard a new DM.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=80"`
	Password    string `json:"password" validate:"required,min=8"`
}

// RegisterResponse mirrors the login response so clients can sign in
// immediately after registering.
type RegisterResponse struct {
	AccessToken string     `json:"access_token"`
	DM          *dms.DMDTO `json:"dm"`
}
