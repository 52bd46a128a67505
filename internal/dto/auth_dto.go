package dto

import "github.com/rohanmhetar/nivaasa-backend/internal/models"

// PhoneAuthRequest carries the identity-provider ID token obtained by the
// client after completing the OTP flow.
type PhoneAuthRequest struct {
	IDToken string `json:"idToken"`
	Name    string `json:"name,omitempty"`
	Aadhaar string `json:"aadhaar,omitempty"`
	Email   string `json:"email,omitempty"`
}

type PhoneAuthResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	User      *models.User `json:"user"`
	IsNewUser bool         `json:"isNewUser"`
}

type PasswordLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type CheckAuthMethodRequest struct {
	Phone string `json:"phone"`
}

type CheckAuthMethodResponse struct {
	Success    bool   `json:"success"`
	AuthMethod string `json:"authMethod"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}
