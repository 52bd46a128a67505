package dto

// UpdateProfileRequest is the self-service profile patch. Subject id, phone
// and role are deliberately absent.
type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Aadhaar *string `json:"aadhaar" validate:"omitempty,len=12,numeric"`
}
