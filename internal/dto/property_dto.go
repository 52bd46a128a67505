package dto

// LocationPayload mirrors the location object of the create/update forms.
type LocationPayload struct {
	Address   string   `json:"address" validate:"required,min=10"`
	City      string   `json:"city" validate:"required,min=2"`
	State     string   `json:"state" validate:"required,min=2"`
	Country   string   `json:"country" validate:"required,min=2"`
	PinCode   string   `json:"pinCode" validate:"required,min=4,max=10"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// CreatePropertyRequest is assembled from the multipart form fields; image
// files travel separately.
type CreatePropertyRequest struct {
	Title        string          `json:"title" validate:"required,min=5,max=100"`
	Description  string          `json:"description" validate:"required,min=20,max=1000"`
	Price        float64         `json:"price" validate:"required,gte=0"`
	PropertyType string          `json:"propertyType" validate:"required,oneof=apartment house land commercial villa"`
	Bedrooms     int             `json:"bedrooms" validate:"gte=0"`
	Bathrooms    float64         `json:"bathrooms" validate:"gte=0"`
	Area         float64         `json:"area" validate:"required,gt=0"`
	Location     LocationPayload `json:"location" validate:"required"`
	Amenities    []string        `json:"amenities"`
	IsFeatured   bool            `json:"isFeatured"`
}

// UpdatePropertyRequest is a partial patch; absent fields stay untouched.
type UpdatePropertyRequest struct {
	Title        *string          `json:"title" validate:"omitempty,min=5,max=100"`
	Description  *string          `json:"description" validate:"omitempty,min=20,max=1000"`
	Price        *float64         `json:"price" validate:"omitempty,gte=0"`
	PropertyType *string          `json:"propertyType" validate:"omitempty,oneof=apartment house land commercial villa"`
	Bedrooms     *int             `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms    *float64         `json:"bathrooms" validate:"omitempty,gte=0"`
	Area         *float64         `json:"area" validate:"omitempty,gt=0"`
	Location     *LocationPayload `json:"location" validate:"omitempty"`
	Amenities    []string         `json:"amenities"`
	IsFeatured   *bool            `json:"isFeatured"`
}

type ReorderImagesRequest struct {
	ImageIDs []string `json:"imageIds"`
}
