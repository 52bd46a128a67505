package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Property status values. Deletes are soft: status flips to deleted and the
// record stays retrievable by direct id lookup.
const (
	PropertyStatusActive  = "active"
	PropertyStatusDeleted = "deleted"
)

// PropertyTypes lists the accepted property_type values.
var PropertyTypes = []string{"apartment", "house", "land", "commercial", "villa"}

// Location is embedded into Property as location_* columns so city can be
// filtered with a plain indexed equality.
type Location struct {
	Address   string   `gorm:"size:255" json:"address"`
	City      string   `gorm:"size:100;index" json:"city"`
	State     string   `gorm:"size:100" json:"state"`
	Country   string   `gorm:"size:100" json:"country"`
	PinCode   string   `gorm:"size:10" json:"pinCode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ImageMeta is the single canonical shape for a stored property image. The
// upload pipeline is the only place that constructs it.
type ImageMeta struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	StoragePath  string    `json:"storagePath"`
	Size         int64     `json:"size"`
	OriginalName string    `json:"originalName"`
	Order        int       `json:"order"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Property struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string                           `gorm:"size:100;not null" json:"title"`
	Description  string                           `gorm:"type:text" json:"description"`
	Price        float64                          `gorm:"not null;index" json:"price"`
	Location     Location                         `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	PropertyType string                           `gorm:"size:20;not null;index" json:"propertyType"`
	Bedrooms     int                              `json:"bedrooms"`
	Bathrooms    float64                          `json:"bathrooms"`
	Area         float64                          `json:"area"`
	Amenities    datatypes.JSONSlice[string]      `json:"amenities"`
	Images       datatypes.JSONSlice[ImageMeta]   `json:"images"`
	OwnerID      uuid.UUID                        `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner        User                             `gorm:"foreignKey:OwnerID" json:"-"`
	IsFeatured   bool                             `gorm:"default:false;index" json:"isFeatured"`
	Status       string                           `gorm:"size:10;not null;index" json:"status"`
	Slug         string                           `gorm:"size:160;uniqueIndex" json:"slug"`
	Views        int64                            `gorm:"default:0" json:"views"`
	Favorites    int64                            `gorm:"default:0" json:"favorites"`
	Version      int                              `gorm:"default:1" json:"-"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
	DeletedAt    *time.Time                       `json:"-"`
}

// ImageByID returns the image with the given id, or nil.
func (p *Property) ImageByID(imageID string) *ImageMeta {
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			return &p.Images[i]
		}
	}
	return nil
}
