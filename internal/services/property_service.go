package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrVersionConflict = errors.New("property was modified concurrently")
	ErrUnknownImage    = errors.New("image not found on property")
	ErrBadImageOrder   = errors.New("image order must be a permutation of the current image ids")
)

// PropertyService owns all reads and writes of property records.
type PropertyService struct {
	db *gorm.DB
}

func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

// makeSlug derives a URL-safe slug from the title. The millisecond
// timestamp keeps slugs roughly sortable; the random fragment keeps
// concurrent creations with the same title unique even inside one
// millisecond.
func makeSlug(title string) string {
	return fmt.Sprintf("%s-%d-%s", slug.Make(title), time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Create assigns id, slug, timestamps and defaults, then stores the record.
func (s *PropertyService) Create(p *models.Property) (*models.Property, error) {
	p.ID = uuid.New()
	p.Slug = makeSlug(p.Title)
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}
	p.Views = 0
	p.Favorites = 0
	p.Version = 1
	if p.Amenities == nil {
		p.Amenities = datatypes.JSONSlice[string]{}
	}
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[models.ImageMeta]{}
	}

	if err := s.db.Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return p, nil
}

// FindByID returns the property or (nil, nil) on a miss. A malformed id is
// treated as a miss, not an error: the route layer probes ids and slugs with
// the same path segment.
func (s *PropertyService) FindByID(id string) (*models.Property, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	var p models.Property
	err = s.db.First(&p, "id = ?", propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PropertyService) FindBySlug(propertySlug string) (*models.Property, error) {
	var p models.Property
	err := s.db.Where("slug = ?", propertySlug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PropertyFilters translates query parameters into the listing query.
type PropertyFilters struct {
	Status       string // defaults to "active"
	City         string
	PropertyType string
	OwnerID      *uuid.UUID
	Bedrooms     *int
	IsFeatured   *bool
	MinPrice     *float64
	MaxPrice     *float64
	Limit        int
	StartAfter   string // id of the last record of the previous page
}

// FindAll lists properties ordered by price ascending, then newest-first.
// Pagination is cursor-based: StartAfter names the last-seen record, which
// is resolved to a (price, created_at, id) keyset boundary.
func (s *PropertyService) FindAll(f PropertyFilters) ([]models.Property, error) {
	status := f.Status
	if status == "" {
		status = models.PropertyStatusActive
	}

	q := s.db.Model(&models.Property{}).Where("status = ?", status)

	if f.City != "" {
		q = q.Where("location_city = ?", f.City)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.Bedrooms != nil {
		q = q.Where("bedrooms = ?", *f.Bedrooms)
	}
	if f.IsFeatured != nil {
		q = q.Where("is_featured = ?", *f.IsFeatured)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	if f.StartAfter != "" {
		anchor, err := s.FindByID(f.StartAfter)
		if err != nil {
			return nil, err
		}
		if anchor != nil {
			q = q.Where(
				"price > ? OR (price = ? AND created_at < ?) OR (price = ? AND created_at = ? AND id > ?)",
				anchor.Price, anchor.Price, anchor.CreatedAt, anchor.Price, anchor.CreatedAt, anchor.ID,
			)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	var properties []models.Property
	err := q.Order("price ASC, created_at DESC, id ASC").Limit(limit).Find(&properties).Error
	return properties, err
}

// Search applies the listing filters and then matches the term against title
// and description, case-insensitively, in memory. This is a placeholder for
// a real search index and is only acceptable at small collection sizes.
func (s *PropertyService) Search(term string, f PropertyFilters) ([]models.Property, error) {
	all, err := s.FindAll(f)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	matched := make([]models.Property, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// PropertyUpdate is a partial patch; nil fields are left untouched.
type PropertyUpdate struct {
	Title        *string
	Description  *string
	Price        *float64
	PropertyType *string
	Bedrooms     *int
	Bathrooms    *float64
	Area         *float64
	Location     *models.Location
	Amenities    []string
	IsFeatured   *bool
	AddImages    []models.ImageMeta
}

// Update merges the patch into base using an optimistic version check: if
// the row changed since base was loaded, no write happens and
// ErrVersionConflict is returned. The slug is recomputed exactly when the
// title changes.
func (s *PropertyService) Update(base *models.Property, patch *PropertyUpdate) (*models.Property, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
		"version":    base.Version + 1,
	}

	if patch.Title != nil {
		updates["title"] = *patch.Title
		updates["slug"] = makeSlug(*patch.Title)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.PropertyType != nil {
		updates["property_type"] = *patch.PropertyType
	}
	if patch.Bedrooms != nil {
		updates["bedrooms"] = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		updates["bathrooms"] = *patch.Bathrooms
	}
	if patch.Area != nil {
		updates["area"] = *patch.Area
	}
	if patch.Location != nil {
		updates["location_address"] = patch.Location.Address
		updates["location_city"] = patch.Location.City
		updates["location_state"] = patch.Location.State
		updates["location_country"] = patch.Location.Country
		updates["location_pin_code"] = patch.Location.PinCode
		updates["location_latitude"] = patch.Location.Latitude
		updates["location_longitude"] = patch.Location.Longitude
	}
	if patch.Amenities != nil {
		updates["amenities"] = datatypes.JSONSlice[string](patch.Amenities)
	}
	if patch.IsFeatured != nil {
		updates["is_featured"] = *patch.IsFeatured
	}
	if len(patch.AddImages) > 0 {
		merged := append([]models.ImageMeta{}, base.Images...)
		offset := len(merged)
		for i, img := range patch.AddImages {
			img.Order = offset + i
			merged = append(merged, img)
		}
		updates["images"] = datatypes.JSONSlice[models.ImageMeta](merged)
	}

	res := s.db.Model(&models.Property{}).
		Where("id = ? AND version = ?", base.ID, base.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	return s.FindByID(base.ID.String())
}

// Delete soft-deletes: the record keeps its data but leaves default listings.
func (s *PropertyService) Delete(id uuid.UUID) error {
	now := time.Now()
	return s.db.Model(&models.Property{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.PropertyStatusDeleted,
		"deleted_at": now,
		"updated_at": now,
	}).Error
}

// IncrementViews bumps the view counter atomically in SQL; it deliberately
// bypasses the version check so concurrent reads never conflict.
func (s *PropertyService) IncrementViews(id uuid.UUID) error {
	return s.db.Model(&models.Property{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (s *PropertyService) IncrementFavorites(id uuid.UUID) error {
	return s.db.Model(&models.Property{}).Where("id = ?", id).
		UpdateColumn("favorites", gorm.Expr("favorites + 1")).Error
}

// DecrementFavorites floors at zero.
func (s *PropertyService) DecrementFavorites(id uuid.UUID) error {
	return s.db.Model(&models.Property{}).Where("id = ?", id).
		UpdateColumn("favorites", gorm.Expr("CASE WHEN favorites > 0 THEN favorites - 1 ELSE 0 END")).Error
}

// RemoveImage detaches one image from the record and renumbers the rest.
// The removed metadata is returned so the caller can clean up storage.
func (s *PropertyService) RemoveImage(base *models.Property, imageID string) (*models.Property, *models.ImageMeta, error) {
	var removed *models.ImageMeta
	remaining := make([]models.ImageMeta, 0, len(base.Images))
	for _, img := range base.Images {
		if img.ID == imageID {
			copied := img
			removed = &copied
			continue
		}
		img.Order = len(remaining)
		remaining = append(remaining, img)
	}
	if removed == nil {
		return nil, nil, ErrUnknownImage
	}

	updated, err := s.replaceImages(base, remaining)
	if err != nil {
		return nil, nil, err
	}
	return updated, removed, nil
}

// ReorderImages rewrites the image order. orderedIDs must mention every
// current image exactly once.
func (s *PropertyService) ReorderImages(base *models.Property, orderedIDs []string) (*models.Property, error) {
	if len(orderedIDs) != len(base.Images) {
		return nil, ErrBadImageOrder
	}

	reordered := make([]models.ImageMeta, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		img := base.ImageByID(id)
		if img == nil {
			return nil, ErrBadImageOrder
		}
		for _, seen := range reordered {
			if seen.ID == id {
				return nil, ErrBadImageOrder
			}
		}
		next := *img
		next.Order = i
		reordered = append(reordered, next)
	}

	return s.replaceImages(base, reordered)
}

func (s *PropertyService) replaceImages(base *models.Property, images []models.ImageMeta) (*models.Property, error) {
	res := s.db.Model(&models.Property{}).
		Where("id = ? AND version = ?", base.ID, base.Version).
		Updates(map[string]interface{}{
			"images":     datatypes.JSONSlice[models.ImageMeta](images),
			"version":    base.Version + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update property images: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}
	return s.FindByID(base.ID.String())
}
