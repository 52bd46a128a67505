package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/cache"
	"github.com/rohanmhetar/nivaasa-backend/internal/dto"
	"github.com/rohanmhetar/nivaasa-backend/internal/middleware"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
	"github.com/rohanmhetar/nivaasa-backend/internal/uploads"
	"github.com/rohanmhetar/nivaasa-backend/internal/validation"
)

// imageBasePath namespaces stored property images in the object store.
const imageBasePath = "properties"

type PropertyHandler struct {
	propertyService *services.PropertyService
	uploader        *uploads.Uploader
	listingCache    *cache.ListingCache
}

func NewPropertyHandler(propertyService *services.PropertyService, uploader *uploads.Uploader, listingCache *cache.ListingCache) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		uploader:        uploader,
		listingCache:    listingCache,
	}
}

// List handles GET /properties.
func (h *PropertyHandler) List(c *fiber.Ctx) error {
	filters, fieldErrs := parseListFilters(c)
	if fieldErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Invalid query parameters", Errors: fieldErrs,
		})
	}

	cacheKey := h.listingCache.Key(queryMap(c))
	var cached []models.Property
	if hit, err := h.listingCache.Get(c.UserContext(), cacheKey, &cached); err == nil && hit {
		return c.JSON(fiber.Map{"properties": cached, "count": len(cached)})
	}

	properties, err := h.propertyService.FindAll(filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch properties",
		})
	}

	if err := h.listingCache.Set(c.UserContext(), cacheKey, properties); err != nil {
		slog.Warn("listing cache write failed", "error", err)
	}

	return c.JSON(fiber.Map{"properties": properties, "count": len(properties)})
}

// Search handles GET /properties/search. The q parameter is mandatory.
func (h *PropertyHandler) Search(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Search term 'q' is required",
		})
	}

	filters, fieldErrs := parseListFilters(c)
	if fieldErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Invalid query parameters", Errors: fieldErrs,
		})
	}

	properties, err := h.propertyService.Search(term, filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Search failed",
		})
	}

	return c.JSON(fiber.Map{"properties": properties, "count": len(properties)})
}

// MyProperties handles GET /properties/user/my-properties.
func (h *PropertyHandler) MyProperties(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	filters, fieldErrs := parseListFilters(c)
	if fieldErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Invalid query parameters", Errors: fieldErrs,
		})
	}
	filters.OwnerID = &user.ID

	properties, err := h.propertyService.FindAll(filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch properties",
		})
	}

	return c.JSON(fiber.Map{"properties": properties, "count": len(properties)})
}

// GetByIDOrSlug handles GET /properties/:idOrSlug. The slug is probed
// first; the same path segment may also be a raw id.
func (h *PropertyHandler) GetByIDOrSlug(c *fiber.Ctx) error {
	idOrSlug := c.Params("idOrSlug")

	property, err := h.propertyService.FindBySlug(idOrSlug)
	if err == nil && property == nil {
		property, err = h.propertyService.FindByID(idOrSlug)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch property",
		})
	}
	if property == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Property not found",
		})
	}

	if err := h.propertyService.IncrementViews(property.ID); err != nil {
		slog.Warn("view counter update failed", "property_id", property.ID, "error", err)
	}

	return c.JSON(property)
}

// Create handles POST /properties (multipart).
func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	req, fieldErrs := parsePropertyForm(c)
	if fieldErrs == nil {
		fieldErrs = validation.Struct(req)
	}
	if fieldErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Errors: fieldErrs,
		})
	}

	files, err := formFiles(c, "images")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Malformed multipart request",
		})
	}

	imageMetas, err := h.uploader.UploadBatch(c.UserContext(), files, imageBasePath)
	if err != nil {
		return uploadError(c, err)
	}

	property := &models.Property{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		PropertyType: req.PropertyType,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		Location: models.Location{
			Address:   req.Location.Address,
			City:      req.Location.City,
			State:     req.Location.State,
			Country:   req.Location.Country,
			PinCode:   req.Location.PinCode,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		},
		Amenities:  req.Amenities,
		Images:     imageMetas,
		OwnerID:    user.ID,
		IsFeatured: req.IsFeatured,
	}

	created, err := h.propertyService.Create(property)
	if err != nil {
		h.uploader.Cleanup(c.UserContext(), imageMetas)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create property",
		})
	}

	h.invalidateListings(c)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update handles PUT /properties/:id. Owner-only; accepts JSON or multipart
// with optional new images.
func (h *PropertyHandler) Update(c *fiber.Ctx) error {
	property, errResp := h.loadOwned(c)
	if errResp != nil {
		return errResp(c)
	}

	var req dto.UpdatePropertyRequest
	var newImages []models.ImageMeta

	if strings.Contains(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		parsed, fieldErrs := parsePropertyPatchForm(c)
		if fieldErrs != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
				Error: true, Message: "Validation failed", Errors: fieldErrs,
			})
		}
		req = *parsed

		files, err := formFiles(c, "images")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Malformed multipart request",
			})
		}
		newImages, err = h.uploader.UploadBatch(c.UserContext(), files, imageBasePath)
		if err != nil {
			return uploadError(c, err)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if fieldErrs := validation.Struct(&req); fieldErrs != nil {
		h.uploader.Cleanup(c.UserContext(), newImages)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Errors: fieldErrs,
		})
	}

	patch := &services.PropertyUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		PropertyType: req.PropertyType,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		Amenities:    req.Amenities,
		IsFeatured:   req.IsFeatured,
		AddImages:    newImages,
	}
	if req.Location != nil {
		patch.Location = &models.Location{
			Address:   req.Location.Address,
			City:      req.Location.City,
			State:     req.Location.State,
			Country:   req.Location.Country,
			PinCode:   req.Location.PinCode,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}

	updated, err := h.propertyService.Update(property, patch)
	if err != nil {
		h.uploader.Cleanup(c.UserContext(), newImages)
		if errors.Is(err, services.ErrVersionConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Property was modified by another request. Please retry.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update property",
		})
	}

	h.invalidateListings(c)
	return c.JSON(updated)
}

// Delete handles DELETE /properties/:id: soft delete plus best-effort
// removal of stored images. Cleanup failures are logged, never fatal.
func (h *PropertyHandler) Delete(c *fiber.Ctx) error {
	property, errResp := h.loadOwned(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.propertyService.Delete(property.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete property",
		})
	}

	h.uploader.Cleanup(c.UserContext(), property.Images)
	h.invalidateListings(c)
	return c.JSON(fiber.Map{"message": "Property removed"})
}

// DeleteImage handles DELETE /properties/:id/images/:imageId.
func (h *PropertyHandler) DeleteImage(c *fiber.Ctx) error {
	property, errResp := h.loadOwned(c)
	if errResp != nil {
		return errResp(c)
	}

	updated, removed, err := h.propertyService.RemoveImage(property, c.Params("imageId"))
	if err != nil {
		if errors.Is(err, services.ErrUnknownImage) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Image not found",
			})
		}
		if errors.Is(err, services.ErrVersionConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Property was modified by another request. Please retry.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to remove image",
		})
	}

	h.uploader.Cleanup(c.UserContext(), []models.ImageMeta{*removed})
	h.invalidateListings(c)
	return c.JSON(updated)
}

// ReorderImages handles PUT /properties/:id/images/reorder.
func (h *PropertyHandler) ReorderImages(c *fiber.Ctx) error {
	property, errResp := h.loadOwned(c)
	if errResp != nil {
		return errResp(c)
	}

	var req dto.ReorderImagesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	updated, err := h.propertyService.ReorderImages(property, req.ImageIDs)
	if err != nil {
		if errors.Is(err, services.ErrBadImageOrder) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrVersionConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Property was modified by another request. Please retry.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to reorder images",
		})
	}

	h.invalidateListings(c)
	return c.JSON(updated)
}

// Favorite handles POST /properties/:id/favorite.
func (h *PropertyHandler) Favorite(c *fiber.Ctx) error {
	return h.adjustFavorites(c, h.propertyService.IncrementFavorites)
}

// Unfavorite handles DELETE /properties/:id/favorite.
func (h *PropertyHandler) Unfavorite(c *fiber.Ctx) error {
	return h.adjustFavorites(c, h.propertyService.DecrementFavorites)
}

func (h *PropertyHandler) adjustFavorites(c *fiber.Ctx, adjust func(uuid.UUID) error) error {
	property, err := h.propertyService.FindByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch property",
		})
	}
	if property == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Property not found",
		})
	}

	if err := adjust(property.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update favorites",
		})
	}

	return c.JSON(fiber.Map{"message": "Favorites updated"})
}

// loadOwned fetches the property named by :id and enforces ownership. On
// failure it returns a responder carrying the proper status.
func (h *PropertyHandler) loadOwned(c *fiber.Ctx) (*models.Property, func(*fiber.Ctx) error) {
	user := middleware.CurrentUser(c)

	property, err := h.propertyService.FindByID(c.Params("id"))
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to fetch property",
			})
		}
	}
	if property == nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Property not found",
			})
		}
	}
	if property.OwnerID != user.ID {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Not authorized to modify this property",
			})
		}
	}
	return property, nil
}

func (h *PropertyHandler) invalidateListings(c *fiber.Ctx) {
	if err := h.listingCache.Invalidate(c.UserContext()); err != nil {
		slog.Warn("listing cache invalidation failed", "error", err)
	}
}

func uploadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, uploads.ErrTooManyFiles) ||
		errors.Is(err, uploads.ErrFileTooLarge) ||
		errors.Is(err, uploads.ErrNotAnImage) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Image upload failed",
	})
}

func formFiles(c *fiber.Ctx, field string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, nil
	}
	return form.File[field], nil
}

// parsePropertyForm assembles the create payload from multipart fields.
// location arrives as a JSON string; amenities as a comma-separated list.
func parsePropertyForm(c *fiber.Ctx) (*dto.CreatePropertyRequest, []dto.FieldError) {
	var fieldErrs []dto.FieldError
	req := &dto.CreatePropertyRequest{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  strings.TrimSpace(c.FormValue("description")),
		PropertyType: strings.TrimSpace(c.FormValue("propertyType")),
		Amenities:    splitAmenities(c.FormValue("amenities")),
	}

	req.Price = parseFloatField(c.FormValue("price"), "price", &fieldErrs)
	req.Bedrooms = parseIntField(c.FormValue("bedrooms"), "bedrooms", &fieldErrs)
	req.Bathrooms = parseFloatField(c.FormValue("bathrooms"), "bathrooms", &fieldErrs)
	req.Area = parseFloatField(c.FormValue("area"), "area", &fieldErrs)
	req.IsFeatured = c.FormValue("isFeatured") == "true"

	if loc := c.FormValue("location"); loc != "" {
		if err := json.Unmarshal([]byte(loc), &req.Location); err != nil {
			fieldErrs = append(fieldErrs, dto.FieldError{
				Field: "location", Message: "location must be a JSON object",
			})
		}
	}

	return req, fieldErrs
}

// parsePropertyPatchForm reads only the fields present in the form, so an
// omitted field stays nil and the record keeps its value.
func parsePropertyPatchForm(c *fiber.Ctx) (*dto.UpdatePropertyRequest, []dto.FieldError) {
	var fieldErrs []dto.FieldError
	req := &dto.UpdatePropertyRequest{}

	if v, ok := formValue(c, "title"); ok {
		trimmed := strings.TrimSpace(v)
		req.Title = &trimmed
	}
	if v, ok := formValue(c, "description"); ok {
		trimmed := strings.TrimSpace(v)
		req.Description = &trimmed
	}
	if v, ok := formValue(c, "propertyType"); ok {
		trimmed := strings.TrimSpace(v)
		req.PropertyType = &trimmed
	}
	if v, ok := formValue(c, "price"); ok {
		f := parseFloatField(v, "price", &fieldErrs)
		req.Price = &f
	}
	if v, ok := formValue(c, "bedrooms"); ok {
		n := parseIntField(v, "bedrooms", &fieldErrs)
		req.Bedrooms = &n
	}
	if v, ok := formValue(c, "bathrooms"); ok {
		f := parseFloatField(v, "bathrooms", &fieldErrs)
		req.Bathrooms = &f
	}
	if v, ok := formValue(c, "area"); ok {
		f := parseFloatField(v, "area", &fieldErrs)
		req.Area = &f
	}
	if v, ok := formValue(c, "amenities"); ok {
		req.Amenities = splitAmenities(v)
	}
	if v, ok := formValue(c, "isFeatured"); ok {
		b := v == "true"
		req.IsFeatured = &b
	}
	if v, ok := formValue(c, "location"); ok {
		var loc dto.LocationPayload
		if err := json.Unmarshal([]byte(v), &loc); err != nil {
			fieldErrs = append(fieldErrs, dto.FieldError{
				Field: "location", Message: "location must be a JSON object",
			})
		} else {
			req.Location = &loc
		}
	}

	return req, fieldErrs
}

func formValue(c *fiber.Ctx, key string) (string, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return "", false
	}
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func splitAmenities(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFloatField(raw, field string, fieldErrs *[]dto.FieldError) float64 {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*fieldErrs = append(*fieldErrs, dto.FieldError{
			Field: field, Message: field + " must be a number",
		})
		return 0
	}
	return f
}

func parseIntField(raw, field string, fieldErrs *[]dto.FieldError) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*fieldErrs = append(*fieldErrs, dto.FieldError{
			Field: field, Message: field + " must be an integer",
		})
		return 0
	}
	return n
}

// parseListFilters translates listing query parameters.
func parseListFilters(c *fiber.Ctx) (services.PropertyFilters, []dto.FieldError) {
	var fieldErrs []dto.FieldError
	filters := services.PropertyFilters{
		City:         c.Query("city"),
		PropertyType: c.Query("propertyType"),
		Limit:        c.QueryInt("limit", 50),
		StartAfter:   c.Query("startAfter"),
	}

	if v := c.Query("minPrice"); v != "" {
		f := parseFloatField(v, "minPrice", &fieldErrs)
		filters.MinPrice = &f
	}
	if v := c.Query("maxPrice"); v != "" {
		f := parseFloatField(v, "maxPrice", &fieldErrs)
		filters.MaxPrice = &f
	}
	if v := c.Query("bedrooms"); v != "" {
		n := parseIntField(v, "bedrooms", &fieldErrs)
		filters.Bedrooms = &n
	}
	if v := c.Query("featured"); v != "" {
		b := v == "true"
		filters.IsFeatured = &b
	}

	return filters, fieldErrs
}

// queryMap captures the listing parameters for cache key derivation.
func queryMap(c *fiber.Ctx) map[string]string {
	out := make(map[string]string)
	for _, key := range []string{"city", "propertyType", "minPrice", "maxPrice", "bedrooms", "featured", "limit", "startAfter"} {
		if v := c.Query(key); v != "" {
			out[key] = v
		}
	}
	return out
}
