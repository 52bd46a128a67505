package services

import (
	"strings"
	"testing"

	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCreatePropertyDefaults(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")

	p := seedProperty(t, db, owner, nil)

	require.NotEqual(t, "", p.ID.String())
	require.Equal(t, models.PropertyStatusActive, p.Status)
	require.Equal(t, 1, p.Version)
	require.Equal(t, int64(0), p.Views)
	require.Equal(t, int64(0), p.Favorites)
	require.True(t, strings.HasPrefix(p.Slug, "spacious-2bhk-apartment-"))
}

func TestCreateSameTitleGetsDistinctSlugs(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")

	first := seedProperty(t, db, owner, nil)
	second := seedProperty(t, db, owner, nil)

	require.NotEqual(t, first.Slug, second.Slug)
}

func TestCreateBurstSameTitleAllSucceed(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)

	// Back-to-back creates land inside the same millisecond; the unique
	// index on slug must not reject any of them.
	slugs := make(map[string]bool, 50)
	for i := 0; i < 50; i++ {
		created, err := svc.Create(&models.Property{
			Title:        "Spacious 2BHK Apartment",
			Description:  "A bright two bedroom flat close to the metro station.",
			Price:        25000,
			PropertyType: "apartment",
			Area:         1100,
			OwnerID:      owner.ID,
		})
		require.NoError(t, err)
		require.False(t, slugs[created.Slug], "slug %q repeated", created.Slug)
		slugs[created.Slug] = true
	}
}

func TestFindByIDMalformedIDIsAMiss(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	p, err := svc.FindByID("spacious-2bhk-apartment-123")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestFindBySlug(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	created := seedProperty(t, db, owner, nil)
	svc := NewPropertyService(db)

	found, err := svc.FindBySlug(created.Slug)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.ID, found.ID)

	missing, err := svc.FindBySlug("no-such-slug-1")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSoftDeleteHidesFromListings(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)

	keep := seedProperty(t, db, owner, nil)
	gone := seedProperty(t, db, owner, nil)

	require.NoError(t, svc.Delete(gone.ID))

	listed, err := svc.FindAll(PropertyFilters{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, keep.ID, listed[0].ID)

	// The record itself survives for direct lookup.
	direct, err := svc.FindByID(gone.ID.String())
	require.NoError(t, err)
	require.NotNil(t, direct)
	require.Equal(t, models.PropertyStatusDeleted, direct.Status)
	require.NotNil(t, direct.DeletedAt)
}

func TestFindAllFilters(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	other := seedUser(t, db, "+922222222222")
	svc := NewPropertyService(db)

	seedProperty(t, db, owner, func(p *models.Property) {
		p.Title = "Luxury Villa With Pool"
		p.PropertyType = "villa"
		p.Price = 90000
		p.Bedrooms = 4
		p.Location.City = "Goa"
		p.IsFeatured = true
	})
	seedProperty(t, db, owner, func(p *models.Property) {
		p.Title = "Budget Villa"
		p.PropertyType = "villa"
		p.Price = 30000
		p.Bedrooms = 3
		p.Location.City = "Goa"
	})
	seedProperty(t, db, other, func(p *models.Property) {
		p.Price = 20000
	})

	villas, err := svc.FindAll(PropertyFilters{PropertyType: "villa"})
	require.NoError(t, err)
	require.Len(t, villas, 2)

	expensive, err := svc.FindAll(PropertyFilters{PropertyType: "villa", MinPrice: ptr(50000.0)})
	require.NoError(t, err)
	require.Len(t, expensive, 1)
	require.Equal(t, "Luxury Villa With Pool", expensive[0].Title)

	cheap, err := svc.FindAll(PropertyFilters{MaxPrice: ptr(25000.0)})
	require.NoError(t, err)
	require.Len(t, cheap, 1)

	goan, err := svc.FindAll(PropertyFilters{City: "Goa"})
	require.NoError(t, err)
	require.Len(t, goan, 2)

	fourBed, err := svc.FindAll(PropertyFilters{Bedrooms: ptr(4)})
	require.NoError(t, err)
	require.Len(t, fourBed, 1)

	featured, err := svc.FindAll(PropertyFilters{IsFeatured: ptr(true)})
	require.NoError(t, err)
	require.Len(t, featured, 1)

	mine, err := svc.FindAll(PropertyFilters{OwnerID: &other.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, other.ID, mine[0].OwnerID)
}

func TestFindAllOrdersByPriceThenNewest(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)

	seedProperty(t, db, owner, func(p *models.Property) { p.Title = "Mid"; p.Price = 20000 })
	olderSamePrice := seedProperty(t, db, owner, func(p *models.Property) { p.Title = "Cheap Old"; p.Price = 10000 })
	newerSamePrice := seedProperty(t, db, owner, func(p *models.Property) { p.Title = "Cheap New"; p.Price = 10000 })

	listed, err := svc.FindAll(PropertyFilters{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, newerSamePrice.ID, listed[0].ID)
	require.Equal(t, olderSamePrice.ID, listed[1].ID)
	require.Equal(t, "Mid", listed[2].Title)
}

func TestFindAllCursorPagination(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)

	for i := 0; i < 5; i++ {
		seedProperty(t, db, owner, func(p *models.Property) {
			p.Price = float64(10000 + i*1000)
		})
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := svc.FindAll(PropertyFilters{Limit: 2, StartAfter: cursor})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, p := range page {
			require.False(t, seen[p.ID.String()], "property repeated across pages")
			seen[p.ID.String()] = true
		}
		cursor = page[len(page)-1].ID.String()
		pages++
		require.LessOrEqual(t, pages, 5)
	}

	require.Len(t, seen, 5)
	require.Equal(t, 3, pages)
}

func TestSearchMatchesTitleAndDescription(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)

	seedProperty(t, db, owner, func(p *models.Property) {
		p.Title = "Sea View Villa"
		p.PropertyType = "villa"
		p.Price = 90000
	})
	seedProperty(t, db, owner, func(p *models.Property) {
		p.Title = "City Apartment"
		p.Description = "Compact flat, but the balcony has a partial sea view."
	})
	seedProperty(t, db, owner, func(p *models.Property) {
		p.Title = "Farm Land"
		p.PropertyType = "land"
	})

	matched, err := svc.Search("SEA VIEW", PropertyFilters{})
	require.NoError(t, err)
	require.Len(t, matched, 2)

	// Filters still apply underneath the term match.
	villasOnly, err := svc.Search("sea view", PropertyFilters{PropertyType: "villa"})
	require.NoError(t, err)
	require.Len(t, villasOnly, 1)
	require.Equal(t, "Sea View Villa", villasOnly[0].Title)
}

func TestUpdateRecomputesSlugOnlyWhenTitleChanges(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)
	created := seedProperty(t, db, owner, nil)

	priced, err := svc.Update(created, &PropertyUpdate{Price: ptr(27000.0)})
	require.NoError(t, err)
	require.Equal(t, created.Slug, priced.Slug)
	require.Equal(t, 27000.0, priced.Price)
	require.Equal(t, created.Version+1, priced.Version)

	renamed, err := svc.Update(priced, &PropertyUpdate{Title: ptr("Sunny Penthouse")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(renamed.Slug, "sunny-penthouse-"))
	require.NotEqual(t, created.Slug, renamed.Slug)
}

func TestUpdateStaleBaseConflicts(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)
	created := seedProperty(t, db, owner, nil)

	stale := *created

	_, err := svc.Update(created, &PropertyUpdate{Price: ptr(26000.0)})
	require.NoError(t, err)

	_, err = svc.Update(&stale, &PropertyUpdate{Price: ptr(24000.0)})
	require.ErrorIs(t, err, ErrVersionConflict)

	// The losing write must not have landed.
	current, err := svc.FindByID(created.ID.String())
	require.NoError(t, err)
	require.Equal(t, 26000.0, current.Price)
}

func TestCounters(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)
	created := seedProperty(t, db, owner, nil)

	require.NoError(t, svc.IncrementViews(created.ID))
	require.NoError(t, svc.IncrementViews(created.ID))
	require.NoError(t, svc.IncrementFavorites(created.ID))
	require.NoError(t, svc.DecrementFavorites(created.ID))
	require.NoError(t, svc.DecrementFavorites(created.ID)) // floors at zero

	current, err := svc.FindByID(created.ID.String())
	require.NoError(t, err)
	require.Equal(t, int64(2), current.Views)
	require.Equal(t, int64(0), current.Favorites)

	// Counter bumps never consume the optimistic version.
	require.Equal(t, created.Version, current.Version)
}

func TestRemoveImage(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)
	created := seedProperty(t, db, owner, func(p *models.Property) {
		p.Images = []models.ImageMeta{
			imageFixture("img-a", 0),
			imageFixture("img-b", 1),
			imageFixture("img-c", 2),
		}
	})

	updated, removed, err := svc.RemoveImage(created, "img-b")
	require.NoError(t, err)
	require.Equal(t, "img-b", removed.ID)
	require.Equal(t, "properties/img-b.jpg", removed.StoragePath)

	require.Len(t, updated.Images, 2)
	require.Equal(t, "img-a", updated.Images[0].ID)
	require.Equal(t, 0, updated.Images[0].Order)
	require.Equal(t, "img-c", updated.Images[1].ID)
	require.Equal(t, 1, updated.Images[1].Order)

	_, _, err = svc.RemoveImage(updated, "img-z")
	require.ErrorIs(t, err, ErrUnknownImage)
}

func TestReorderImages(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "+911111111111")
	svc := NewPropertyService(db)
	created := seedProperty(t, db, owner, func(p *models.Property) {
		p.Images = []models.ImageMeta{
			imageFixture("img-a", 0),
			imageFixture("img-b", 1),
			imageFixture("img-c", 2),
		}
	})

	_, err := svc.ReorderImages(created, []string{"img-a"})
	require.ErrorIs(t, err, ErrBadImageOrder)

	_, err = svc.ReorderImages(created, []string{"img-a", "img-b", "img-z"})
	require.ErrorIs(t, err, ErrBadImageOrder)

	_, err = svc.ReorderImages(created, []string{"img-a", "img-a", "img-b"})
	require.ErrorIs(t, err, ErrBadImageOrder)

	updated, err := svc.ReorderImages(created, []string{"img-c", "img-a", "img-b"})
	require.NoError(t, err)
	require.Equal(t, "img-c", updated.Images[0].ID)
	require.Equal(t, 0, updated.Images[0].Order)
	require.Equal(t, "img-a", updated.Images[1].ID)
	require.Equal(t, 1, updated.Images[1].Order)
	require.Equal(t, "img-b", updated.Images[2].ID)
	require.Equal(t, 2, updated.Images[2].Order)
}
