package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database. The DSN is named after the
// test so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Property{}, &models.RefreshToken{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()

	users := NewUserService(db)
	user, err := users.Create(&models.User{
		FirebaseUID: "firebase-" + phone,
		Phone:       phone,
		Name:        "Test User",
	})
	require.NoError(t, err)
	return user
}

func seedProperty(t *testing.T, db *gorm.DB, owner *models.User, mutate func(*models.Property)) *models.Property {
	t.Helper()

	p := &models.Property{
		Title:        "Spacious 2BHK Apartment",
		Description:  "A bright two bedroom flat close to the metro station.",
		Price:        25000,
		PropertyType: "apartment",
		Bedrooms:     2,
		Bathrooms:    2,
		Area:         1100,
		Location: models.Location{
			Address: "12 MG Road, Near Central Mall",
			City:    "Bengaluru",
			State:   "Karnataka",
			Country: "India",
			PinCode: "560001",
		},
		Amenities: []string{"parking", "lift"},
		OwnerID:   owner.ID,
	}
	if mutate != nil {
		mutate(p)
	}

	created, err := NewPropertyService(db).Create(p)
	require.NoError(t, err)

	// Slugs and the keyset cursor both lean on millisecond-distinct
	// creation times.
	time.Sleep(2 * time.Millisecond)
	return created
}

func imageFixture(id string, order int) models.ImageMeta {
	return models.ImageMeta{
		ID:           id,
		URL:          "local://properties/" + id + ".jpg",
		StoragePath:  "properties/" + id + ".jpg",
		Size:         1024,
		OriginalName: id + ".jpg",
		Order:        order,
		UploadedAt:   time.Now().UTC(),
	}
}

func ptr[T any](v T) *T { return &v }
