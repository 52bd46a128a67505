package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequiresIdentity(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.Create(&models.User{Phone: "+911111111111"})
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = svc.Create(&models.User{FirebaseUID: "firebase-1"})
	require.ErrorIs(t, err, ErrMissingIdentity)
}

func TestCreateUserDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(&models.User{
		FirebaseUID: "firebase-1",
		Phone:       "+911111111111",
		Name:        "Asha",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, uuid.Nil, user.ID)
}

func TestFindUserMissesReturnNil(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	byUID, err := svc.FindByFirebaseUID("nobody")
	require.NoError(t, err)
	require.Nil(t, byUID)

	byPhone, err := svc.FindByPhone("+910000000000")
	require.NoError(t, err)
	require.Nil(t, byPhone)

	byID, err := svc.FindByID(uuid.New())
	require.NoError(t, err)
	require.Nil(t, byID)
}

func TestUpdateUserPartialPatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, db, "+911111111111")

	updated, err := svc.Update(user.ID, &UserUpdate{
		Email:   ptr("asha@example.com"),
		Aadhaar: ptr("123412341234"),
	})
	require.NoError(t, err)
	require.Equal(t, user.Name, updated.Name)
	require.Equal(t, "asha@example.com", updated.Email)
	require.Equal(t, "123412341234", updated.Aadhaar)

	// Identity fields never move through this path.
	require.Equal(t, user.FirebaseUID, updated.FirebaseUID)
	require.Equal(t, user.Phone, updated.Phone)
}

func TestDeleteUserDeactivates(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, db, "+911111111111")

	require.NoError(t, svc.Delete(user.ID))

	deleted, err := svc.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	require.False(t, deleted.IsActive)
	require.NotNil(t, deleted.DeletedAt)
}

func TestFindAllUsersClampsLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	for i := 0; i < 120; i++ {
		_, err := svc.Create(&models.User{
			FirebaseUID: fmt.Sprintf("firebase-%03d", i),
			Phone:       fmt.Sprintf("+9111%08d", i),
		})
		require.NoError(t, err)
	}

	// Oversized limits clamp to the cap instead of resetting to the
	// default page size.
	capped, err := svc.FindAll(1000, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, capped, 100)

	defaulted, err := svc.FindAll(0, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, defaulted, 50)
}

func TestFindAllUsersCursor(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	for i := 0; i < 5; i++ {
		seedUser(t, db, "+9111111111"+string(rune('0'+i)))
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.FindAll(2, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	seen := map[uuid.UUID]bool{first[0].ID: true, first[1].ID: true}
	cursor := first[1].ID
	for {
		page, err := svc.FindAll(2, cursor)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, u := range page {
			require.False(t, seen[u.ID])
			seen[u.ID] = true
		}
		cursor = page[len(page)-1].ID
	}
	require.Len(t, seen, 5)
}
