package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"gorm.io/gorm"
)

var ErrMissingIdentity = errors.New("firebase uid and phone number are required")

// UserService owns all reads and writes of account records.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Create stores a new user. FirebaseUID and phone are mandatory; role
// defaults to "user" and the account starts active.
func (s *UserService) Create(user *models.User) (*models.User, error) {
	if user.FirebaseUID == "" || user.Phone == "" {
		return nil, ErrMissingIdentity
	}

	user.ID = uuid.New()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.IsActive = true

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindByFirebaseUID resolves an identity-provider subject id to a local
// user. A miss returns (nil, nil).
func (s *UserService) FindByFirebaseUID(firebaseUID string) (*models.User, error) {
	var user models.User
	err := s.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByPhone(phone string) (*models.User, error) {
	var user models.User
	err := s.db.Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserUpdate carries the self-service updatable fields. Subject id, phone
// and role are immutable through this path by construction.
type UserUpdate struct {
	Name    *string
	Email   *string
	Aadhaar *string
}

func (s *UserService) Update(id uuid.UUID, patch *UserUpdate) (*models.User, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Aadhaar != nil {
		updates["aadhaar"] = *patch.Aadhaar
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.FindByID(id)
}

// Delete deactivates the account without removing the record.
func (s *UserService) Delete(id uuid.UUID) error {
	now := time.Now()
	return s.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  false,
		"deleted_at": now,
		"updated_at": now,
	}).Error
}

// FindAll lists users newest-first with cursor pagination; admin use only.
func (s *UserService) FindAll(limit int, startAfter uuid.UUID) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	q := s.db.Model(&models.User{})
	if startAfter != uuid.Nil {
		anchor, err := s.FindByID(startAfter)
		if err != nil {
			return nil, err
		}
		if anchor != nil {
			q = q.Where("created_at < ? OR (created_at = ? AND id > ?)",
				anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
		}
	}

	var users []models.User
	err := q.Order("created_at DESC, id ASC").Limit(limit).Find(&users).Error
	return users, err
}
