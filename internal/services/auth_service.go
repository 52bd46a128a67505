package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/auth"
	"github.com/rohanmhetar/nivaasa-backend/internal/config"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenIncomplete    = errors.New("the provided token is missing required user information")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles both credential paths: the primary phone-OTP flow
// (client completes OTP with the identity provider and posts the resulting
// ID token) and the legacy password flow backed by local HS256 sessions.
type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	users    *UserService
	verifier auth.TokenVerifier
}

func NewAuthService(db *gorm.DB, cfg *config.Config, users *UserService, verifier auth.TokenVerifier) *AuthService {
	return &AuthService{db: db, cfg: cfg, users: users, verifier: verifier}
}

// PhoneAuthResult reports whether the call registered a new account.
type PhoneAuthResult struct {
	User      *models.User
	IsNewUser bool
}

// RegisterOrLogin verifies the identity-provider ID token and either logs
// the matching user in or registers a new one.
func (s *AuthService) RegisterOrLogin(ctx context.Context, idToken, name, aadhaar, email string) (*PhoneAuthResult, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		slog.Error("identity token verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.Phone == "" {
		return nil, ErrTokenIncomplete
	}

	user, err := s.users.FindByFirebaseUID(claims.Subject)
	if err != nil {
		return nil, err
	}

	if user != nil {
		// Existing account: refresh the display name if the client sent
		// a different one.
		if name != "" && user.Name != name {
			user, err = s.users.Update(user.ID, &UserUpdate{Name: &name})
			if err != nil {
				return nil, err
			}
		}
		return &PhoneAuthResult{User: user, IsNewUser: false}, nil
	}

	if email == "" {
		email = claims.Email
	}

	user, err = s.users.Create(&models.User{
		FirebaseUID: claims.Subject,
		Phone:       claims.Phone,
		Name:        name,
		Aadhaar:     aadhaar,
		Email:       email,
		Role:        models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return &PhoneAuthResult{User: user, IsNewUser: true}, nil
}

// TokenPair is the result of the password-credential path.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// PasswordLogin authenticates with phone + password and issues a local
// session. Accounts created through the OTP flow have no password hash and
// always fail here.
func (s *AuthService) PasswordLogin(phone, password string) (*TokenPair, error) {
	user, err := s.users.FindByPhone(phone)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password == "" || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user)
}

// CheckAuthMethod reports which credential path an account uses.
func (s *AuthService) CheckAuthMethod(phone string) (string, error) {
	user, err := s.users.FindByPhone(phone)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.Password != "" {
		return "password", nil
	}
	return "otp", nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidRefresh
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidRefresh
	}

	s.db.Model(&stored).Update("revoked", true)

	user, err := s.users.FindByID(stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.generateTokenPair(user)
}

// ResolveToken maps a bearer token to the local user record. Provider ID
// tokens (RS256) go through the verifier; local session tokens (HS256) are
// checked against the JWT secret. Inactive accounts never resolve.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	var user *models.User
	var err error

	if isLocalToken(token) {
		user, err = s.resolveLocalToken(token)
	} else {
		var claims *auth.IdentityClaims
		claims, err = s.verifier.Verify(ctx, token)
		if err == nil {
			user, err = s.users.FindByFirebaseUID(claims.Subject)
		} else {
			err = fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// isLocalToken peeks at the JWT header: only locally issued session tokens
// use HS256. Anything else (including opaque provider tokens) is handed to
// the identity verifier.
func isLocalToken(token string) bool {
	parts := strings.SplitN(token, ".", 2)
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return false
	}
	return header.Alg == "HS256"
}

func (s *AuthService) resolveLocalToken(token string) (*models.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.users.FindByID(userID)
}

func (s *AuthService) generateTokenPair(user *models.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"phone": user.Phone,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
