package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles registration, login and profiles
type Service struct {
	db        *gorm.DB
	log       logrus.FieldLogger
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
	now       func() time.Time
}

// NewService creates a new user service
func NewService(db *gorm.DB, log logrus.FieldLogger, passwords *auth.PasswordManager, tokens *auth.JWTManager) *Service {
	return &Service{
		db:        db,
		log:       log,
		passwords: passwords,
		tokens:    tokens,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Phone           string `json:"phone"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the editable profile fields
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User *User `json:"user"`
	auth.TokenPair
}

// Register creates a new customer account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperror.Validation("passwords do not match")
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	now := s.now()
	u := User{
		Email:       req.Email,
		Password:    hashed,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       req.Phone,
		IsActive:    true,
		LastLoginAt: &now,
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(apperror.CodeConflict, "user with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithField("user_id", u.ID).Info("user registered")
	return s.signIn(&u)
}

// Login authenticates an active user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	invalid := apperror.New(apperror.CodeUnauthorized, "invalid email or password")

	var u User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(req.Email)), true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, invalid
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	u.LastLoginAt = &now

	return s.signIn(&u)
}

// RefreshToken exchanges a refresh token for a new token pair
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err, "invalid refresh token")
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNotFound) {
			return nil, apperror.New(apperror.CodeUnauthorized, "user not found or inactive")
		}
		return nil, err
	}
	return s.signIn(u)
}

// GetProfile gets an active user's profile
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	return s.activeUser(ctx, userID)
}

// UpdateProfile changes the user's name and phone
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.activeUser(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	var u User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return userLookupError(err)
	}

	if err := s.passwords.VerifyPassword(req.CurrentPassword, u.Password); err != nil {
		return apperror.Validation("current password is incorrect")
	}

	hashed, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return apperror.Validation(err.Error())
	}

	if err := s.db.WithContext(ctx).Model(&u).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

func (s *Service) activeUser(ctx context.Context, userID uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return nil, userLookupError(err)
	}
	return &u, nil
}

func (s *Service) signIn(u *User) (*AuthResponse, error) {
	pair, err := s.tokens.IssuePair(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: u, TokenPair: *pair}, nil
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("user not found")
	}
	return fmt.Errorf("failed to load user: %w", err)
}
