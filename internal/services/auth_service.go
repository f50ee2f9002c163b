// internal/services/auth_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/config"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/utils"
)

// Verification codes stay valid for a day.
const verificationCodeTTL = 24 * time.Hour

type AuthService struct {
	db            *gorm.DB
	config        *config.Config
	notifications *NotificationService
}

func NewAuthService(db *gorm.DB, cfg *config.Config, notifications *NotificationService) *AuthService {
	return &AuthService{
		db:            db,
		config:        cfg,
		notifications: notifications,
	}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthResult is a login/registration response: the token plus the profile
// snapshot the storefront keeps client-side.
type AuthResult struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user"`
}

// Register creates an unverified account and emails a 6-digit code valid for
// 24 hours. Verification is advisory: it never gates login or checkout.
func (s *AuthService) Register(input *RegisterInput) (*AuthResult, error) {
	var existing models.User
	err := s.db.Where("username = ? OR email = ?", input.Username, input.Email).
		First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(verificationCodeTTL)

	user := &models.User{
		Username:         input.Username,
		Email:            input.Email,
		Name:             input.Name,
		Phone:            input.Phone,
		Address:          input.Address,
		Role:             models.RoleCustomer,
		Active:           true,
		VerificationCode: code,
		CodeExpiresAt:    &expiresAt,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	go func(user models.User, code string) {
		if err := s.notifications.SendVerificationEmail(&user, code); err != nil {
			logrus.WithError(err).WithField("email", user.Email).
				Warn("Verification email failed")
		}
	}(*user, code)

	return &AuthResult{User: user}, nil
}

// Login authenticates by username or email and issues a 24-hour JWT.
func (s *AuthService) Login(input *LoginInput) (*AuthResult, error) {
	var user models.User
	err := s.db.Where("username = ? OR email = ?", input.Identifier, input.Identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuthentication
		}
		return nil, err
	}

	if !user.Active {
		return nil, apperrors.ErrPermissionDenied
	}
	if err := user.CheckPassword(input.Password); err != nil {
		return nil, apperrors.ErrAuthentication
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).Warn("Failed to record last login")
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role),
		user.Verified, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: &user}, nil
}

// VerifyEmail checks the 6-digit code and marks the account verified.
func (s *AuthService) VerifyEmail(email, code string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "user", ID: email}
		}
		return nil, err
	}

	if user.Verified {
		return &user, nil
	}
	if user.VerificationCode == "" || user.VerificationCode != code {
		return nil, &apperrors.ValidationError{Message: "invalid verification code"}
	}
	if user.CodeExpiresAt != nil && time.Now().After(*user.CodeExpiresAt) {
		return nil, apperrors.ErrCodeExpired
	}

	updates := map[string]interface{}{
		"verified":          true,
		"verification_code": "",
		"code_expires_at":   nil,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.Verified = true
	user.VerificationCode = ""
	user.CodeExpiresAt = nil

	return &user, nil
}

// ResendCode regenerates the verification code with a fresh expiry window.
func (s *AuthService) ResendCode(email string) error {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperrors.NotFoundError{Resource: "user", ID: email}
		}
		return err
	}

	if user.Verified {
		return &apperrors.ValidationError{Message: "account already verified"}
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(verificationCodeTTL)

	updates := map[string]interface{}{
		"verification_code": code,
		"code_expires_at":   expiresAt,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return err
	}

	go func(user models.User, code string) {
		if err := s.notifications.SendVerificationEmail(&user, code); err != nil {
			logrus.WithError(err).WithField("email", user.Email).
				Warn("Verification email failed")
		}
	}(user, code)

	return nil
}

// GetProfile loads the caller's own account.
func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "user", ID: userID.String()}
		}
		return nil, err
	}
	return &user, nil
}

type UpdateProfileInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile changes the caller's contact details. Future orders snapshot
// the new values; past orders keep what they were placed with.
func (s *AuthService) UpdateProfile(userID uuid.UUID, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	user.Phone = input.Phone
	user.Address = input.Address

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *AuthService) ChangePassword(userID uuid.UUID, current, newPassword string) error {
	user, err := s.GetProfile(userID)
	if err != nil {
		return err
	}

	if err := user.CheckPassword(current); err != nil {
		return apperrors.ErrAuthentication
	}
	if len(newPassword) < 6 {
		return &apperrors.ValidationError{Message: "password must be at least 6 characters"}
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", user.PasswordHash).Error
}
