// internal/services/auth_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/utils"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := testConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return NewAuthService(db, cfg, NewNotificationService(cfg)), db
}

func registerInput(username string) *RegisterInput {
	return &RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
		Name:     "Test " + username,
	}
}

func TestRegisterCreatesUnverifiedUserWithCode(t *testing.T) {
	service, db := newAuthService(t)

	result, err := service.Register(registerInput("alice"))
	require.NoError(t, err)
	assert.False(t, result.User.Verified)
	assert.Equal(t, models.RoleCustomer, result.User.Role)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)
	assert.Len(t, stored.VerificationCode, 6)
	require.NotNil(t, stored.CodeExpiresAt)
	assert.WithinDuration(t, time.Now().Add(verificationCodeTTL), *stored.CodeExpiresAt, time.Minute)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _ := newAuthService(t)

	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	_, err = service.Register(registerInput("alice"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	// Same email under a different username is still a conflict.
	dup := registerInput("alice2")
	dup.Email = "alice@example.com"
	_, err = service.Register(dup)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	service, _ := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	byUsername, err := service.Login(&LoginInput{Identifier: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, byUsername.Token)

	byEmail, err := service.Login(&LoginInput{Identifier: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, byEmail.Token)

	claims, err := utils.ValidateJWT(byEmail.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(models.RoleCustomer), claims.Role)
	assert.False(t, claims.Verified)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	service, db := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	_, err = service.Login(&LoginInput{Identifier: "alice", Password: "secret123"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	service, db := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	_, err = service.Login(&LoginInput{Identifier: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)

	_, err = service.Login(&LoginInput{Identifier: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)

	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").
		Update("active", false).Error)
	_, err = service.Login(&LoginInput{Identifier: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestLoginDoesNotRequireVerification(t *testing.T) {
	service, _ := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	result, err := service.Login(&LoginInput{Identifier: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, result.User.Verified)
}

func TestVerifyEmail(t *testing.T) {
	service, db := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)

	_, err = service.VerifyEmail("alice@example.com", "000000")
	if stored.VerificationCode == "000000" {
		t.Skip("generated code collided with the negative probe")
	}
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	user, err := service.VerifyEmail("alice@example.com", stored.VerificationCode)
	require.NoError(t, err)
	assert.True(t, user.Verified)
	assert.Empty(t, user.VerificationCode)

	// Verifying again is a no-op, not an error.
	user, err = service.VerifyEmail("alice@example.com", "anything")
	require.NoError(t, err)
	assert.True(t, user.Verified)
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	service, db := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&stored).Update("code_expires_at", expired).Error)

	_, err = service.VerifyEmail("alice@example.com", stored.VerificationCode)
	assert.ErrorIs(t, err, apperrors.ErrCodeExpired)
}

func TestResendCode(t *testing.T) {
	service, db := newAuthService(t)
	_, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	var before models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&before).Error)

	require.NoError(t, service.ResendCode("alice@example.com"))

	var after models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&after).Error)
	assert.Len(t, after.VerificationCode, 6)
	assert.True(t, after.CodeExpiresAt.After(time.Now()))

	// Already-verified accounts get nothing to resend.
	_, err = service.VerifyEmail("alice@example.com", after.VerificationCode)
	require.NoError(t, err)
	err = service.ResendCode("alice@example.com")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = service.ResendCode("nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	service, _ := newAuthService(t)
	result, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	updated, err := service.UpdateProfile(result.User.ID, &UpdateProfileInput{
		Name:    "Alice Cooper",
		Phone:   "555-0199",
		Address: "456 Oak Ave",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "456 Oak Ave", updated.Address)
}

func TestChangePassword(t *testing.T) {
	service, _ := newAuthService(t)
	result, err := service.Register(registerInput("alice"))
	require.NoError(t, err)

	err = service.ChangePassword(result.User.ID, "wrong", "newsecret1")
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)

	err = service.ChangePassword(result.User.ID, "secret123", "short")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, service.ChangePassword(result.User.ID, "secret123", "newsecret1"))

	_, err = service.Login(&LoginInput{Identifier: "alice", Password: "newsecret1"})
	assert.NoError(t, err)
	_, err = service.Login(&LoginInput{Identifier: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}
