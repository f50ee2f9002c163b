// internal/services/user_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/models"
	"github.com/phonespot/backend/internal/utils"
)

// UserService is the back-office side of account management. Every method is
// administrator-only; customers reach their own account through AuthService.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) ListUsers(actorRole models.UserRole, params utils.PaginationParams) (*utils.PaginationResult, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	query := s.db.Model(&models.User{})
	if params.Search != "" {
		term := "%" + params.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR name LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := utils.ApplyPagination(
		utils.ApplySort(query, params, []string{"created_at", "username", "email", "last_login_at"}),
		params,
	).Find(&users).Error
	if err != nil {
		return nil, err
	}

	result := utils.CreatePaginationResult(users, total, params)
	return &result, nil
}

func (s *UserService) GetUser(actorRole models.UserRole, userID uuid.UUID) (*models.User, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	var user models.User
	err := s.db.Preload("Orders").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "user", ID: userID.String()}
		}
		return nil, err
	}
	return &user, nil
}

type AdminUserUpdate struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Role    string `json:"role"`
	Active  *bool  `json:"active"`
}

func (s *UserService) UpdateUser(actorRole models.UserRole, userID uuid.UUID, input *AdminUserUpdate) (*models.User, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	var user models.User
	err := s.db.First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "user", ID: userID.String()}
		}
		return nil, err
	}

	if input.Role != "" {
		role := models.UserRole(input.Role)
		if role != models.RoleCustomer && role != models.RoleAdmin {
			return nil, &apperrors.ValidationError{Message: "invalid role: " + input.Role}
		}
		user.Role = role
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser blocks future logins without destroying order history.
func (s *UserService) DeactivateUser(actorRole models.UserRole, userID uuid.UUID) error {
	if actorRole != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "user", ID: userID.String()}
	}
	return nil
}

type UserStatistics struct {
	TotalUsers    int64 `json:"total_users"`
	VerifiedUsers int64 `json:"verified_users"`
	ActiveUsers   int64 `json:"active_users"`
	NewThisMonth  int64 `json:"new_this_month"`
}

func (s *UserService) Statistics(actorRole models.UserRole) (*UserStatistics, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperrors.ErrPermissionDenied
	}

	stats := &UserStatistics{}
	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("verified = ?", true).Count(&stats.VerifiedUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	err := s.db.Model(&models.User{}).
		Where("created_at >= ?", monthStart).
		Count(&stats.NewThisMonth).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
