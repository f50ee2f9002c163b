// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"uniqueIndex;size:30;not null"`
	Email        string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"`
	Name         string   `json:"name" gorm:"size:100;not null"`
	Phone        string   `json:"phone" gorm:"size:30"`
	Address      string   `json:"address" gorm:"size:255"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);default:'customer';index"`

	Verified         bool       `json:"verified" gorm:"default:false"`
	VerificationCode string     `json:"-" gorm:"size:10"`
	CodeExpiresAt    *time.Time `json:"-"`

	Active      bool       `json:"active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ContactSnapshot captures the contact details stored on an order at
// checkout, decoupled from later profile edits.
func (u *User) ContactSnapshot() JSONB {
	return JSONB{
		"name":    u.Name,
		"email":   u.Email,
		"phone":   u.Phone,
		"address": u.Address,
	}
}
