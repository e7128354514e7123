package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// IsValidRole reports whether r is one of the platform roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// NormalizeRole maps unknown or empty roles to student
func NormalizeRole(raw string) UserRole {
	r := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if IsValidRole(r) {
		return r
	}
	return RoleStudent
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:80"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:120"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;default:student;index"`

	// Profile info
	FirstName string `json:"first_name" gorm:"size:50"`
	LastName  string `json:"last_name" gorm:"size:50"`

	// Status
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	LastLogin *time.Time `json:"last_login"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
