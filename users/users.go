package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the dashboard role carried on the identity record
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

// User is the identity record returned by the Auth API and persisted under the "user" key.
type User struct {
	ID        string   `json:"id"`                   // Unique identifier for the user
	Email     string   `json:"email"`                // User's email address (lower case)
	Name      string   `json:"name"`                 // Display name
	Role      RoleType `json:"role"`                 // "user" or "admin"
	CreatedAt string   `json:"created_at,omitempty"` // ISO timestamp, set by the Auth API
	LastLogin string   `json:"last_login,omitempty"` // ISO timestamp of the latest login

	PasswordHash string `json:"-"` // Only populated inside the stub Auth API - never serialize
}

// IsAdmin reports whether the user can open the admin panel
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Valid reports whether the record carries enough identity to be trusted as a session user.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != ""
}

// NormalizeEmail lower-cases and trims an email so lookups are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
