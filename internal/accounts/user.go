// internal/accounts/user.go
//
// Account types and signup rules.
package accounts

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError carries a message fit to show the user.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"Username must be 3-24 characters"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"Username may only contain letters, numbers and underscores"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{"Password must be 8-100 characters"}
	}
	return nil
}
