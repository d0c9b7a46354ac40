package model

import (
	"errors"
	"fmt"
	"time"
)

const MaxUsernameLength = 32

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
var ErrPasswordEmpty = errors.New("password must not be empty")
var ErrAccountExists = errors.New("account already exists")

// Account represents a registered account. The password is stored as a
// PBKDF2 salt/hash pair, both hex encoded (see pkg/crypto).
type Account struct {
	Username     string    `json:"username"`
	PasswordSalt string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateUsername checks that a username is non-empty and at most 32
// characters. Returns nil on success or a descriptive error.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	return nil
}
