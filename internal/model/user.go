package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// Role is a user's access level.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Field limits shared by validation and schema.
const (
	UsernameMaxLength         = 150
	EmailMaxLength            = 254
	NameMaxLength             = 150
	ConfirmationCodeLength    = 6
	ConfirmationCodeMaxLength = 255
)

// ReservedUsername is the path segment used for self-service profile routes.
const ReservedUsername = "me"

// User is a registered account. Users never hold passwords: they sign in with
// a one-time confirmation code mailed at signup.
type User struct {
	ID               uint      `json:"-" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email            string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Role             Role      `json:"role" gorm:"size:50;not null;default:'user'"`
	IsSuperuser      bool      `json:"-" gorm:"not null;default:false"`
	IsStaff          bool      `json:"-" gorm:"not null;default:false"`
	ConfirmationCode string    `json:"-" gorm:"size:255"` // bcrypt hash, never exposed
	Bio              string    `json:"bio" gorm:"type:text"`
	FirstName        string    `json:"first_name" gorm:"size:150"`
	LastName         string    `json:"last_name" gorm:"size:150"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// IsAdmin reports whether the user has administrative rights.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.IsSuperuser || u.IsStaff)
}

// IsModerator reports whether the user moderates content.
func (u *User) IsModerator() bool {
	return u != nil && u.Role == RoleModerator
}

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// CheckUsername validates a username's length and characters and rejects
// the reserved value.
func CheckUsername(username string) error {
	switch {
	case username == "":
		return errors.New("this field is required")
	case utf8.RuneCountInString(username) > UsernameMaxLength:
		return fmt.Errorf("must be at most %d characters", UsernameMaxLength)
	case !usernamePattern.MatchString(username):
		return errors.New("may contain only letters, digits and @/./+/-/_")
	case username == ReservedUsername:
		return fmt.Errorf("%q cannot be used as a username", ReservedUsername)
	}
	return nil
}
