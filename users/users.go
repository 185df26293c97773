package users

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
)

// Role is the coarse permission level carried in every token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores anything longer
	minNameLength     = 2
	maxNameLength     = 100
)

type User struct {
	ID           int64     `json:"id" db:"id"`                 // Store assigned identifier, the token subject
	Email        string    `json:"email" db:"email"`           // Unique, normalised to lower case
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt hash - never serialize
	Name         string    `json:"name" db:"name"`             // Display name
	Role         Role      `json:"role" db:"role"`             // user | admin
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Registration or first federated login
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last profile or password change
}

// SubjectID is the value stored in the "sub" claim.
func (u *User) SubjectID() string {
	return strconv.FormatInt(u.ID, 10)
}

// HasRole reports whether the user holds role. Admins hold every role.
func (u *User) HasRole(role Role) bool {
	return u.Role == role || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ParseSubjectID converts a "sub" claim back into a user ID.
func ParseSubjectID(sub string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(sub), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", sub)
	}
	return id, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an email address.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if len(local) < minNameLength {
		return "user-" + local
	}
	return local
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < minNameLength || n > maxNameLength {
		return fmt.Errorf("must be between %d and %d characters", minNameLength, maxNameLength)
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - Between 8 characters and 72 bytes long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", maxPasswordBytes)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// ValidateRegistration collects field errors for a new account.
func ValidateRegistration(email, password, name string) error {
	fields := map[string]string{}
	if err := ValidateEmail(email); err != nil {
		fields["email"] = err.Error()
	}
	if err := ValidatePasswordStrength(password); err != nil {
		fields["password"] = err.Error()
	}
	if err := ValidateName(name); err != nil {
		fields["name"] = err.Error()
	}
	return apperrors.NewValidationError(fields)
}
