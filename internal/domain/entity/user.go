package entity

import "time"

// User is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in PasswordHash; a nil PasswordHash means
// no local credential is configured. A nil GoogleID means no linked Google identity.
type User struct {
	ID                       int64
	Email                    string
	Name                     *string
	Image                    *string
	GoogleID                 *string
	PasswordHash             *string
	EmailVerified            bool
	VerificationToken        *string
	VerificationTokenExpires *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// HasPassword reports whether a local password credential is configured.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasGoogle reports whether a Google identity is linked.
func (u *User) HasGoogle() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}
