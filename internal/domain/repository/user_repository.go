package repository

import (
	"context"
	"time"

	"github.com/kalenso/kalenso/internal/domain/entity"
)

// UserRepository defines the interface for identity-store operations.
//
// Account creation is modeled as atomic writes (insert-or-conflict), never as
// an exists-check followed by an insert, so concurrent sign-ins for the same
// email resolve at the unique constraint instead of racing.
type UserRepository interface {
	// CreatePasswordUser inserts a password-credential user (unverified, with a
	// pending verification token) and assigns defaultRole in the same
	// transaction; if the role assignment fails the user row is rolled back.
	// Returns ErrDuplicateEmail when the email is already taken; the existing
	// row is never modified in that case.
	CreatePasswordUser(ctx context.Context, u *entity.User, defaultRole string) error

	// UpsertGoogleUser inserts a provider-attested user, or merges the Google
	// identity into the existing row keyed by email. The merge coalesces
	// google_id/name/image provider values over existing ones (a null provider
	// value never clobbers a local one) and never touches password_hash or
	// email_verified. Newly created rows get defaultRole in the same
	// transaction. Reports whether a new row was created.
	UpsertGoogleUser(ctx context.Context, email, googleID string, name, image *string, defaultRole string) (*entity.User, bool, error)

	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*entity.User, error)

	// SetVerified marks the email verified and clears the pending token.
	SetVerified(ctx context.Context, userID int64) error
	// SetVerificationToken replaces the pending token, invalidating any old one.
	SetVerificationToken(ctx context.Context, userID int64, token string, expires time.Time) error
	SetPassword(ctx context.Context, userID int64, passwordHash string) error

	UpdateProfile(ctx context.Context, userID int64, name, image *string) (*entity.User, error)
	Delete(ctx context.Context, userID int64) error
}
