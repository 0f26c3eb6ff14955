package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalenso/kalenso/internal/domain/entity"
	"github.com/kalenso/kalenso/internal/domain/repository"
)

const userColumns = `id, email, name, image, google_id, password_hash, email_verified,
	verification_token, verification_token_expires, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.GoogleID, &u.PasswordHash,
		&u.EmailVerified, &u.VerificationToken, &u.VerificationTokenExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// CreatePasswordUser inserts atomically; a concurrent registration for the same
// email loses at the unique constraint and surfaces as ErrDuplicateEmail. The
// default role is assigned in the same transaction, so a failed assignment
// rolls the user row back.
func (r *UserRepository) CreatePasswordUser(ctx context.Context, u *entity.User, defaultRole string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, email_verified, verification_token, verification_token_expires)
		VALUES ($1, $2, $3, false, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at, updated_at
	`, u.Email, u.Name, u.PasswordHash, u.VerificationToken, u.VerificationTokenExpires)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if err := assignRoleTx(ctx, tx, u.ID, defaultRole); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertGoogleUser is the insert-or-merge write for provider sign-in. The
// conflict branch coalesces provider values over existing ones and leaves
// password_hash and email_verified untouched. xmax = 0 distinguishes a fresh
// insert from a merge; fresh inserts get the default role before commit.
func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email, googleID string, name, image *string, defaultRole string) (*entity.User, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (email, name, image, google_id, email_verified)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (email) DO UPDATE SET
			google_id  = COALESCE(EXCLUDED.google_id, users.google_id),
			name       = COALESCE(EXCLUDED.name, users.name),
			image      = COALESCE(EXCLUDED.image, users.image),
			updated_at = now()
		RETURNING `+userColumns+`, (xmax = 0) AS inserted
	`, email, name, image, googleID)

	u := &entity.User{}
	var inserted bool
	err = row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.GoogleID, &u.PasswordHash,
		&u.EmailVerified, &u.VerificationToken, &u.VerificationTokenExpires,
		&u.CreatedAt, &u.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		if err := assignRoleTx(ctx, tx, u.ID, defaultRole); err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return u, inserted, nil
}

func assignRoleTx(ctx context.Context, tx pgx.Tx, userID int64, roleName string) error {
	res, err := tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID, roleName)
	if err != nil {
		return err
	}
	// Zero rows means the role name is not provisioned.
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token))
}

func (r *UserRepository) SetVerified(ctx context.Context, userID int64) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email_verified = true, verification_token = NULL, verification_token_expires = NULL, updated_at = now()
		WHERE id = $1
	`, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET verification_token = $2, verification_token_expires = $3, updated_at = now()
		WHERE id = $1
	`, userID, token, expires)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, name, image *string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), image = COALESCE($3, image), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, name, image))
}

// Delete removes the user; role assignments cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
