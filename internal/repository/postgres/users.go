package postgres

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, external_id, email, hash, first_name, last_name, phone, role,
	email_opt_in, sms_opt_in, created_on, updated_on`

// UserRepository stores users in the users table
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := utcNow()
	user.ID = newID()
	user.CreatedOn, user.UpdatedOn = now, now

	query := `INSERT INTO users (` + userColumns + `) VALUES (
		:id, :external_id, :email, :hash, :first_name, :last_name, :phone, :role,
		:email_opt_in, :sms_opt_in, :created_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return getOne[model.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIDs retrieves the users with the given IDs; unknown IDs are skipped
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY created_on ASC`
	return getList[model.User](ctx, r.db, query, pq.Array(ids))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return getOne[model.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByExternalID retrieves a user by identity provider subject
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return getOne[model.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

// GetByPhone retrieves a user by E.164 phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return getOne[model.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE phone = $1 LIMIT 1`, phone)
}

// List returns users, optionally filtered by role
func (r *UserRepository) List(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	if role == "" {
		return getList[model.User](ctx, r.db, `SELECT `+userColumns+` FROM users ORDER BY created_on ASC`)
	}
	return getList[model.User](ctx, r.db,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_on ASC`, string(role))
}

// Update replaces a user's stored profile
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedOn = utcNow()
	query := `UPDATE users SET external_id = :external_id, email = :email, hash = :hash,
		first_name = :first_name, last_name = :last_name, phone = :phone, role = :role,
		email_opt_in = :email_opt_in, sms_opt_in = :sms_opt_in, updated_on = :updated_on
		WHERE id = :id`
	if err := namedExec(ctx, r.db, query, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.set(ctx, userID, "hash", hash)
}

// SetRole changes a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	return r.set(ctx, userID, "role", string(role))
}

// LinkExternalID attaches an identity provider subject to an existing account
func (r *UserRepository) LinkExternalID(ctx context.Context, userID, externalID string) error {
	return r.set(ctx, userID, "external_id", externalID)
}

// Delete removes a user; children, inbox and team records cascade
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// set updates one column; column is always a constant from this file
func (r *UserRepository) set(ctx context.Context, userID, column string, value interface{}) error {
	query := `UPDATE users SET ` + column + ` = $1, updated_on = $2 WHERE id = $3`
	if _, err := exec(ctx, r.db, query, value, utcNow(), userID); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
