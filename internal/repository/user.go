package repository

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// UserRepository handles user database operations
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

func userContent(u *model.User) map[string]interface{} {
	content := map[string]interface{}{
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"role":         string(u.Role),
		"email_opt_in": u.EmailOptIn,
		"sms_opt_in":   u.SMSOptIn,
		"created_on":   u.CreatedOn,
		"updated_on":   u.UpdatedOn,
	}
	putOpt(content, "external_id", u.ExternalID)
	putOpt(content, "hash", u.Hash)
	putOpt(content, "phone", u.Phone)
	return content
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := utcNow()
	user.CreatedOn, user.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "user", userContent(user))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !hasTable(id, "user") {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByIDs retrieves the users with the given IDs; unknown IDs are skipped
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	return r.getList(ctx, `SELECT * FROM user WHERE <string> id IN $ids ORDER BY created_on ASC`,
		map[string]interface{}{"ids": ids})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE email = $email LIMIT 1`,
		map[string]interface{}{"email": email})
}

// GetByExternalID retrieves a user by identity provider subject
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE external_id = $external_id LIMIT 1`,
		map[string]interface{}{"external_id": externalID})
}

// GetByPhone retrieves a user by E.164 phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE phone = $phone LIMIT 1`,
		map[string]interface{}{"phone": phone})
}

// List returns users, optionally filtered by role
func (r *UserRepository) List(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	query := `SELECT * FROM user`
	vars := map[string]interface{}{}
	if role != "" {
		query += ` WHERE role = $role`
		vars["role"] = string(role)
	}
	query += ` ORDER BY created_on ASC`
	return r.getList(ctx, query, vars)
}

// Update replaces a user's stored profile
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedOn = utcNow()
	query := `UPDATE type::record($id) CONTENT $content`
	vars := map[string]interface{}{"id": user.ID, "content": userContent(user)}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.set(ctx, userID, `hash = $value`, hash)
}

// SetRole changes a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	return r.set(ctx, userID, `role = $value`, string(role))
}

// LinkExternalID attaches an identity provider subject to an existing account
func (r *UserRepository) LinkExternalID(ctx context.Context, userID, externalID string) error {
	return r.set(ctx, userID, `external_id = $value`, externalID)
}

// Delete removes a user together with their children, inbox and team records
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"user": id}
	err := database.NewAtomicBatch().
		Add(`DELETE child WHERE parent_id = $user`, vars).
		Add(`DELETE inbox_message WHERE user_id = $user`, vars).
		Add(`DELETE team_application WHERE user_id = $user`, vars).
		Add(`DELETE volunteer_employee WHERE user_id = $user`, vars).
		Add(`DELETE type::record($user)`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) set(ctx context.Context, userID, assignment string, value interface{}) error {
	query := `UPDATE type::record($id) SET ` + assignment + `, updated_on = time::now()`
	vars := map[string]interface{}{"id": userID, "value": value}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	data, err := queryRecord(ctx, r.db, query, vars)
	if err != nil || data == nil {
		return nil, err
	}
	return parseUser(data)
}

func (r *UserRepository) getList(ctx context.Context, query string, vars map[string]interface{}) ([]*model.User, error) {
	rows, err := queryRecords(ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(rows))
	for _, data := range rows {
		user, err := parseUser(data)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// parseUser decodes a user record. The hash is excluded from JSON and copied by hand.
func parseUser(data map[string]interface{}) (*model.User, error) {
	user, err := decodeRecord[model.User](data)
	if err != nil {
		return nil, err
	}
	if hash := getString(data, "hash"); hash != "" {
		user.Hash = &hash
	}
	return user, nil
}
