package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
)

const applicationColumns = `id, user_id, team, motivation, availability, status,
	reviewed_by, review_note, reviewed_on, created_on, updated_on`

const employeeColumns = `id, user_id, team, application_id, title, active, joined_on, updated_on`

const applicationUpdate = `UPDATE team_applications SET team = :team, motivation = :motivation,
	availability = :availability, status = :status, reviewed_by = :reviewed_by,
	review_note = :review_note, reviewed_on = :reviewed_on, updated_on = :updated_on
	WHERE id = :id`

const employeeInsert = `INSERT INTO volunteer_employees (` + employeeColumns + `) VALUES (
	:id, :user_id, :team, :application_id, :title, :active, :joined_on, :updated_on)`

// TeamApplicationRepository stores applications in the team_applications table
type TeamApplicationRepository struct {
	db *sqlx.DB
}

// NewTeamApplicationRepository creates a new team application repository
func NewTeamApplicationRepository(db *sqlx.DB) *TeamApplicationRepository {
	return &TeamApplicationRepository{db: db}
}

// Create inserts an application
func (r *TeamApplicationRepository) Create(ctx context.Context, app *model.TeamApplication) error {
	now := utcNow()
	app.ID = newID()
	app.CreatedOn, app.UpdatedOn = now, now

	query := `INSERT INTO team_applications (` + applicationColumns + `) VALUES (
		:id, :user_id, :team, :motivation, :availability, :status,
		:reviewed_by, :review_note, :reviewed_on, :created_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, app); err != nil {
		return fmt.Errorf("failed to create team application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *TeamApplicationRepository) GetByID(ctx context.Context, id string) (*model.TeamApplication, error) {
	return getOne[model.TeamApplication](ctx, r.db,
		`SELECT `+applicationColumns+` FROM team_applications WHERE id = $1`, id)
}

// HasPending reports whether the user already has a pending application for the team
func (r *TeamApplicationRepository) HasPending(ctx context.Context, userID, team string) (bool, error) {
	n, err := count(ctx, r.db,
		`SELECT COUNT(*) FROM team_applications WHERE user_id = $1 AND team = $2 AND status = 'pending'`, userID, team)
	return n > 0, err
}

// ListByUser returns a user's applications, newest first
func (r *TeamApplicationRepository) ListByUser(ctx context.Context, userID string) ([]*model.TeamApplication, error) {
	return getList[model.TeamApplication](ctx, r.db,
		`SELECT `+applicationColumns+` FROM team_applications WHERE user_id = $1 ORDER BY created_on DESC`, userID)
}

// List returns applications in submission order, optionally filtered by status
func (r *TeamApplicationRepository) List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error) {
	if status == "" {
		return getList[model.TeamApplication](ctx, r.db,
			`SELECT `+applicationColumns+` FROM team_applications ORDER BY created_on ASC`)
	}
	return getList[model.TeamApplication](ctx, r.db,
		`SELECT `+applicationColumns+` FROM team_applications WHERE status = $1 ORDER BY created_on ASC`, string(status))
}

// Update replaces an application's stored fields
func (r *TeamApplicationRepository) Update(ctx context.Context, app *model.TeamApplication) error {
	app.UpdatedOn = utcNow()
	if err := namedExec(ctx, r.db, applicationUpdate, app); err != nil {
		return fmt.Errorf("failed to update team application: %w", err)
	}
	return nil
}

// Approve stores the reviewed application and, when member is non-nil,
// the roster entry it grants, in one transaction.
func (r *TeamApplicationRepository) Approve(ctx context.Context, app *model.TeamApplication, member *model.VolunteerEmployee) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to approve team application: %w", database.MapPostgresError(err))
	}
	defer func() { _ = tx.Rollback() }()

	now := utcNow()
	app.UpdatedOn = now
	if err := namedExec(ctx, tx, applicationUpdate, app); err != nil {
		return fmt.Errorf("failed to approve team application: %w", err)
	}

	var memberID string
	if member != nil {
		memberID = newID()
		row := *member
		row.ID = memberID
		row.JoinedOn, row.UpdatedOn = now, now
		if err := namedExec(ctx, tx, employeeInsert, &row); err != nil {
			return fmt.Errorf("failed to create team member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to approve team application: %w", database.MapPostgresError(err))
	}
	if member != nil {
		member.ID = memberID
		member.JoinedOn, member.UpdatedOn = now, now
	}
	return nil
}

// VolunteerEmployeeRepository stores the team roster in the volunteer_employees table
type VolunteerEmployeeRepository struct {
	db *sqlx.DB
}

// NewVolunteerEmployeeRepository creates a new roster repository
func NewVolunteerEmployeeRepository(db *sqlx.DB) *VolunteerEmployeeRepository {
	return &VolunteerEmployeeRepository{db: db}
}

// Create inserts a roster entry
func (r *VolunteerEmployeeRepository) Create(ctx context.Context, m *model.VolunteerEmployee) error {
	now := utcNow()
	m.ID = newID()
	m.JoinedOn, m.UpdatedOn = now, now

	if err := namedExec(ctx, r.db, employeeInsert, m); err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

// GetByID retrieves a roster entry by ID
func (r *VolunteerEmployeeRepository) GetByID(ctx context.Context, id string) (*model.VolunteerEmployee, error) {
	return getOne[model.VolunteerEmployee](ctx, r.db,
		`SELECT `+employeeColumns+` FROM volunteer_employees WHERE id = $1`, id)
}

// GetActive returns the user's active entry on a team
func (r *VolunteerEmployeeRepository) GetActive(ctx context.Context, userID, team string) (*model.VolunteerEmployee, error) {
	query := `SELECT ` + employeeColumns + ` FROM volunteer_employees
		WHERE user_id = $1 AND team = $2 AND active LIMIT 1`
	return getOne[model.VolunteerEmployee](ctx, r.db, query, userID, team)
}

// List returns roster entries ordered by join date
func (r *VolunteerEmployeeRepository) List(ctx context.Context, team string, activeOnly bool) ([]*model.VolunteerEmployee, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if team != "" {
		args = append(args, team)
		conditions = append(conditions, "team = $"+strconv.Itoa(len(args)))
	}
	if activeOnly {
		conditions = append(conditions, "active")
	}

	query := `SELECT ` + employeeColumns + ` FROM volunteer_employees`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY joined_on ASC`
	return getList[model.VolunteerEmployee](ctx, r.db, query, args...)
}

// Deactivate takes a member off the active roster
func (r *VolunteerEmployeeRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE volunteer_employees SET active = FALSE, updated_on = $1 WHERE id = $2`
	if _, err := exec(ctx, r.db, query, utcNow(), id); err != nil {
		return fmt.Errorf("failed to deactivate team member: %w", err)
	}
	return nil
}
