package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/google/uuid"
)

// TeamApplicationRepository handles team application database operations
type TeamApplicationRepository struct {
	db database.Database
}

// NewTeamApplicationRepository creates a new team application repository
func NewTeamApplicationRepository(db database.Database) *TeamApplicationRepository {
	return &TeamApplicationRepository{db: db}
}

func applicationContent(a *model.TeamApplication) map[string]interface{} {
	content := map[string]interface{}{
		"user_id":    a.UserID,
		"team":       a.Team,
		"motivation": a.Motivation,
		"status":     string(a.Status),
		"created_on": a.CreatedOn,
		"updated_on": a.UpdatedOn,
	}
	putOpt(content, "availability", a.Availability)
	putOpt(content, "reviewed_by", a.ReviewedBy)
	putOpt(content, "review_note", a.ReviewNote)
	putOpt(content, "reviewed_on", a.ReviewedOn)
	return content
}

// Create stores a new application
func (r *TeamApplicationRepository) Create(ctx context.Context, app *model.TeamApplication) error {
	now := utcNow()
	app.CreatedOn, app.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "team_application", applicationContent(app))
	if err != nil {
		return fmt.Errorf("failed to create team application: %w", err)
	}
	app.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves an application by ID
func (r *TeamApplicationRepository) GetByID(ctx context.Context, id string) (*model.TeamApplication, error) {
	if !hasTable(id, "team_application") {
		return nil, nil
	}
	return queryOne[model.TeamApplication](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// HasPending reports whether the user already has a pending application for the team
func (r *TeamApplicationRepository) HasPending(ctx context.Context, userID, team string) (bool, error) {
	query := `SELECT count() AS count FROM team_application
		WHERE user_id = $user_id AND team = $team AND status = 'pending' GROUP ALL`
	n, err := countRecords(ctx, r.db, query, map[string]interface{}{"user_id": userID, "team": team})
	return n > 0, err
}

// ListByUser returns a user's applications, newest first
func (r *TeamApplicationRepository) ListByUser(ctx context.Context, userID string) ([]*model.TeamApplication, error) {
	query := `SELECT * FROM team_application WHERE user_id = $user_id ORDER BY created_on DESC`
	return queryList[model.TeamApplication](ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// List returns applications in submission order, optionally filtered by status
func (r *TeamApplicationRepository) List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error) {
	query := `SELECT * FROM team_application`
	vars := map[string]interface{}{}
	if status != "" {
		query += ` WHERE status = $status`
		vars["status"] = string(status)
	}
	query += ` ORDER BY created_on ASC`
	return queryList[model.TeamApplication](ctx, r.db, query, vars)
}

// Update replaces an application's stored fields
func (r *TeamApplicationRepository) Update(ctx context.Context, app *model.TeamApplication) error {
	app.UpdatedOn = utcNow()
	query := `UPDATE type::record($id) CONTENT $content`
	vars := map[string]interface{}{"id": app.ID, "content": applicationContent(app)}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update team application: %w", err)
	}
	return nil
}

// Approve stores the reviewed application and, when member is non-nil,
// the roster entry it grants. Both writes commit or neither does.
func (r *TeamApplicationRepository) Approve(ctx context.Context, app *model.TeamApplication, member *model.VolunteerEmployee) error {
	now := utcNow()
	app.UpdatedOn = now

	batch := database.NewAtomicBatch().
		Add(`UPDATE type::record($id) CONTENT $content`, map[string]interface{}{"id": app.ID, "content": applicationContent(app)})

	var memberID string
	if member != nil {
		member.JoinedOn, member.UpdatedOn = now, now
		memberID = "m" + strings.ReplaceAll(uuid.NewString(), "-", "")
		batch.Add(`CREATE type::record('volunteer_employee', $member_id) CONTENT $member`,
			map[string]interface{}{"member_id": memberID, "member": memberContent(member)})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to approve team application: %w", err)
	}
	if member != nil {
		member.ID = "volunteer_employee:" + memberID
	}
	return nil
}

// VolunteerEmployeeRepository handles team roster database operations
type VolunteerEmployeeRepository struct {
	db database.Database
}

// NewVolunteerEmployeeRepository creates a new roster repository
func NewVolunteerEmployeeRepository(db database.Database) *VolunteerEmployeeRepository {
	return &VolunteerEmployeeRepository{db: db}
}

func memberContent(m *model.VolunteerEmployee) map[string]interface{} {
	content := map[string]interface{}{
		"user_id":    m.UserID,
		"team":       m.Team,
		"active":     m.Active,
		"joined_on":  m.JoinedOn,
		"updated_on": m.UpdatedOn,
	}
	putOpt(content, "application_id", m.ApplicationID)
	putOpt(content, "title", m.Title)
	return content
}

// Create adds a roster entry
func (r *VolunteerEmployeeRepository) Create(ctx context.Context, m *model.VolunteerEmployee) error {
	now := utcNow()
	m.JoinedOn, m.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "volunteer_employee", memberContent(m))
	if err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}
	m.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves a roster entry by ID
func (r *VolunteerEmployeeRepository) GetByID(ctx context.Context, id string) (*model.VolunteerEmployee, error) {
	if !hasTable(id, "volunteer_employee") {
		return nil, nil
	}
	return queryOne[model.VolunteerEmployee](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetActive returns the user's active entry on a team
func (r *VolunteerEmployeeRepository) GetActive(ctx context.Context, userID, team string) (*model.VolunteerEmployee, error) {
	query := `SELECT * FROM volunteer_employee WHERE user_id = $user_id AND team = $team AND active = true LIMIT 1`
	return queryOne[model.VolunteerEmployee](ctx, r.db, query, map[string]interface{}{"user_id": userID, "team": team})
}

// List returns roster entries ordered by join date
func (r *VolunteerEmployeeRepository) List(ctx context.Context, team string, activeOnly bool) ([]*model.VolunteerEmployee, error) {
	var conditions []string
	vars := map[string]interface{}{}
	if team != "" {
		conditions = append(conditions, "team = $team")
		vars["team"] = team
	}
	if activeOnly {
		conditions = append(conditions, "active = true")
	}

	query := `SELECT * FROM volunteer_employee`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY joined_on ASC`
	return queryList[model.VolunteerEmployee](ctx, r.db, query, vars)
}

// Deactivate takes a member off the active roster
func (r *VolunteerEmployeeRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE type::record($id) SET active = false, updated_on = time::now()`
	if _, err := r.db.Query(ctx, query, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("failed to deactivate team member: %w", err)
	}
	return nil
}
