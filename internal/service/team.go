package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// TeamApplicationRepository defines the interface for team application storage
type TeamApplicationRepository interface {
	Create(ctx context.Context, app *model.TeamApplication) error
	GetByID(ctx context.Context, id string) (*model.TeamApplication, error)
	HasPending(ctx context.Context, userID, team string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.TeamApplication, error)
	List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error)
	Update(ctx context.Context, app *model.TeamApplication) error
	// Approve stores app and, when member is non-nil, the roster entry
	// it grants. Both writes commit or neither does.
	Approve(ctx context.Context, app *model.TeamApplication, member *model.VolunteerEmployee) error
}

// VolunteerEmployeeRepository defines the interface for team roster storage
type VolunteerEmployeeRepository interface {
	Create(ctx context.Context, member *model.VolunteerEmployee) error
	GetByID(ctx context.Context, id string) (*model.VolunteerEmployee, error)
	GetActive(ctx context.Context, userID, team string) (*model.VolunteerEmployee, error)
	List(ctx context.Context, team string, activeOnly bool) ([]*model.VolunteerEmployee, error)
	Deactivate(ctx context.Context, id string) error
}

// TeamService handles team applications and the resulting roster
type TeamService struct {
	appRepo    TeamApplicationRepository
	memberRepo VolunteerEmployeeRepository
	now        func() time.Time
}

// TeamServiceConfig holds configuration for the team service
type TeamServiceConfig struct {
	AppRepo    TeamApplicationRepository
	MemberRepo VolunteerEmployeeRepository
	Now        func() time.Time
}

// NewTeamService creates a new team service
func NewTeamService(cfg TeamServiceConfig) *TeamService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TeamService{
		appRepo:    cfg.AppRepo,
		memberRepo: cfg.MemberRepo,
		now:        cfg.Now,
	}
}

// Apply submits an application to join a team. One pending application per team.
func (s *TeamService) Apply(ctx context.Context, p *model.Principal, req model.CreateTeamApplicationRequest) (*model.TeamApplication, error) {
	if p.Role != model.RoleVolunteer && p.Role != model.RoleParent {
		return nil, ErrForbidden
	}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	team := normalizeTeam(req.Team)
	pending, err := s.appRepo.HasPending(ctx, p.UserID, team)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrApplicationPending
	}

	app := &model.TeamApplication{
		UserID:       p.UserID,
		Team:         team,
		Motivation:   strings.TrimSpace(req.Motivation),
		Availability: trimmedOrNil(req.Availability),
		Status:       model.ApplicationPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns the caller's applications
func (s *TeamService) ListMine(ctx context.Context, p *model.Principal) ([]*model.TeamApplication, error) {
	return s.appRepo.ListByUser(ctx, p.UserID)
}

// Withdraw withdraws the caller's pending application
func (s *TeamService) Withdraw(ctx context.Context, p *model.Principal, appID string) (*model.TeamApplication, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil || app.UserID != p.UserID {
		return nil, ErrApplicationNotFound
	}
	if app.Status != model.ApplicationPending {
		return nil, ErrApplicationNotPending
	}

	app.Status = model.ApplicationWithdrawn
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications, optionally filtered by status
func (s *TeamService) List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error) {
	if status != "" && !status.IsValid() {
		return nil, validationErr([]model.FieldError{{Field: "status", Message: "status must be pending, approved, rejected, or withdrawn"}})
	}
	return s.appRepo.List(ctx, status)
}

// Review approves or rejects a pending application. Approval adds the
// applicant to the team roster unless they are already an active member.
func (s *TeamService) Review(ctx context.Context, reviewer *model.Principal, appID string, req model.ReviewTeamApplicationRequest) (*model.TeamApplication, error) {
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status != model.ApplicationPending {
		return nil, ErrApplicationNotPending
	}

	now := s.now()
	app.Status = model.ApplicationRejected
	if req.Decision == model.DecisionApprove {
		app.Status = model.ApplicationApproved
	}
	app.ReviewedBy = &reviewer.UserID
	app.ReviewNote = trimmedOrNil(req.Note)
	app.ReviewedOn = &now

	if app.Status == model.ApplicationApproved {
		member, err := s.rosterEntry(ctx, app, trimmedOrNil(req.Title))
		if err != nil {
			return nil, err
		}
		if err := s.appRepo.Approve(ctx, app, member); err != nil {
			return nil, err
		}
	} else if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	slog.Info("team application reviewed",
		slog.String("application_id", app.ID),
		slog.String("status", string(app.Status)),
		slog.String("by", reviewer.UserID),
	)
	return app, nil
}

// Members returns active roster entries, optionally for one team
func (s *TeamService) Members(ctx context.Context, team string) ([]*model.VolunteerEmployee, error) {
	return s.memberRepo.List(ctx, normalizeTeam(team), true)
}

// RemoveMember deactivates a roster entry
func (s *TeamService) RemoveMember(ctx context.Context, memberID string) error {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil || !member.Active {
		return ErrTeamMemberNotFound
	}
	return s.memberRepo.Deactivate(ctx, member.ID)
}

// rosterEntry builds the entry an approval grants, or nil when the
// applicant is already an active member of the team.
func (s *TeamService) rosterEntry(ctx context.Context, app *model.TeamApplication, title *string) (*model.VolunteerEmployee, error) {
	existing, err := s.memberRepo.GetActive(ctx, app.UserID, app.Team)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	appID := app.ID
	return &model.VolunteerEmployee{
		UserID:        app.UserID,
		Team:          app.Team,
		ApplicationID: &appID,
		Title:         title,
		Active:        true,
	}, nil
}
