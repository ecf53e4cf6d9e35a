package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/forgo/kinship/api/internal/model"
)

// TeamService is the team application API used by TeamHandler
type TeamService interface {
	Apply(ctx context.Context, p *model.Principal, req model.CreateTeamApplicationRequest) (*model.TeamApplication, error)
	ListMine(ctx context.Context, p *model.Principal) ([]*model.TeamApplication, error)
	Withdraw(ctx context.Context, p *model.Principal, appID string) (*model.TeamApplication, error)
	List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error)
	Review(ctx context.Context, reviewer *model.Principal, appID string, req model.ReviewTeamApplicationRequest) (*model.TeamApplication, error)
	Members(ctx context.Context, team string) ([]*model.VolunteerEmployee, error)
	RemoveMember(ctx context.Context, memberID string) error
}

// TeamHandler handles team applications and the team roster
type TeamHandler struct {
	teams TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// Apply handles POST /api/team-applications
func (h *TeamHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.CreateTeamApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.teams.Apply(r.Context(), p, req)
	if err != nil {
		WriteServiceError(w, r, err, "apply to team")
		return
	}
	WriteData(w, http.StatusCreated, app, map[string]string{
		"withdraw": "/api/team-applications/" + app.ID + "/withdraw",
	})
}

// ListMine handles GET /api/team-applications/mine
func (h *TeamHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	apps, err := h.teams.ListMine(r.Context(), p)
	if err != nil {
		WriteServiceError(w, r, err, "list team applications")
		return
	}
	WriteCollection(w, apps, nil)
}

// Withdraw handles POST /api/team-applications/{id}/withdraw
func (h *TeamHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	app, err := h.teams.Withdraw(r.Context(), p, r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err, "withdraw team application")
		return
	}
	WriteData(w, http.StatusOK, app, nil)
}

// List handles GET /api/admin/team-applications?status=
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.ApplicationStatus(r.URL.Query().Get("status"))

	apps, err := h.teams.List(r.Context(), status)
	if err != nil {
		WriteServiceError(w, r, err, "list team applications")
		return
	}
	WriteCollection(w, apps, nil)
}

// Review handles POST /api/admin/team-applications/{id}/review
func (h *TeamHandler) Review(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.ReviewTeamApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.teams.Review(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		WriteServiceError(w, r, err, "review team application")
		return
	}
	WriteData(w, http.StatusOK, app, map[string]string{
		"members": "/api/admin/team-members?team=" + url.QueryEscape(app.Team),
	})
}

// Members handles GET /api/admin/team-members?team=
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.teams.Members(r.Context(), r.URL.Query().Get("team"))
	if err != nil {
		WriteServiceError(w, r, err, "list team members")
		return
	}
	WriteCollection(w, members, nil)
}

// RemoveMember handles DELETE /api/admin/team-members/{id}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.RemoveMember(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err, "remove team member")
		return
	}
	WriteNoContent(w)
}
