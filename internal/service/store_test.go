package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// memStore is an in-memory implementation of every repository interface,
// shared by the service tests.
type memStore struct {
	mu  sync.Mutex
	seq int
	now func() time.Time

	users        map[string]*model.User
	children     map[string]*model.Child
	events       map[string]*model.Event
	participants map[string]*model.Participant
	volunteers   map[string]*model.Volunteer
	apps         map[string]*model.TeamApplication
	members      map[string]*model.VolunteerEmployee
	posts        map[string]*model.Announcement
	inbox        map[string]*model.InboxMessage

	// order preserves insertion for list methods
	order []string

	inboxErrFor map[string]error // user ID -> error returned by inbox Create
	rosterErr   error            // returned by roster inserts
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:          now,
		users:        make(map[string]*model.User),
		children:     make(map[string]*model.Child),
		events:       make(map[string]*model.Event),
		participants: make(map[string]*model.Participant),
		volunteers:   make(map[string]*model.Volunteer),
		apps:         make(map[string]*model.TeamApplication),
		members:      make(map[string]*model.VolunteerEmployee),
		posts:        make(map[string]*model.Announcement),
		inbox:        make(map[string]*model.InboxMessage),
		inboxErrFor:  make(map[string]error),
	}
}

func (m *memStore) nextID(table string) string {
	m.seq++
	id := fmt.Sprintf("%s:%d", table, m.seq)
	m.order = append(m.order, id)
	return id
}

func (m *memStore) rank(id string) int {
	for i, v := range m.order {
		if v == id {
			return i
		}
	}
	return len(m.order)
}

// ===== Users =====

type memUsers struct{ *memStore }

func (m memUsers) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	u.ID = m.nextID("user")
	u.CreatedOn, u.UpdatedOn = m.now(), m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m memUsers) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		u, _ := m.GetByID(ctx, id)
		if u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memUsers) find(match func(u *model.User) bool) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (m memUsers) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ExternalID != nil && *u.ExternalID == externalID }), nil
}

func (m memUsers) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Phone != nil && *u.Phone == phone }), nil
}

func (m memUsers) List(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.rank(out[i].ID) < m.rank(out[j].ID) })
	return out, nil
}

func (m memUsers) Update(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) UpdatePassword(ctx context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Hash = &hash
	}
	return nil
}

func (m memUsers) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Role = role
	}
	return nil
}

func (m memUsers) LinkExternalID(ctx context.Context, userID, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.ExternalID = &externalID
	}
	return nil
}

func (m memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// ===== Children =====

type memChildren struct{ *memStore }

func (m memChildren) Create(ctx context.Context, c *model.Child) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("child")
	cp := *c
	m.children[c.ID] = &cp
	return nil
}

func (m memChildren) GetByID(ctx context.Context, id string) (*model.Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.children[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m memChildren) ListByParent(ctx context.Context, parentID string) ([]*model.Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Child
	for _, c := range m.children {
		if c.ParentID == parentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memChildren) Update(ctx context.Context, c *model.Child) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.children[c.ID] = &cp
	return nil
}

func (m memChildren) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.children, id)
	return nil
}

// ===== Events =====

type memEvents struct{ *memStore }

func (m memEvents) Create(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID("event")
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m memEvents) GetByID(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m memEvents) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, e := range m.events {
		if filter.Audiences != nil && !containsAudience(filter.Audiences, e.Audience) {
			continue
		}
		if filter.StartsAfter != nil && !e.StartTime.After(*filter.StartsAfter) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m memEvents) Update(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m memEvents) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

func (m memEvents) MarkCompleted(ctx context.Context, endedBefore time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Status == model.EventStatusScheduled && e.EndsAt().Before(endedBefore) {
			e.Status = model.EventStatusCompleted
			n++
		}
	}
	return n, nil
}

func containsAudience(list []model.Audience, a model.Audience) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

// ===== Participants =====

type memParticipants struct{ *memStore }

func (m memParticipants) Create(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID("participant")
	p.RegisteredOn = m.now()
	cp := *p
	m.participants[p.ID] = &cp
	return nil
}

func (m memParticipants) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m memParticipants) filter(match func(p *model.Participant) bool) []*model.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Participant
	for _, p := range m.participants {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.rank(out[i].ID) < m.rank(out[j].ID) })
	return out
}

func (m memParticipants) GetActiveByEventAndChild(ctx context.Context, eventID, childID string) (*model.Participant, error) {
	found := m.filter(func(p *model.Participant) bool {
		return p.EventID == eventID && p.ChildID == childID && p.Status.IsActive()
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m memParticipants) CountByStatus(ctx context.Context, eventID string, status model.ParticipantStatus) (int, error) {
	return len(m.filter(func(p *model.Participant) bool { return p.EventID == eventID && p.Status == status })), nil
}

func (m memParticipants) NextWaitlisted(ctx context.Context, eventID string) (*model.Participant, error) {
	found := m.filter(func(p *model.Participant) bool {
		return p.EventID == eventID && p.Status == model.ParticipantWaitlisted
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m memParticipants) UpdateStatus(ctx context.Context, id string, status model.ParticipantStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		p.Status = status
	}
	return nil
}

func (m memParticipants) ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error) {
	return m.filter(func(p *model.Participant) bool { return p.EventID == eventID }), nil
}

func (m memParticipants) ListByParent(ctx context.Context, parentID string) ([]*model.Participant, error) {
	return m.filter(func(p *model.Participant) bool { return p.ParentID == parentID }), nil
}

func (m memParticipants) ListActiveByChild(ctx context.Context, childID string) ([]*model.Participant, error) {
	return m.filter(func(p *model.Participant) bool { return p.ChildID == childID && p.Status.IsActive() }), nil
}

// ===== Volunteers =====

type memVolunteers struct{ *memStore }

func (m memVolunteers) Create(ctx context.Context, v *model.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.nextID("volunteer")
	cp := *v
	m.volunteers[v.ID] = &cp
	return nil
}

func (m memVolunteers) filter(match func(v *model.Volunteer) bool) []*model.Volunteer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Volunteer
	for _, v := range m.volunteers {
		if match(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.rank(out[i].ID) < m.rank(out[j].ID) })
	return out
}

func (m memVolunteers) GetActive(ctx context.Context, eventID, userID string) (*model.Volunteer, error) {
	found := m.filter(func(v *model.Volunteer) bool {
		return v.EventID == eventID && v.UserID == userID && v.Status == model.VolunteerSignedUp
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m memVolunteers) CountActive(ctx context.Context, eventID string) (int, error) {
	return len(m.filter(func(v *model.Volunteer) bool {
		return v.EventID == eventID && v.Status == model.VolunteerSignedUp
	})), nil
}

func (m memVolunteers) ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error) {
	return m.filter(func(v *model.Volunteer) bool { return v.EventID == eventID }), nil
}

func (m memVolunteers) ListByUser(ctx context.Context, userID string) ([]*model.Volunteer, error) {
	return m.filter(func(v *model.Volunteer) bool { return v.UserID == userID }), nil
}

func (m memVolunteers) UpdateStatus(ctx context.Context, id string, status model.VolunteerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.volunteers[id]; ok {
		v.Status = status
	}
	return nil
}

// ===== Team applications and roster =====

type memApps struct{ *memStore }

func (m memApps) Create(ctx context.Context, a *model.TeamApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID("team_application")
	cp := *a
	m.apps[a.ID] = &cp
	return nil
}

func (m memApps) GetByID(ctx context.Context, id string) (*model.TeamApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m memApps) HasPending(ctx context.Context, userID, team string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.UserID == userID && a.Team == team && a.Status == model.ApplicationPending {
			return true, nil
		}
	}
	return false, nil
}

func (m memApps) ListByUser(ctx context.Context, userID string) ([]*model.TeamApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TeamApplication
	for _, a := range m.apps {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memApps) List(ctx context.Context, status model.ApplicationStatus) ([]*model.TeamApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TeamApplication
	for _, a := range m.apps {
		if status == "" || a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memApps) Update(ctx context.Context, a *model.TeamApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.apps[a.ID] = &cp
	return nil
}

func (m memApps) Approve(ctx context.Context, a *model.TeamApplication, e *model.VolunteerEmployee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e != nil {
		if m.rosterErr != nil {
			return m.rosterErr
		}
		e.ID = m.nextID("volunteer_employee")
		e.JoinedOn = m.now()
		ecp := *e
		m.members[e.ID] = &ecp
	}
	cp := *a
	m.apps[a.ID] = &cp
	return nil
}

type memMembers struct{ *memStore }

func (m memMembers) Create(ctx context.Context, e *model.VolunteerEmployee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID("volunteer_employee")
	cp := *e
	m.members[e.ID] = &cp
	return nil
}

func (m memMembers) GetByID(ctx context.Context, id string) (*model.VolunteerEmployee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.members[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m memMembers) GetActive(ctx context.Context, userID, team string) (*model.VolunteerEmployee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.members {
		if e.UserID == userID && e.Team == team && e.Active {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m memMembers) List(ctx context.Context, team string, activeOnly bool) ([]*model.VolunteerEmployee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.VolunteerEmployee
	for _, e := range m.members {
		if (team == "" || e.Team == team) && (!activeOnly || e.Active) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.rank(out[i].ID) < m.rank(out[j].ID) })
	return out, nil
}

func (m memMembers) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.members[id]; ok {
		e.Active = false
	}
	return nil
}

// ===== Announcements =====

type memPosts struct{ *memStore }

func (m memPosts) Create(ctx context.Context, a *model.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID("announcement")
	cp := *a
	m.posts[a.ID] = &cp
	return nil
}

func (m memPosts) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.posts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m memPosts) List(ctx context.Context, filter model.AnnouncementFilter) ([]*model.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Announcement
	for _, a := range m.posts {
		if filter.Audiences != nil && !containsAudience(filter.Audiences, a.Audience) {
			continue
		}
		if filter.ActiveAt != nil && !a.IsActiveAt(*filter.ActiveAt) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].PublishedOn.After(out[j].PublishedOn)
	})
	return out, nil
}

func (m memPosts) Update(ctx context.Context, a *model.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.posts[a.ID] = &cp
	return nil
}

func (m memPosts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}

// ===== Inbox =====

type memInbox struct{ *memStore }

func (m memInbox) Create(ctx context.Context, msg *model.InboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inboxErrFor[msg.UserID]; err != nil {
		return err
	}
	msg.ID = m.nextID("inbox_message")
	msg.CreatedOn = m.now()
	cp := *msg
	m.inbox[msg.ID] = &cp
	return nil
}

func (m memInbox) GetByID(ctx context.Context, id string) (*model.InboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.inbox[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

func (m memInbox) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.InboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.InboxMessage
	for _, msg := range m.inbox {
		if msg.UserID == userID && (!unreadOnly || !msg.IsRead()) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memInbox) CountUnread(ctx context.Context, userID string) (int, error) {
	msgs, _ := m.ListByUser(ctx, userID, true)
	return len(msgs), nil
}

func (m memInbox) MarkRead(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.inbox[id]; ok {
		msg.ReadOn = &at
	}
	return nil
}

func (m memInbox) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inbox, id)
	return nil
}

// ===== Fixtures =====

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func (m *memStore) seedUser(role model.UserRole, email string, mutate ...func(u *model.User)) *model.User {
	u := &model.User{
		Email:      email,
		FirstName:  "Test",
		LastName:   string(role),
		Role:       role,
		EmailOptIn: true,
	}
	for _, fn := range mutate {
		fn(u)
	}
	_ = memUsers{m}.Create(context.Background(), u)
	return u
}

func (m *memStore) seedChild(parentID string, birth time.Time) *model.Child {
	c := &model.Child{ParentID: parentID, FirstName: "Kid", LastName: "Test", BirthDate: birth}
	_ = memChildren{m}.Create(context.Background(), c)
	return c
}

func (m *memStore) seedEvent(mutate ...func(e *model.Event)) *model.Event {
	e := &model.Event{
		Title:     "Picnic",
		StartTime: fixedNow.Add(72 * time.Hour),
		Audience:  model.AudienceAll,
		Status:    model.EventStatusScheduled,
		CreatedBy: "user:admin",
	}
	for _, fn := range mutate {
		fn(e)
	}
	_ = memEvents{m}.Create(context.Background(), e)
	return e
}

func principal(u *model.User) *model.Principal {
	return &model.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, Source: SourceLocal}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
