package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/repository"
)

// DefaultPassword is the plaintext password of every fixture user
const DefaultPassword = "testpass123"

// Factory creates test entities through the SurrealDB repositories
type Factory struct {
	Users         *repository.UserRepository
	Children      *repository.ChildRepository
	Events        *repository.EventRepository
	Participants  *repository.ParticipantRepository
	Volunteers    *repository.VolunteerRepository
	Announcements *repository.AnnouncementRepository
	Inbox         *repository.InboxRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		Users:         repository.NewUserRepository(db),
		Children:      repository.NewChildRepository(db),
		Events:        repository.NewEventRepository(db),
		Participants:  repository.NewParticipantRepository(db),
		Volunteers:    repository.NewVolunteerRepository(db),
		Announcements: repository.NewAnnouncementRepository(db),
		Inbox:         repository.NewInboxRepository(db),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      *string
	Password   string
	Role       model.UserRole
	EmailOptIn bool
	SMSOptIn   bool
}

// CreateUser creates a parent account unless opts say otherwise
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:      fmt.Sprintf("user_%s@test.local", randomID()),
		FirstName:  "Test",
		LastName:   "User",
		Password:   DefaultPassword,
		Role:       model.RoleParent,
		EmailOptIn: true,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	h := string(hash)

	user := &model.User{
		Email:      o.Email,
		Hash:       &h,
		FirstName:  o.FirstName,
		LastName:   o.LastName,
		Phone:      o.Phone,
		Role:       o.Role,
		EmailOptIn: o.EmailOptIn,
		SMSOptIn:   o.SMSOptIn,
	}
	if err := f.Users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateAdmin creates an admin account
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, WithRole(model.RoleAdmin))
}

// CreateVolunteer creates a volunteer account
func (f *Factory) CreateVolunteer(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, WithRole(model.RoleVolunteer))
}

// WithRole sets the user role
func WithRole(role model.UserRole) func(*UserOpts) {
	return func(o *UserOpts) { o.Role = role }
}

// WithEmail sets the user email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// WithPhone sets the user phone and opts them into SMS
func WithPhone(phone string) func(*UserOpts) {
	return func(o *UserOpts) {
		o.Phone = &phone
		o.SMSOptIn = true
	}
}

// ============================================================================
// Child Fixtures
// ============================================================================

// CreateChild creates a child of the given parent aged years old today
func (f *Factory) CreateChild(t *testing.T, parent *model.User, years int) *model.Child {
	t.Helper()

	child := &model.Child{
		ParentID:  parent.ID,
		FirstName: "Kid",
		LastName:  parent.LastName,
		BirthDate: time.Now().UTC().AddDate(-years, 0, -1).Truncate(24 * time.Hour),
	}
	if err := f.Children.Create(ctx(t), child); err != nil {
		t.Fatalf("fixtures: failed to create child: %v", err)
	}
	return child
}

// ============================================================================
// Event Fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Title          string
	StartTime      time.Time
	EndTime        *time.Time
	Audience       model.Audience
	Capacity       int
	VolunteerSlots int
	MinAge         *int
	MaxAge         *int
	Status         model.EventStatus
}

// CreateEvent creates a scheduled event starting tomorrow
func (f *Factory) CreateEvent(t *testing.T, creator *model.User, opts ...func(*EventOpts)) *model.Event {
	t.Helper()

	o := &EventOpts{
		Title:     fmt.Sprintf("Event %s", randomID()),
		StartTime: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
		Audience:  model.AudienceAll,
		Status:    model.EventStatusScheduled,
	}
	for _, fn := range opts {
		fn(o)
	}

	event := &model.Event{
		Title:          o.Title,
		StartTime:      o.StartTime,
		EndTime:        o.EndTime,
		Audience:       o.Audience,
		Capacity:       o.Capacity,
		VolunteerSlots: o.VolunteerSlots,
		MinAge:         o.MinAge,
		MaxAge:         o.MaxAge,
		Status:         o.Status,
		CreatedBy:      creator.ID,
	}
	if err := f.Events.Create(ctx(t), event); err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}
	return event
}

// WithCapacity limits the number of registered participants
func WithCapacity(capacity int) func(*EventOpts) {
	return func(o *EventOpts) { o.Capacity = capacity }
}

// WithVolunteerSlots sets how many volunteers the event needs
func WithVolunteerSlots(slots int) func(*EventOpts) {
	return func(o *EventOpts) { o.VolunteerSlots = slots }
}

// WithAudience restricts the event audience
func WithAudience(a model.Audience) func(*EventOpts) {
	return func(o *EventOpts) { o.Audience = a }
}

// WithStart sets the start time and clears the end time
func WithStart(start time.Time) func(*EventOpts) {
	return func(o *EventOpts) {
		o.StartTime = start
		o.EndTime = nil
	}
}

// ============================================================================
// Registration Fixtures
// ============================================================================

// Register stores a participant record with the given status
func (f *Factory) Register(t *testing.T, event *model.Event, child *model.Child, status model.ParticipantStatus) *model.Participant {
	t.Helper()

	p := &model.Participant{
		EventID:  event.ID,
		ChildID:  child.ID,
		ParentID: child.ParentID,
		Status:   status,
	}
	if err := f.Participants.Create(ctx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create participant: %v", err)
	}
	return p
}

// SignUp stores an active volunteer signup
func (f *Factory) SignUp(t *testing.T, event *model.Event, user *model.User) *model.Volunteer {
	t.Helper()

	v := &model.Volunteer{
		EventID: event.ID,
		UserID:  user.ID,
		Status:  model.VolunteerSignedUp,
	}
	if err := f.Volunteers.Create(ctx(t), v); err != nil {
		t.Fatalf("fixtures: failed to create volunteer signup: %v", err)
	}
	return v
}

// ============================================================================
// Announcement Fixtures
// ============================================================================

// CreateAnnouncement publishes an announcement now for the given audience
func (f *Factory) CreateAnnouncement(t *testing.T, author *model.User, audience model.Audience) *model.Announcement {
	t.Helper()

	a := &model.Announcement{
		Title:       fmt.Sprintf("Announcement %s", randomID()),
		Body:        "Doors open at nine.",
		Audience:    audience,
		PublishedOn: time.Now().UTC().Add(-time.Minute).Truncate(time.Second),
		AuthorID:    author.ID,
	}
	if err := f.Announcements.Create(ctx(t), a); err != nil {
		t.Fatalf("fixtures: failed to create announcement: %v", err)
	}
	return a
}
