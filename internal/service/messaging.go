package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// EmailSender delivers a plain-text email
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a text message to an E.164 phone number
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// DeliveryRecorder observes per-recipient delivery outcomes
type DeliveryRecorder interface {
	RecordDelivery(channel model.Channel, outcome string)
}

// Delivery outcomes reported to the DeliveryRecorder
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// MessagingService fans a broadcast out across inbox, email and SMS
type MessagingService struct {
	userRepo        UserRepository
	eventRepo       EventRepository
	participantRepo ParticipantRepository
	volunteerRepo   VolunteerRepository
	memberRepo      VolunteerEmployeeRepository
	inboxRepo       InboxRepository
	email           EmailSender
	sms             SMSSender
	limiter         *rate.Limiter
	recorder        DeliveryRecorder
	deliveryTimeout time.Duration
	newID           func() string
}

// DefaultDeliveryTimeout bounds the delivery phase of one broadcast
const DefaultDeliveryTimeout = 30 * time.Minute

// MessagingServiceConfig holds configuration for the messaging service
type MessagingServiceConfig struct {
	UserRepo        UserRepository
	EventRepo       EventRepository
	ParticipantRepo ParticipantRepository
	VolunteerRepo   VolunteerRepository
	MemberRepo      VolunteerEmployeeRepository
	InboxRepo       InboxRepository
	Email           EmailSender      // nil = email channel not configured
	SMS             SMSSender        // nil = SMS channel not configured
	Limiter         *rate.Limiter    // throttles external channels; nil = unthrottled
	Recorder        DeliveryRecorder // optional
	DeliveryTimeout time.Duration    // default DefaultDeliveryTimeout
	NewID           func() string
}

// NewMessagingService creates a new messaging service
func NewMessagingService(cfg MessagingServiceConfig) *MessagingService {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}
	return &MessagingService{
		userRepo:        cfg.UserRepo,
		eventRepo:       cfg.EventRepo,
		participantRepo: cfg.ParticipantRepo,
		volunteerRepo:   cfg.VolunteerRepo,
		memberRepo:      cfg.MemberRepo,
		inboxRepo:       cfg.InboxRepo,
		email:           cfg.Email,
		sms:             cfg.SMS,
		limiter:         cfg.Limiter,
		recorder:        cfg.Recorder,
		deliveryTimeout: cfg.DeliveryTimeout,
		newID:           cfg.NewID,
	}
}

// recipient is either an account or a contact-only email/phone target
type recipient struct {
	user  *model.User
	email string
	phone string
}

// label identifies the recipient in logs
func (r *recipient) label() string {
	switch {
	case r.user != nil:
		return r.user.ID
	case r.email != "":
		return r.email
	default:
		return r.phone
	}
}

func (r *recipient) key() string {
	switch {
	case r.user != nil:
		return "user:" + r.user.ID
	case r.email != "":
		return "email:" + r.email
	default:
		return "phone:" + r.phone
	}
}

// address returns where a channel delivers to this recipient, or "" when ineligible
func (r *recipient) address(ch model.Channel) string {
	switch ch {
	case model.ChannelInbox:
		if r.user != nil {
			return r.user.ID
		}
	case model.ChannelEmail:
		if r.user == nil {
			return r.email
		}
		if r.user.EmailOptIn {
			return r.user.Email
		}
	case model.ChannelSMS:
		if r.user == nil {
			return r.phone
		}
		if r.user.SMSOptIn {
			return r.user.PhoneNumber()
		}
	}
	return ""
}

func (r *recipient) failure(ch model.Channel, reason string) model.BroadcastFailure {
	f := model.BroadcastFailure{Channel: ch, Reason: reason}
	if r.user != nil {
		id, name, email := r.user.ID, r.user.FullName(), r.user.Email
		f.RecipientID, f.RecipientName, f.Email = &id, &name, &email
		if phone := r.user.PhoneNumber(); phone != "" {
			f.Phone = &phone
		}
		return f
	}
	if r.email != "" {
		email := r.email
		f.Email = &email
	}
	if r.phone != "" {
		phone := r.phone
		f.Phone = &phone
	}
	return f
}

// recipientSet keeps recipients unique in first-seen order
type recipientSet struct {
	list  []*recipient
	index map[string]bool
}

func newRecipientSet() *recipientSet {
	return &recipientSet{index: make(map[string]bool)}
}

func (s *recipientSet) add(r *recipient) bool {
	k := r.key()
	if s.index[k] {
		return false
	}
	s.index[k] = true
	s.list = append(s.list, r)
	return true
}

// Broadcast resolves recipients and delivers the message on every requested
// channel. Individual delivery errors are reported, never returned.
func (s *MessagingService) Broadcast(ctx context.Context, sender *model.Principal, req model.BroadcastMessageRequest) (*model.BroadcastMessageResponse, error) {
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	channels := req.DistinctChannels()
	resp := &model.BroadcastMessageResponse{
		BroadcastID:       s.newID(),
		Subject:           strings.TrimSpace(req.Subject),
		RequestedChannels: channels,
		Sent:              make(map[model.Channel]int, len(channels)),
		Skipped:           make(map[model.Channel]int, len(channels)),
		CategoryCounts:    make(map[string]int),
		UnmatchedContacts: []string{},
		Warnings:          []string{},
		Failures:          []model.BroadcastFailure{},
	}
	for _, ch := range channels {
		resp.Sent[ch] = 0
		resp.Skipped[ch] = 0
	}

	set := newRecipientSet()
	if err := s.resolveCategories(ctx, req, set, resp); err != nil {
		return nil, err
	}
	if err := s.resolveSelected(ctx, req.RecipientIDs, set, resp); err != nil {
		return nil, err
	}
	if err := s.resolveDirect(ctx, req, set, resp); err != nil {
		return nil, err
	}

	resp.TotalRecipients = len(set.list)
	if resp.TotalRecipients == 0 {
		resp.Warnings = append(resp.Warnings, "no recipients matched the selection")
		resp.Status = model.BroadcastSuccess
		return resp, nil
	}

	// The batch finishes even if the caller goes away; only the delivery
	// timeout cuts it short.
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
	defer cancel()

	body := strings.TrimSpace(req.Message)
	for _, ch := range channels {
		s.deliver(deliverCtx, ch, sender, resp, set.list, body)
	}

	resp.Status = broadcastStatus(resp)
	slog.Info("broadcast delivered",
		slog.String("broadcast_id", resp.BroadcastID),
		slog.String("sender_id", sender.UserID),
		slog.Int("recipients", resp.TotalRecipients),
		slog.Int("failures", len(resp.Failures)),
		slog.String("status", string(resp.Status)),
	)
	return resp, nil
}

// Categories returns every category with its current recipient count.
// Event categories are only counted when eventID is given.
func (s *MessagingService) Categories(ctx context.Context, eventID string) ([]model.CategorySummary, error) {
	summaries := make([]model.CategorySummary, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		if c.RequiresEvent() && eventID == "" {
			continue
		}
		users, err := s.categoryUsers(ctx, c, eventID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.CategorySummary{
			Category:      c,
			Count:         len(users),
			RequiresEvent: c.RequiresEvent(),
		})
	}
	return summaries, nil
}

func (s *MessagingService) resolveCategories(ctx context.Context, req model.BroadcastMessageRequest, set *recipientSet, resp *model.BroadcastMessageResponse) error {
	eventID := ""
	if req.EventID != nil {
		eventID = *req.EventID
	}

	seen := make(map[model.RecipientCategory]bool, len(req.Categories))
	for _, c := range req.Categories {
		if seen[c] {
			continue
		}
		seen[c] = true

		users, err := s.categoryUsers(ctx, c, eventID)
		if err != nil {
			return err
		}
		resp.CategoryCounts[string(c)] = len(users)
		for _, u := range users {
			set.add(&recipient{user: u})
		}
	}
	return nil
}

func (s *MessagingService) categoryUsers(ctx context.Context, c model.RecipientCategory, eventID string) ([]*model.User, error) {
	switch c {
	case model.CategoryAllUsers:
		return s.userRepo.List(ctx, "")
	case model.CategoryParents:
		return s.userRepo.List(ctx, model.RoleParent)
	case model.CategoryVolunteers:
		return s.userRepo.List(ctx, model.RoleVolunteer)
	case model.CategoryAdmins:
		return s.userRepo.List(ctx, model.RoleAdmin)
	case model.CategoryTeamMembers:
		members, err := s.memberRepo.List(ctx, "", true)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		return s.usersByIDs(ctx, ids)
	case model.CategoryEventParticipants:
		if err := s.requireEvent(ctx, eventID); err != nil {
			return nil, err
		}
		participants, err := s.participantRepo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(participants))
		for _, p := range participants {
			if p.Status.IsActive() {
				ids = append(ids, p.ParentID)
			}
		}
		return s.usersByIDs(ctx, ids)
	case model.CategoryEventVolunteers:
		if err := s.requireEvent(ctx, eventID); err != nil {
			return nil, err
		}
		volunteers, err := s.volunteerRepo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(volunteers))
		for _, v := range volunteers {
			if v.Status == model.VolunteerSignedUp {
				ids = append(ids, v.UserID)
			}
		}
		return s.usersByIDs(ctx, ids)
	}
	return nil, fmt.Errorf("unknown recipient category %q", c)
}

func (s *MessagingService) requireEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return ErrEventNotFound
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}
	return nil
}

// usersByIDs loads users for ids, deduplicated, in the order of ids
func (s *MessagingService) usersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*model.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (s *MessagingService) resolveSelected(ctx context.Context, ids []string, set *recipientSet, resp *model.BroadcastMessageResponse) error {
	ids = distinct(ids)
	if len(ids) == 0 {
		return nil
	}
	users, err := s.usersByIDs(ctx, ids)
	if err != nil {
		return err
	}

	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
		set.add(&recipient{user: u})
	}
	for _, id := range ids {
		if !found[id] {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("recipient %s not found", id))
		}
	}
	resp.CategoryCounts[model.CountKeySelectedRecipients] = len(users)
	return nil
}

func (s *MessagingService) resolveDirect(ctx context.Context, req model.BroadcastMessageRequest, set *recipientSet, resp *model.BroadcastMessageResponse) error {
	contacts := 0
	seen := make(map[string]bool)

	for _, raw := range req.DirectEmails {
		email := model.NormalizeEmail(raw)
		if email == "" {
			continue
		}
		if !model.IsValidEmail(email) {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("invalid direct email %q ignored", raw))
			continue
		}
		if seen["email:"+email] {
			continue
		}
		seen["email:"+email] = true
		contacts++

		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user != nil {
			set.add(&recipient{user: user})
			continue
		}
		set.add(&recipient{email: email})
		resp.UnmatchedContacts = append(resp.UnmatchedContacts, email)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("no account found for %s; delivering directly", email))
	}

	for _, raw := range req.DirectPhones {
		phone := model.NormalizePhone(raw)
		if phone == "" {
			continue
		}
		if !model.IsValidPhone(phone) {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("invalid direct phone %q ignored", raw))
			continue
		}
		if seen["phone:"+phone] {
			continue
		}
		seen["phone:"+phone] = true
		contacts++

		user, err := s.userRepo.GetByPhone(ctx, phone)
		if err != nil {
			return err
		}
		if user != nil {
			set.add(&recipient{user: user})
			continue
		}
		set.add(&recipient{phone: phone})
		resp.UnmatchedContacts = append(resp.UnmatchedContacts, phone)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("no account found for %s; delivering directly", phone))
	}

	if contacts > 0 {
		resp.CategoryCounts[model.CountKeyDirectContacts] = contacts
	}
	return nil
}

// deliver sends on one channel. Every recipient ends up counted exactly once
// as sent, skipped, or failed.
func (s *MessagingService) deliver(ctx context.Context, ch model.Channel, sender *model.Principal, resp *model.BroadcastMessageResponse, recipients []*recipient, body string) {
	if !s.configured(ch) {
		eligible := 0
		for _, r := range recipients {
			if r.address(ch) != "" {
				eligible++
			}
			s.record(ch, OutcomeSkipped)
		}
		resp.Skipped[ch] += len(recipients)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s channel is not configured; %d eligible recipients skipped", ch, eligible))
		return
	}

	for _, r := range recipients {
		addr := r.address(ch)
		if addr == "" {
			resp.Skipped[ch]++
			s.record(ch, OutcomeSkipped)
			continue
		}

		if err := s.send(ctx, ch, sender, resp, addr, body); err != nil {
			resp.Failures = append(resp.Failures, r.failure(ch, err.Error()))
			s.record(ch, OutcomeFailed)
			slog.Warn("broadcast delivery failed",
				slog.String("broadcast_id", resp.BroadcastID),
				slog.String("channel", string(ch)),
				slog.String("recipient", r.label()),
				slog.String("error", err.Error()),
			)
			continue
		}
		resp.Sent[ch]++
		s.record(ch, OutcomeSent)
	}
}

func (s *MessagingService) send(ctx context.Context, ch model.Channel, sender *model.Principal, resp *model.BroadcastMessageResponse, addr, body string) error {
	switch ch {
	case model.ChannelInbox:
		broadcastID, senderID := resp.BroadcastID, sender.UserID
		return s.inboxRepo.Create(ctx, &model.InboxMessage{
			UserID:      addr,
			Subject:     resp.Subject,
			Body:        body,
			SenderID:    &senderID,
			BroadcastID: &broadcastID,
		})
	case model.ChannelEmail:
		if err := s.wait(ctx); err != nil {
			return err
		}
		return s.email.Send(ctx, addr, resp.Subject, body)
	case model.ChannelSMS:
		if err := s.wait(ctx); err != nil {
			return err
		}
		return s.sms.Send(ctx, addr, smsText(resp.Subject, body))
	}
	return ErrChannelNotConfigured
}

func (s *MessagingService) configured(ch model.Channel) bool {
	switch ch {
	case model.ChannelInbox:
		return s.inboxRepo != nil
	case model.ChannelEmail:
		return s.email != nil
	case model.ChannelSMS:
		return s.sms != nil
	}
	return false
}

func (s *MessagingService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *MessagingService) record(ch model.Channel, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordDelivery(ch, outcome)
	}
}

func broadcastStatus(resp *model.BroadcastMessageResponse) model.BroadcastStatus {
	if len(resp.Failures) == 0 {
		return model.BroadcastSuccess
	}
	sent := 0
	for _, n := range resp.Sent {
		sent += n
	}
	if sent == 0 {
		return model.BroadcastFailed
	}
	return model.BroadcastPartial
}

func smsText(subject, body string) string {
	return subject + ": " + body
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
