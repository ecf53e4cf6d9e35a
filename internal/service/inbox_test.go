package service

import (
	"context"
	"testing"
	"time"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Inbox
// ============================================================================

func TestInbox_OwnershipAndReadState(t *testing.T) {
	t.Parallel()
	store := newMemStore(clock)
	inbox := NewInboxService(InboxServiceConfig{Repo: memInbox{store}, Now: clock})
	owner := store.seedUser(model.RoleParent, "owner@example.org")
	other := store.seedUser(model.RoleParent, "other@example.org")
	ctx := context.Background()

	msg := &model.InboxMessage{UserID: owner.ID, Subject: "Hello", Body: "Welcome"}
	require.NoError(t, memInbox{store}.Create(ctx, msg))
	require.NoError(t, memInbox{store}.Create(ctx, &model.InboxMessage{UserID: owner.ID, Subject: "Second", Body: "b"}))

	n, err := inbox.UnreadCount(ctx, principal(owner))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = inbox.MarkRead(ctx, principal(other), msg.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	read, err := inbox.MarkRead(ctx, principal(owner), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadOn)
	assert.Equal(t, fixedNow, *read.ReadOn)

	// Marking again keeps the first timestamp
	later := NewInboxService(InboxServiceConfig{Repo: memInbox{store}, Now: func() time.Time { return fixedNow.Add(time.Hour) }})
	again, err := later.MarkRead(ctx, principal(owner), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, *again.ReadOn)

	unread, err := inbox.List(ctx, principal(owner), true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Second", unread[0].Subject)

	assert.ErrorIs(t, inbox.Delete(ctx, principal(other), msg.ID), ErrMessageNotFound)
	require.NoError(t, inbox.Delete(ctx, principal(owner), msg.ID))
	all, _ := inbox.List(ctx, principal(owner), false)
	assert.Len(t, all, 1)
}

// ============================================================================
// Announcements
// ============================================================================

func TestAnnouncements_VisibilityWindow(t *testing.T) {
	t.Parallel()
	store := newMemStore(clock)
	posts := NewAnnouncementService(AnnouncementServiceConfig{Repo: memPosts{store}, Now: clock})
	admin := store.seedUser(model.RoleAdmin, "admin@example.org")
	parent := store.seedUser(model.RoleParent, "parent@example.org")
	volunteer := store.seedUser(model.RoleVolunteer, "volunteer@example.org")
	ctx := context.Background()

	create := func(req model.CreateAnnouncementRequest) *model.Announcement {
		t.Helper()
		a, err := posts.Create(ctx, principal(admin), req)
		require.NoError(t, err)
		return a
	}

	later := fixedNow.Add(24 * time.Hour)
	earlier := fixedNow.Add(-time.Hour)
	older := fixedNow.Add(-48 * time.Hour)

	general := create(model.CreateAnnouncementRequest{Title: "Welcome", Body: "Hello all", PublishedOn: &older})
	pinned := create(model.CreateAnnouncementRequest{Title: "Parking", Body: "Use lot B", Audience: model.AudienceParents, Pinned: true, PublishedOn: &older})
	create(model.CreateAnnouncementRequest{Title: "Soon", Body: "Coming", PublishedOn: &later})
	create(model.CreateAnnouncementRequest{Title: "Old", Body: "Gone", PublishedOn: &older, ExpiresOn: &earlier})
	create(model.CreateAnnouncementRequest{Title: "Crew", Body: "Briefing", Audience: model.AudienceVolunteers})

	forParent, err := posts.List(ctx, principal(parent), true)
	require.NoError(t, err)
	require.Len(t, forParent, 2, "includeInactive is ignored for non-admins")
	assert.Equal(t, pinned.ID, forParent[0].ID, "pinned first")
	assert.Equal(t, general.ID, forParent[1].ID)

	forVolunteer, err := posts.List(ctx, principal(volunteer), false)
	require.NoError(t, err)
	assert.Len(t, forVolunteer, 2)

	forAdmin, err := posts.List(ctx, principal(admin), true)
	require.NoError(t, err)
	assert.Len(t, forAdmin, 5)

	_, err = posts.Get(ctx, principal(volunteer), pinned.ID)
	assert.ErrorIs(t, err, ErrAnnouncementNotFound)
}

func TestAnnouncements_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	store := newMemStore(clock)
	posts := NewAnnouncementService(AnnouncementServiceConfig{Repo: memPosts{store}, Now: clock})
	admin := store.seedUser(model.RoleAdmin, "admin@example.org")
	ctx := context.Background()

	a, err := posts.Create(ctx, principal(admin), model.CreateAnnouncementRequest{Title: "Draft", Body: "Text"})
	require.NoError(t, err)
	assert.Equal(t, model.AudienceAll, a.Audience)
	assert.Equal(t, fixedNow, a.PublishedOn)

	updated, err := posts.Update(ctx, a.ID, model.UpdateAnnouncementRequest{Title: strPtr("Final"), Pinned: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.True(t, updated.Pinned)

	_, err = posts.Update(ctx, a.ID, model.UpdateAnnouncementRequest{Body: strPtr("  ")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, posts.Delete(ctx, a.ID))
	assert.ErrorIs(t, posts.Delete(ctx, a.ID), ErrAnnouncementNotFound)
}
