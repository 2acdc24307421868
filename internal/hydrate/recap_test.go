package hydrate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/models"
)

func invitePost(id, ownerID, placeID string, startAt time.Time) *models.Post {
	p := &models.Post{
		ID:         id,
		Type:       models.PostTypeInvite,
		OwnerID:    ownerID,
		OwnerModel: models.OwnerModelUser,
		Details:    models.Details{Invite: &models.InviteDetails{StartAt: startAt}},
	}
	if placeID != "" {
		p.PlaceID = sql.NullString{String: placeID, Valid: true}
	}
	return p
}

func TestBuildRecapSet(t *testing.T) {
	start := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	queries := &fakeRecapQueries{
		explicit:    map[string]bool{"inv-explicit": true},
		placeRecaps: map[string]bool{"place-h": true},
	}
	b := NewRecapBuilder(queries, DefaultRecapWindow(), zap.NewNop())

	invites := []*models.Post{
		invitePost("inv-explicit", "host", "place-x", start),
		invitePost("inv-heuristic", "host", "place-h", start),
		invitePost("inv-none", "host", "place-y", start),
		invitePost("inv-no-place", "host", "", start),
	}

	recapped := b.BuildRecapSet(context.Background(), "viewer", invites)

	assert.True(t, recapped["inv-explicit"])
	assert.True(t, recapped["inv-heuristic"])
	assert.False(t, recapped["inv-none"])
	assert.False(t, recapped["inv-no-place"])

	assert.Equal(t, 1, queries.explicitCalls, "explicit lookup batched across the page")
	// Heuristic runs only for invites the explicit pass left
	// unresolved and that carry a place and start time.
	assert.Equal(t, 2, queries.heuristicCalls)
}

func TestBuildRecapSet_AnonymousViewer(t *testing.T) {
	queries := &fakeRecapQueries{}
	b := NewRecapBuilder(queries, DefaultRecapWindow(), zap.NewNop())

	recapped := b.BuildRecapSet(context.Background(), "", []*models.Post{
		invitePost("inv-1", "host", "place-x", time.Now()),
	})

	assert.Empty(t, recapped)
	assert.Equal(t, 0, queries.explicitCalls)
}

func TestNeedsRecap(t *testing.T) {
	b := NewRecapBuilder(&fakeRecapQueries{}, DefaultRecapWindow(), zap.NewNop())
	now := time.Date(2026, 5, 1, 22, 30, 0, 0, time.UTC)
	oldStart := now.Add(-3 * time.Hour)   // past the needs-after bound
	freshStart := now.Add(-time.Hour)     // inside the bound
	futureStart := now.Add(2 * time.Hour) // not started

	host := invitePost("inv-1", "host", "place-x", oldStart)

	accepted := invitePost("inv-2", "host", "place-x", oldStart)
	accepted.Details.Invite.Recipients = []models.InviteRecipient{
		{UserID: "guest", Status: models.InviteStatusAccepted},
	}
	declined := invitePost("inv-3", "host", "place-x", oldStart)
	declined.Details.Invite.Recipients = []models.InviteRecipient{
		{UserID: "guest", Status: models.InviteStatusDeclined},
	}

	tests := []struct {
		name     string
		invite   *models.Post
		viewer   string
		recapped map[string]bool
		want     bool
	}{
		{"host owes recap", host, "host", nil, true},
		{"host already recapped", host, "host", map[string]bool{"inv-1": true}, false},
		{"accepted guest owes recap", accepted, "guest", nil, true},
		{"declined guest owes nothing", declined, "guest", nil, false},
		{"stranger owes nothing", host, "stranger", nil, false},
		{"anonymous viewer", host, "", nil, false},
		{"too fresh", invitePost("inv-4", "host", "place-x", freshStart), "host", nil, false},
		{"not started yet", invitePost("inv-5", "host", "place-x", futureStart), "host", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.NeedsRecap(tt.invite, tt.viewer, tt.recapped, now)
			assert.Equal(t, tt.want, got)
		})
	}
}
