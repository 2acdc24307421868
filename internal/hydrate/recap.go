package hydrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/models"
)

// RecapQueries is the store surface the recap builder needs.
type RecapQueries interface {
	// FindRecapInviteIDs returns, in one query, the invite ids among
	// inviteIDs that the owner has explicitly linked a recap to.
	FindRecapInviteIDs(ctx context.Context, ownerID string, inviteIDs []string) ([]string, error)
	// HasRecapAtPlace reports a review/check-in by owner at the place
	// inside [from, to).
	HasRecapAtPlace(ctx context.Context, ownerID, placeID string, from, to time.Time) (bool, error)
}

// RecapWindow holds the recap matching bounds. The heuristic window is
// a product heuristic with no documented rationale; it is configuration,
// not a constant.
type RecapWindow struct {
	Before     time.Duration // window opens this long before the invite start
	After      time.Duration // window closes this long after the invite start
	NeedsAfter time.Duration // an invite younger than this never needs a recap
}

// DefaultRecapWindow returns the stock bounds: 1h before through 6h
// after, needs-recap from 2h past start.
func DefaultRecapWindow() RecapWindow {
	return RecapWindow{
		Before:     time.Hour,
		After:      6 * time.Hour,
		NeedsAfter: 2 * time.Hour,
	}
}

// RecapBuilder determines, for a batch of invites and one viewer,
// which invites the viewer has already posted a recap for.
type RecapBuilder struct {
	queries RecapQueries
	window  RecapWindow
	logger  *zap.Logger
}

// NewRecapBuilder creates a new recap builder
func NewRecapBuilder(queries RecapQueries, window RecapWindow, logger *zap.Logger) *RecapBuilder {
	return &RecapBuilder{queries: queries, window: window, logger: logger}
}

// Window returns the configured bounds.
func (b *RecapBuilder) Window() RecapWindow {
	return b.window
}

// BuildRecapSet returns the set of invite ids the viewer has recapped.
// Explicit references are authoritative and batched as one query
// across the page; the place/time heuristic runs only for invites the
// explicit pass did not resolve, one bounded query each. Lookup
// failures degrade to "no recap" rather than failing the batch.
func (b *RecapBuilder) BuildRecapSet(ctx context.Context, viewerID string, invites []*models.Post) map[string]bool {
	recapped := make(map[string]bool)
	if viewerID == "" || len(invites) == 0 {
		return recapped
	}

	inviteIDs := make([]string, 0, len(invites))
	for _, inv := range invites {
		if inv.Type == models.PostTypeInvite {
			inviteIDs = append(inviteIDs, inv.ID)
		}
	}
	if len(inviteIDs) == 0 {
		return recapped
	}

	explicit, err := b.queries.FindRecapInviteIDs(ctx, viewerID, inviteIDs)
	if err != nil {
		b.logger.Warn("Failed to query explicit recaps",
			zap.String("viewer", viewerID),
			zap.Error(err))
	}
	for _, id := range explicit {
		recapped[id] = true
	}

	for _, inv := range invites {
		if inv.Type != models.PostTypeInvite || recapped[inv.ID] {
			continue
		}
		placeID, startAt := invitePlaceAndStart(inv)
		if placeID == "" || startAt.IsZero() {
			continue
		}

		from := startAt.Add(-b.window.Before)
		to := startAt.Add(b.window.After)
		found, err := b.queries.HasRecapAtPlace(ctx, viewerID, placeID, from, to)
		if err != nil {
			b.logger.Warn("Failed to query heuristic recap",
				zap.String("invite", inv.ID),
				zap.Error(err))
			continue
		}
		if found {
			recapped[inv.ID] = true
		}
	}

	return recapped
}

// NeedsRecap computes whether the viewer still owes a recap for the
// invite: the viewer hosts it or accepted it, its start time is more
// than the needs-after bound in the past, and no recap was found.
func (b *RecapBuilder) NeedsRecap(invite *models.Post, viewerID string, recapped map[string]bool, now time.Time) bool {
	if invite.Type != models.PostTypeInvite || viewerID == "" {
		return false
	}
	if recapped[invite.ID] {
		return false
	}
	_, startAt := invitePlaceAndStart(invite)
	if startAt.IsZero() || now.Sub(startAt) <= b.window.NeedsAfter {
		return false
	}

	if invite.OwnerID == viewerID {
		return true
	}
	if invite.Details.Invite != nil {
		for _, rec := range invite.Details.Invite.Recipients {
			if rec.UserID == viewerID && rec.Status == models.InviteStatusAccepted {
				return true
			}
		}
	}
	return false
}

// invitePlaceAndStart extracts the invite's place id and start time.
func invitePlaceAndStart(inv *models.Post) (string, time.Time) {
	var startAt time.Time
	if inv.Details.Invite != nil {
		startAt = inv.Details.Invite.StartAt
	}
	placeID := ""
	if inv.PlaceID.Valid {
		placeID = inv.PlaceID.String
	} else if derived := DeriveBusiness(inv); derived != nil {
		placeID = derived.PlaceID
	}
	return placeID, startAt
}
