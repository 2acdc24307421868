package feed

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/hydrate"
	"github.com/plazasocial/plaza/internal/models"
	"github.com/plazasocial/plaza/pkg/telemetry"
)

// RawQuerier serves raw keyset chunks from the store.
type RawQuerier interface {
	ListChunk(ctx context.Context, q db.ListQuery) ([]*models.Post, error)
}

// HiddenSource serves the viewer's hidden membership keys for a scope.
type HiddenSource interface {
	HiddenKeys(ctx context.Context, ownerID, scope string) (map[string]bool, error)
}

// FollowSource serves the viewer's following set.
type FollowSource interface {
	FollowingSet(ctx context.Context, viewerID string) (map[string]bool, error)
}

// Config holds the fill-to-limit tuning knobs. The right values depend
// on the real-world ratio of filtered-out to eligible posts.
type Config struct {
	ChunkMultiplier int // chunk size = limit × multiplier, capped
	MaxChunk        int
	MaxPasses       int // termination guarantee against pathological filtering
}

// DefaultConfig returns the stock tuning values.
func DefaultConfig() Config {
	return Config{ChunkMultiplier: 4, MaxChunk: 200, MaxPasses: 6}
}

// Request describes one feed page query.
type Request struct {
	ViewerID string

	// Authors is the candidate author set; empty means no author
	// restriction (place and tagged feeds).
	Authors []string

	// Excluded authors are removed from the candidate set before the
	// query runs, not filtered after.
	Excluded []string

	Types      []string
	PlaceID    string
	TaggedUser string

	Limit  int
	Cursor string
}

// Page is one feed page.
type Page struct {
	Items      []*hydrate.Post `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Engine executes cursor-paginated, privacy-filtered feed queries.
// Because hydration-side filtering can discard rows, it fills to the
// requested limit by re-querying in chunks, advancing the cursor by
// the raw stream position.
type Engine struct {
	store      RawQuerier
	hydrator   *hydrate.Orchestrator
	hidden     HiddenSource
	follows    FollowSource
	cfg        Config
	logger     *zap.Logger
	fillPasses metric.Int64Counter
}

// NewEngine creates a new feed engine
func NewEngine(store RawQuerier, hydrator *hydrate.Orchestrator, hidden HiddenSource, follows FollowSource, cfg Config, logger *zap.Logger) *Engine {
	if cfg.ChunkMultiplier <= 0 {
		cfg.ChunkMultiplier = 4
	}
	if cfg.MaxChunk <= 0 {
		cfg.MaxChunk = 200
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = 6
	}
	fillPasses, err := telemetry.Meter().Int64Counter("plaza.feed.fill_passes",
		metric.WithDescription("store passes spent filling feed pages"))
	if err != nil {
		logger.Warn("Failed to create feed metrics", zap.Error(err))
	}
	return &Engine{
		store:      store,
		hydrator:   hydrator,
		hidden:     hidden,
		follows:    follows,
		cfg:        cfg,
		logger:     logger,
		fillPasses: fillPasses,
	}
}

// Query returns up to Limit enriched posts, newest first by
// (sort_date desc, id desc), plus the cursor for the next page.
func (e *Engine) Query(ctx context.Context, req Request) (Page, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.query")
	defer span.End()

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	excluded := toSet(req.Excluded)
	authors := pushDownAuthors(req.Authors, excluded)
	if len(req.Authors) > 0 && len(authors) == 0 {
		return Page{Items: []*hydrate.Post{}}, nil
	}

	viewerCtx, err := e.loadViewerContext(ctx, req)
	if err != nil {
		return Page{}, err
	}

	cursor := DecodeCursor(req.Cursor)

	chunk := limit * e.cfg.ChunkMultiplier
	if chunk > e.cfg.MaxChunk {
		chunk = e.cfg.MaxChunk
	}
	if chunk < limit {
		chunk = limit
	}

	items := make([]*hydrate.Post, 0, limit)
	seen := make(map[string]bool)
	var lastRaw *models.Post
	exhausted := false
	stoppedMidChunk := false

	passes := 0
	for pass := 0; pass < e.cfg.MaxPasses && len(items) < limit && !exhausted; pass++ {
		passes++
		q := db.ListQuery{
			Authors:    authors,
			Types:      req.Types,
			PlaceID:    req.PlaceID,
			TaggedUser: req.TaggedUser,
			Limit:      chunk,
		}
		if cursor != nil {
			q.BeforeSortDate = cursor.SortDate
			q.BeforeID = cursor.ID
		}

		raw, err := e.store.ListChunk(ctx, q)
		if err != nil {
			if pass == 0 {
				return Page{}, fmt.Errorf("feed query failed: %w", err)
			}
			// A mid-fill failure returns what was accumulated.
			e.logger.Warn("Feed pass failed, returning partial page",
				zap.Int("pass", pass),
				zap.Int("accumulated", len(items)),
				zap.Error(err))
			break
		}
		if len(raw) == 0 {
			exhausted = true
			break
		}
		if len(raw) < chunk {
			exhausted = true
		}

		hydrated, err := e.hydrator.HydrateMany(ctx, raw, hydrate.Options{ViewerID: req.ViewerID})
		if err != nil {
			if pass == 0 {
				return Page{}, err
			}
			e.logger.Warn("Hydration failed mid-fill, returning partial page", zap.Error(err))
			break
		}

		for i, rp := range raw {
			// Always advance by the raw stream position; advancing by
			// the filtered position would skip unseen rows.
			lastRaw = rp
			cursor = &Cursor{SortDate: rp.SortDate, ID: rp.ID}

			if seen[rp.ID] {
				continue
			}
			seen[rp.ID] = true

			if !e.eligible(rp, req.ViewerID, excluded, viewerCtx) {
				continue
			}
			if hydrated[i] == nil {
				continue
			}
			items = append(items, hydrated[i])
			if len(items) == limit {
				stoppedMidChunk = i < len(raw)-1
				break
			}
		}
	}

	span.SetAttributes(
		attribute.Int("feed.limit", limit),
		attribute.Int("feed.passes", passes),
		attribute.Int("feed.items", len(items)),
	)
	if e.fillPasses != nil {
		e.fillPasses.Add(ctx, int64(passes))
	}

	// A partial page that hit the pass ceiling still gets a cursor so
	// the caller can continue; only a fully drained stream ends
	// pagination.
	page := Page{Items: items}
	if lastRaw != nil && (!exhausted || stoppedMidChunk) {
		page.NextCursor = cursor.Encode()
	}
	return page, nil
}

// viewerContext holds the request-scoped filter sets.
type viewerContext struct {
	following map[string]bool
	hidden    map[string]bool // "type:id" keys across the applicable scopes
}

// loadViewerContext fetches the viewer's following set and hidden
// sets, once per request. The global scope always applies; the profile
// scope additionally applies when the viewer is browsing their own
// tagged feed.
func (e *Engine) loadViewerContext(ctx context.Context, req Request) (*viewerContext, error) {
	vc := &viewerContext{
		following: map[string]bool{},
		hidden:    map[string]bool{},
	}
	if req.ViewerID == "" {
		return vc, nil
	}
	if e.follows != nil {
		following, err := e.follows.FollowingSet(ctx, req.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load following set: %w", err)
		}
		vc.following = following
	}
	if e.hidden == nil {
		return vc, nil
	}

	scopes := []string{models.HiddenScopeGlobal}
	if req.TaggedUser != "" && req.TaggedUser == req.ViewerID {
		scopes = append(scopes, models.HiddenScopeProfile)
	}
	for _, scope := range scopes {
		keys, err := e.hidden.HiddenKeys(ctx, req.ViewerID, scope)
		if err != nil {
			// Hidden filtering is best-effort when a set is
			// unavailable; the record store remains authoritative.
			e.logger.Warn("Failed to load hidden set",
				zap.String("scope", scope),
				zap.Error(err))
			continue
		}
		for key := range keys {
			vc.hidden[key] = true
		}
	}
	return vc, nil
}

// eligible applies the post-hydration visibility, privacy, exclusion
// and hidden filters.
func (e *Engine) eligible(p *models.Post, viewerID string, excluded map[string]bool, vc *viewerContext) bool {
	if p.Visibility != models.VisibilityVisible {
		return false
	}
	if excluded[p.OwnerID] {
		return false
	}
	if vc.hidden[models.HiddenTargetKey("post", p.ID)] {
		return false
	}

	// Privacy predicate: own posts always; public from anyone in the
	// candidate set; followers-only when the viewer follows the
	// author; private and unlisted stay owner-only in feeds.
	if p.OwnerID == viewerID {
		return true
	}
	switch p.Privacy {
	case models.PrivacyPublic:
		return true
	case models.PrivacyFollowers:
		return vc.following[p.OwnerID]
	default:
		return false
	}
}

// pushDownAuthors removes excluded authors before the query runs.
func pushDownAuthors(authors []string, excluded map[string]bool) []string {
	if len(authors) == 0 || len(excluded) == 0 {
		return authors
	}
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if !excluded[a] {
			out = append(out, a)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
