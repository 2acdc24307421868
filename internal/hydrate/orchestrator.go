package hydrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/models"
	"github.com/plazasocial/plaza/pkg/telemetry"
)

// PostFetcher loads posts in one batched query.
type PostFetcher interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error)
}

// Options controls one hydration call.
type Options struct {
	// ViewerID is the opaque viewer identity; empty for anonymous.
	ViewerID string

	// Originals optionally pre-supplies originalPostID -> post so the
	// orchestrator skips its own batched fetch.
	Originals map[string]*models.Post

	// BusinessNameHook, when set, runs on the hydrated top post and,
	// separately, on its snapshot and original. Supports late-bound
	// business name backfill without re-deriving from scratch.
	BusinessNameHook func(*Post)
}

// Orchestrator hydrates pages of raw posts. Shared posts are unwrapped
// with one batched originals fetch across the whole page, the page is
// flattened to [top, snapshot, original] entries, enriched exactly
// once, and reassembled. A page of N shares never triggers 2N or 3N
// enrichment passes.
type Orchestrator struct {
	enricher *Enricher
	posts    PostFetcher
	logger   *zap.Logger
}

// NewOrchestrator creates a new hydration orchestrator
func NewOrchestrator(enricher *Enricher, posts PostFetcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{enricher: enricher, posts: posts, logger: logger}
}

// flatEntry tracks where one input post's pieces land in the flattened
// list, so the page can be reassembled after enrichment.
type flatEntry struct {
	top      int
	snapshot int // -1 when absent
	original int // -1 when absent
}

// HydrateMany hydrates a page of raw posts.
func (o *Orchestrator) HydrateMany(ctx context.Context, raw []*models.Post, opts Options) ([]*Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "hydrate.many")
	defer span.End()

	originals := o.fetchOriginals(ctx, raw, opts.Originals)

	// Flatten: [top, snapshot?, original?] per input post.
	flat := make([]*models.Post, 0, len(raw))
	entries := make([]flatEntry, len(raw))
	for i, p := range raw {
		entry := flatEntry{top: -1, snapshot: -1, original: -1}
		if p == nil {
			entries[i] = entry
			continue
		}
		entry.top = len(flat)
		flat = append(flat, p)
		if p.Shared != nil {
			if p.Shared.Snapshot != nil {
				entry.snapshot = len(flat)
				flat = append(flat, p.Shared.Snapshot)
			}
			if orig := originals[p.Shared.OriginalPostID]; orig != nil {
				entry.original = len(flat)
				flat = append(flat, orig)
			}
		}
		entries[i] = entry
	}

	// Enrich the flattened set exactly once.
	enriched := o.enricher.EnrichMany(ctx, flat, opts.ViewerID)

	// Reassemble at the original structural positions.
	out := make([]*Post, len(raw))
	for i, entry := range entries {
		if entry.top < 0 {
			continue
		}
		top := enriched[entry.top]
		if raw[i].Shared != nil {
			share := &Share{OriginalPostID: raw[i].Shared.OriginalPostID}
			if entry.snapshot >= 0 {
				share.Snapshot = enriched[entry.snapshot]
			}
			if entry.original >= 0 {
				share.Original = enriched[entry.original]
			}
			top.Shared = share
		}
		if opts.BusinessNameHook != nil {
			opts.BusinessNameHook(top)
			if top.Shared != nil {
				if top.Shared.Snapshot != nil {
					opts.BusinessNameHook(top.Shared.Snapshot)
				}
				if top.Shared.Original != nil {
					opts.BusinessNameHook(top.Shared.Original)
				}
			}
		}
		out[i] = top
	}

	return out, nil
}

// HydrateOne hydrates a single raw post.
func (o *Orchestrator) HydrateOne(ctx context.Context, raw *models.Post, opts Options) (*Post, error) {
	result, err := o.HydrateMany(ctx, []*models.Post{raw}, opts)
	if err != nil {
		return nil, err
	}
	return result[0], nil
}

// fetchOriginals collects every shared original id not already
// supplied and fetches them in one batched query. A fetch failure
// degrades to posts rendering without their original; a missing
// original is simply absent.
func (o *Orchestrator) fetchOriginals(ctx context.Context, raw []*models.Post, supplied map[string]*models.Post) map[string]*models.Post {
	originals := make(map[string]*models.Post, len(supplied))
	for id, p := range supplied {
		originals[id] = p
	}

	var missing []string
	seen := make(map[string]bool)
	for _, p := range raw {
		if p == nil || p.Shared == nil {
			continue
		}
		id := p.Shared.OriginalPostID
		if id == "" || originals[id] != nil || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return originals
	}

	fetched, err := o.posts.GetByIDs(ctx, missing)
	if err != nil {
		o.logger.Warn("Failed to fetch shared originals",
			zap.Int("count", len(missing)),
			zap.Error(err))
		return originals
	}
	for _, p := range fetched {
		if !p.IsDeleted() {
			originals[p.ID] = p
		}
	}
	return originals
}
