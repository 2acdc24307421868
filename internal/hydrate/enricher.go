package hydrate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/media"
	"github.com/plazasocial/plaza/internal/models"
)

// Enricher hydrates raw posts in two passes: pass one walks the whole
// batch collecting every identity reference and storage key into
// request-scoped sets, pass two rewrites each post using the resolved
// maps. Resolution cost is O(unique identities), never O(posts ×
// references-per-post).
type Enricher struct {
	identities *IdentityResolver
	recaps     *RecapBuilder
	signer     media.Signer
	fanout     int
	logger     *zap.Logger
	now        func() time.Time
}

// NewEnricher creates a new enricher
func NewEnricher(identities *IdentityResolver, recaps *RecapBuilder, signer media.Signer, fanout int, logger *zap.Logger) *Enricher {
	return &Enricher{
		identities: identities,
		recaps:     recaps,
		signer:     signer,
		fanout:     fanout,
		logger:     logger,
		now:        time.Now,
	}
}

// batchRefs holds everything pass one collected. Request-scoped and
// discarded with the response.
type batchRefs struct {
	userIDs     []string
	businessIDs []string
	mediaKeys   map[string]bool
	invites     []*models.Post
}

// EnrichMany hydrates a batch. The returned slice matches the input in
// length and order; nil inputs stay nil. Individual lookup failures
// degrade the affected fields and never fail the batch.
func (e *Enricher) EnrichMany(ctx context.Context, posts []*models.Post, viewerID string) []*Post {
	refs := e.collect(posts)

	var (
		users      map[string]*Summary
		businesses map[string]*Summary
		urls       map[string]string
		recapped   map[string]bool
	)

	// The three lookups are independent reads; run them concurrently.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		users, businesses, err = e.identities.Resolve(ctx, refs.userIDs, refs.businessIDs)
		if err != nil {
			e.logger.Warn("Identity resolution failed, rendering unknown identities", zap.Error(err))
			users = map[string]*Summary{}
			businesses = map[string]*Summary{}
		}
	}()
	go func() {
		defer wg.Done()
		recapped = e.recaps.BuildRecapSet(ctx, viewerID, refs.invites)
	}()
	go func() {
		defer wg.Done()
		urls = signKeys(ctx, e.signer, e.fanout, e.logger, refs.mediaKeys)
	}()
	wg.Wait()

	out := make([]*Post, len(posts))
	for i, p := range posts {
		if p == nil {
			continue
		}
		out[i] = e.buildPost(p, viewerID, users, businesses, urls, recapped)
	}
	return out
}

// EnrichOne hydrates a single post.
func (e *Enricher) EnrichOne(ctx context.Context, post *models.Post, viewerID string) *Post {
	result := e.EnrichMany(ctx, []*models.Post{post}, viewerID)
	return result[0]
}

// collect is pass one: a single walk over the batch building the
// reference sets.
func (e *Enricher) collect(posts []*models.Post) *batchRefs {
	refs := &batchRefs{mediaKeys: make(map[string]bool)}

	addUser := func(id string) {
		if id != "" {
			refs.userIDs = append(refs.userIDs, id)
		}
	}
	addKey := func(key string) {
		if key != "" {
			refs.mediaKeys[key] = true
		}
	}

	for _, p := range posts {
		if p == nil {
			continue
		}

		switch p.OwnerModel {
		case models.OwnerModelBusiness:
			refs.businessIDs = append(refs.businessIDs, p.OwnerID)
		default:
			addUser(p.OwnerID)
		}

		for _, m := range p.Media {
			addKey(m.StorageKey)
			addUser(m.UploaderID)
			for _, tag := range m.TaggedUsers {
				addUser(tag.UserID)
			}
		}

		for _, id := range p.TaggedUsers {
			addUser(id)
		}
		for _, id := range p.Likes {
			addUser(id)
		}
		collectCommentAuthors(p.Comments, addUser)

		if p.Details.Invite != nil {
			for _, rec := range p.Details.Invite.Recipients {
				addUser(rec.UserID)
			}
			for _, rec := range p.Details.Invite.Requests {
				addUser(rec.UserID)
			}
		}
		if p.Type == models.PostTypeInvite {
			refs.invites = append(refs.invites, p)
		}

		if derived := DeriveBusiness(p); derived != nil {
			addKey(derived.LogoKey)
		}
	}

	return refs
}

// collectCommentAuthors walks a comment tree of unbounded depth.
func collectCommentAuthors(comments []models.Comment, addUser func(string)) {
	for _, c := range comments {
		addUser(c.AuthorID)
		collectCommentAuthors(c.Replies, addUser)
	}
}

// buildPost is pass two: rewrite one post using the resolved maps.
func (e *Enricher) buildPost(p *models.Post, viewerID string, users, businesses map[string]*Summary, urls map[string]string, recapped map[string]bool) *Post {
	out := &Post{
		ID:              p.ID,
		Type:            p.Type,
		OwnerModel:      p.OwnerModel,
		Message:         p.Message,
		Venue:           p.Venue,
		Privacy:         p.Privacy,
		Visibility:      p.Visibility,
		SortDate:        p.SortDate,
		Details:         p.Details,
		LikesCount:      len(p.Likes),
		CommentsCount:   countComments(p.Comments),
		CreatedAt:       p.CreatedAt,
		RelatedInviteID: p.RelatedInviteID.String,
	}

	if p.OwnerModel == models.OwnerModelBusiness {
		out.Owner = businesses[p.OwnerID]
	} else {
		out.Owner = users[p.OwnerID]
	}

	out.Media = make([]Media, 0, len(p.Media))
	for _, m := range p.Media {
		item := Media{
			StorageKey: m.StorageKey,
			URL:        urls[m.StorageKey],
			Uploader:   users[m.UploaderID],
		}
		for _, tag := range m.TaggedUsers {
			item.TaggedUsers = append(item.TaggedUsers, MediaTag{
				User: users[tag.UserID],
				X:    tag.X,
				Y:    tag.Y,
			})
		}
		out.Media = append(out.Media, item)
	}

	for _, id := range p.TaggedUsers {
		if s := users[id]; s != nil {
			out.TaggedUsers = append(out.TaggedUsers, *s)
		}
	}
	for _, id := range p.Likes {
		if s := users[id]; s != nil {
			out.Likes = append(out.Likes, *s)
		}
	}

	out.Comments = buildComments(p.Comments, users)

	if derived := DeriveBusiness(p); derived != nil {
		logoURL := derived.LogoURL
		if logoURL == "" {
			logoURL = urls[derived.LogoKey]
		}
		out.Business = &BusinessIdentity{
			PlaceID: derived.PlaceID,
			Name:    derived.Name,
			LogoURL: logoURL,
		}
	}

	if p.Details.Invite != nil {
		for _, rec := range p.Details.Invite.Recipients {
			out.Recipients = append(out.Recipients, InviteRecipient{User: users[rec.UserID], Status: rec.Status})
		}
		for _, rec := range p.Details.Invite.Requests {
			out.Requests = append(out.Requests, InviteRecipient{User: users[rec.UserID], Status: rec.Status})
		}
	}

	if p.Type == models.PostTypeInvite && viewerID != "" {
		needs := e.recaps.NeedsRecap(p, viewerID, recapped, e.now())
		out.NeedsRecap = &needs
	}

	return out
}

// buildComments resolves a comment tree's authorship. A comment whose
// author cannot be resolved keeps a nil author and still renders.
func buildComments(comments []models.Comment, users map[string]*Summary) []Comment {
	if len(comments) == 0 {
		return nil
	}
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, Comment{
			ID:        c.ID,
			Author:    users[c.AuthorID],
			Message:   c.Message,
			CreatedAt: c.CreatedAt,
			Replies:   buildComments(c.Replies, users),
		})
	}
	return out
}

// countComments counts the whole tree, replies included.
func countComments(comments []models.Comment) int {
	n := len(comments)
	for _, c := range comments {
		n += countComments(c.Replies)
	}
	return n
}
