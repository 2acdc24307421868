package hydrate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/models"
)

// fakePostFetcher serves originals and counts batched fetches.
type fakePostFetcher struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	calls int
}

func (f *fakePostFetcher) GetByIDs(_ context.Context, ids []string) ([]*models.Post, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	var out []*models.Post
	for _, id := range ids {
		if p := f.posts[id]; p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func sharedPost(id, originalID string, snapshot *models.Post) *models.Post {
	return &models.Post{
		ID:         id,
		Type:       models.PostTypeShared,
		OwnerID:    "u1",
		OwnerModel: models.OwnerModelUser,
		Shared:     &models.SharedRef{OriginalPostID: originalID, Snapshot: snapshot},
		SortDate:   time.Now(),
	}
}

func plainPost(id, owner string) *models.Post {
	return &models.Post{
		ID:         id,
		Type:       models.PostTypeCheckin,
		OwnerID:    owner,
		OwnerModel: models.OwnerModelUser,
		SortDate:   time.Now(),
	}
}

func newTestOrchestrator(fetcher *fakePostFetcher, accounts *fakeAccounts) *Orchestrator {
	e := newTestEnricher(accounts, &fakeBusinesses{}, &fakeRecapQueries{})
	return NewOrchestrator(e, fetcher, zap.NewNop())
}

func TestHydrateMany_SharedPostsOneOriginalsFetch(t *testing.T) {
	accounts := &fakeAccounts{accounts: map[string]*models.Account{
		"u1": account("u1", "ana"),
		"u2": account("u2", "bo"),
	}}
	fetcher := &fakePostFetcher{posts: map[string]*models.Post{
		"orig-1": plainPost("orig-1", "u2"),
		"orig-2": plainPost("orig-2", "u2"),
	}}
	o := newTestOrchestrator(fetcher, accounts)

	raw := []*models.Post{
		sharedPost("s1", "orig-1", plainPost("snap-1", "u2")),
		sharedPost("s2", "orig-2", nil),
		sharedPost("s3", "orig-1", nil), // same original as s1
		plainPost("p1", "u1"),
	}

	out, err := o.HydrateMany(context.Background(), raw, Options{ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, 1, fetcher.calls, "one batched originals fetch per page")
	assert.Equal(t, 1, accounts.calls, "flattened page enriched in one pass")

	require.NotNil(t, out[0].Shared)
	assert.Equal(t, "orig-1", out[0].Shared.OriginalPostID)
	require.NotNil(t, out[0].Shared.Snapshot)
	assert.Equal(t, "snap-1", out[0].Shared.Snapshot.ID)
	require.NotNil(t, out[0].Shared.Original)
	assert.Equal(t, "orig-1", out[0].Shared.Original.ID)
	assert.Equal(t, "bo", out[0].Shared.Original.Owner.DisplayName)

	require.NotNil(t, out[1].Shared)
	assert.Nil(t, out[1].Shared.Snapshot)
	require.NotNil(t, out[1].Shared.Original)

	require.NotNil(t, out[2].Shared)
	assert.Equal(t, "orig-1", out[2].Shared.Original.ID)

	assert.Nil(t, out[3].Shared)
}

func TestHydrateMany_MissingOriginalDegrades(t *testing.T) {
	accounts := &fakeAccounts{accounts: map[string]*models.Account{"u1": account("u1", "ana")}}
	fetcher := &fakePostFetcher{posts: map[string]*models.Post{}}
	o := newTestOrchestrator(fetcher, accounts)

	out, err := o.HydrateMany(context.Background(), []*models.Post{
		sharedPost("s1", "orig-gone", plainPost("snap-1", "u1")),
	}, Options{})
	require.NoError(t, err)

	require.NotNil(t, out[0].Shared)
	assert.Nil(t, out[0].Shared.Original, "missing original renders absent")
	require.NotNil(t, out[0].Shared.Snapshot, "snapshot still renders")
}

func TestHydrateMany_DeletedOriginalSkipped(t *testing.T) {
	deleted := plainPost("orig-1", "u1")
	deleted.Visibility = models.VisibilityDeleted
	fetcher := &fakePostFetcher{posts: map[string]*models.Post{"orig-1": deleted}}
	o := newTestOrchestrator(fetcher, &fakeAccounts{accounts: map[string]*models.Account{"u1": account("u1", "ana")}})

	out, err := o.HydrateMany(context.Background(), []*models.Post{
		sharedPost("s1", "orig-1", nil),
	}, Options{})
	require.NoError(t, err)
	assert.Nil(t, out[0].Shared.Original)
}

func TestHydrateMany_SuppliedOriginalsSkipFetch(t *testing.T) {
	fetcher := &fakePostFetcher{posts: map[string]*models.Post{}}
	o := newTestOrchestrator(fetcher, &fakeAccounts{accounts: map[string]*models.Account{"u1": account("u1", "ana")}})

	out, err := o.HydrateMany(context.Background(), []*models.Post{
		sharedPost("s1", "orig-1", nil),
	}, Options{
		Originals: map[string]*models.Post{"orig-1": plainPost("orig-1", "u1")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.calls, "supplied originals skip the fetch")
	require.NotNil(t, out[0].Shared.Original)
}

func TestHydrateMany_BusinessNameHook(t *testing.T) {
	fetcher := &fakePostFetcher{posts: map[string]*models.Post{"orig-1": plainPost("orig-1", "u1")}}
	o := newTestOrchestrator(fetcher, &fakeAccounts{accounts: map[string]*models.Account{"u1": account("u1", "ana")}})

	var touched []string
	_, err := o.HydrateMany(context.Background(), []*models.Post{
		sharedPost("s1", "orig-1", plainPost("snap-1", "u1")),
	}, Options{
		BusinessNameHook: func(p *Post) { touched = append(touched, p.ID) },
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "snap-1", "orig-1"}, touched,
		"hook runs on top, snapshot and original")
}
