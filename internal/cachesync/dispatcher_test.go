package cachesync

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func testPost(id string, sortDate time.Time) *CachedPost {
	return &CachedPost{
		ID:       id,
		Type:     "review",
		OwnerID:  "owner-1",
		SortDate: sortDate,
	}
}

// testState builds a state where the posts and tagged buckets both hold
// the same three posts, newest first.
func testState(t *testing.T) State {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	state := NewState()
	for _, kind := range []BucketKind{BucketPosts, BucketTagged} {
		bucket := state.Buckets[kind]
		for i, id := range []string{"p3", "p2", "p1"} {
			bucket.insertSorted(testPost(id, base.Add(-time.Duration(i)*time.Hour)))
		}
	}
	return state
}

func TestApply_LikePropagatesAcrossBuckets(t *testing.T) {
	state := testState(t)
	ev := Event{
		Kind:   EventLikeToggled,
		PostID: "p2",
		Like:   &LikePatch{LikerID: "u9", Liked: true, LikesCount: 3},
	}

	next := Apply(state, ev)

	for _, kind := range []BucketKind{BucketPosts, BucketTagged} {
		got := next.Buckets[kind].Get("p2")
		if got == nil {
			t.Fatalf("bucket %s lost p2", kind)
		}
		if got.LikesCount != 3 || !got.Liked {
			t.Errorf("bucket %s: LikesCount=%d Liked=%v, want 3 true", kind, got.LikesCount, got.Liked)
		}
		if len(got.Likes) != 1 || got.Likes[0] != "u9" {
			t.Errorf("bucket %s: Likes=%v, want [u9]", kind, got.Likes)
		}
	}

	// Input state must be untouched.
	if prev := state.Buckets[BucketPosts].Get("p2"); prev.LikesCount != 0 || prev.Liked {
		t.Error("Apply mutated its input state")
	}
}

func TestApply_LikeIdempotent(t *testing.T) {
	state := testState(t)
	ev := Event{
		Kind:   EventLikeToggled,
		PostID: "p1",
		Like:   &LikePatch{LikerID: "u9", Liked: true, LikesCount: 1},
	}

	once := Apply(state, ev)
	twice := Apply(once, ev)

	got := twice.Buckets[BucketPosts].Get("p1")
	if got.LikesCount != 1 || len(got.Likes) != 1 {
		t.Errorf("replay diverged: LikesCount=%d Likes=%v", got.LikesCount, got.Likes)
	}

	unlike := Event{
		Kind:   EventLikeToggled,
		PostID: "p1",
		Like:   &LikePatch{LikerID: "u9", Liked: false, LikesCount: 0},
	}
	after := Apply(Apply(twice, unlike), unlike)
	got = after.Buckets[BucketPosts].Get("p1")
	if got.LikesCount != 0 || got.Liked || len(got.Likes) != 0 {
		t.Errorf("unlike replay diverged: %+v", got)
	}
}

func TestApply_TagRemoval(t *testing.T) {
	state := NewState()
	p := testPost("p1", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	p.TaggedUsers = []string{"u1", "u2"}
	p.Media = []CachedMedia{
		{StorageKey: "m0", TaggedUsers: []string{"u1", "u3"}},
		{StorageKey: "m1", TaggedUsers: []string{"u1"}},
	}
	state.Buckets[BucketPosts].insertSorted(p)

	// Post-wide removal clears the post list and every media entry.
	next := Apply(state, Event{
		Kind:   EventTagRemoved,
		PostID: "p1",
		Tag:    &TagPatch{UserID: "u1"},
	})
	got := next.Buckets[BucketPosts].Get("p1")
	if len(got.TaggedUsers) != 1 || got.TaggedUsers[0] != "u2" {
		t.Errorf("post tags = %v, want [u2]", got.TaggedUsers)
	}
	for i, m := range got.Media {
		for _, u := range m.TaggedUsers {
			if u == "u1" {
				t.Errorf("media %d still tags u1", i)
			}
		}
	}

	// Per-media removal touches only the addressed entry.
	idx := 0
	scoped := Apply(state, Event{
		Kind:   EventTagRemoved,
		PostID: "p1",
		Tag:    &TagPatch{UserID: "u1", MediaIndex: &idx},
	})
	got = scoped.Buckets[BucketPosts].Get("p1")
	if len(got.Media[0].TaggedUsers) != 1 || got.Media[0].TaggedUsers[0] != "u3" {
		t.Errorf("media 0 tags = %v, want [u3]", got.Media[0].TaggedUsers)
	}
	if len(got.Media[1].TaggedUsers) != 1 {
		t.Errorf("media 1 tags = %v, want untouched", got.Media[1].TaggedUsers)
	}
	if len(got.TaggedUsers) != 2 {
		t.Errorf("post tags = %v, want untouched", got.TaggedUsers)
	}

	// Out-of-range index is a no-op.
	bad := 9
	noop := Apply(state, Event{
		Kind:   EventTagRemoved,
		PostID: "p1",
		Tag:    &TagPatch{UserID: "u1", MediaIndex: &bad},
	})
	if got := noop.Buckets[BucketPosts].Get("p1"); len(got.Media[0].TaggedUsers) != 2 {
		t.Errorf("out-of-range removal changed media tags: %v", got.Media[0].TaggedUsers)
	}
}

func TestApply_HideUnhideRoundTrip(t *testing.T) {
	state := testState(t)

	hidden := Apply(state, Event{
		Kind:   EventPostHidden,
		PostID: "p2",
		Hide:   &HidePatch{Scope: HideScopeGlobal},
	})

	for _, kind := range []BucketKind{BucketPosts, BucketTagged} {
		if hidden.Buckets[kind].Contains("p2") {
			t.Errorf("bucket %s still contains hidden post", kind)
		}
	}
	entry := hidden.Buckets[BucketHidden].Get("p2")
	if entry == nil {
		t.Fatal("hidden bucket missing p2")
	}
	if len(entry.HiddenFrom) != 2 {
		t.Errorf("HiddenFrom = %v, want both origin buckets", entry.HiddenFrom)
	}

	// Hiding again is a no-op.
	again := Apply(hidden, Event{Kind: EventPostHidden, PostID: "p2", Hide: &HidePatch{Scope: HideScopeGlobal}})
	if len(again.Buckets[BucketHidden].Order) != 1 {
		t.Error("double hide duplicated the hidden entry")
	}

	restored := Apply(hidden, Event{Kind: EventPostUnhidden, PostID: "p2"})

	if restored.Buckets[BucketHidden].Contains("p2") {
		t.Error("unhide left post in hidden bucket")
	}
	for _, kind := range []BucketKind{BucketPosts, BucketTagged} {
		order := restored.Buckets[kind].Order
		want := []string{"p3", "p2", "p1"}
		if len(order) != len(want) {
			t.Fatalf("bucket %s order = %v, want %v", kind, order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("bucket %s order = %v, want %v", kind, order, want)
				break
			}
		}
		if restored.Buckets[kind].Get("p2").HiddenFrom != nil {
			t.Errorf("bucket %s entry kept HiddenFrom after restore", kind)
		}
	}
}

func TestApply_ProfileScopeHidesOnlyTagged(t *testing.T) {
	state := testState(t)

	next := Apply(state, Event{
		Kind:   EventPostHidden,
		PostID: "p1",
		Hide:   &HidePatch{Scope: HideScopeProfile},
	})

	if next.Buckets[BucketTagged].Contains("p1") {
		t.Error("profile hide left post in tagged bucket")
	}
	if !next.Buckets[BucketPosts].Contains("p1") {
		t.Error("profile hide removed post from posts bucket")
	}
	entry := next.Buckets[BucketHidden].Get("p1")
	if entry == nil || len(entry.HiddenFrom) != 1 || entry.HiddenFrom[0] != BucketTagged {
		t.Errorf("HiddenFrom = %+v, want [tagged]", entry)
	}
}

func TestApply_UnknownPostNoOp(t *testing.T) {
	state := testState(t)

	events := []Event{
		{Kind: EventLikeToggled, PostID: "ghost", Like: &LikePatch{LikerID: "u1", Liked: true, LikesCount: 1}},
		{Kind: EventPostHidden, PostID: "ghost", Hide: &HidePatch{Scope: HideScopeGlobal}},
		{Kind: EventPostUnhidden, PostID: "ghost"},
		{Kind: EventKind("mystery"), PostID: "p1"},
		{Kind: EventLikeToggled, PostID: ""},
	}
	for _, ev := range events {
		next := Apply(state, ev)
		for kind, bucket := range next.Buckets {
			if len(bucket.Order) != len(state.Buckets[kind].Order) {
				t.Errorf("event %s changed bucket %s", ev.Kind, kind)
			}
		}
	}
}

func TestApply_PanicIsolation(t *testing.T) {
	state := testState(t)
	// The tagged bucket additionally holds the trigger post; the
	// handler below panics whenever it sees it.
	state.Buckets[BucketTagged].insertSorted(testPost("boom", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)))

	d := &Dispatcher{
		handlers: map[EventKind]fieldHandler{
			EventLikeToggled: func(b *Bucket, ev Event) {
				if b.Contains("boom") {
					panic("handler exploded")
				}
				applyLike(b, ev)
			},
		},
		logger: zap.NewNop(),
	}

	next := d.Apply(state, Event{
		Kind:   EventLikeToggled,
		PostID: "p1",
		Like:   &LikePatch{LikerID: "u1", Liked: true, LikesCount: 1},
	})

	// The panicking bucket keeps its prior value.
	if got := next.Buckets[BucketTagged].Get("p1"); got.LikesCount != 0 {
		t.Error("panicking handler still patched its bucket")
	}
	// The healthy bucket is patched regardless.
	if got := next.Buckets[BucketPosts].Get("p1"); got.LikesCount != 1 {
		t.Error("panic in one bucket blocked the others")
	}
}
