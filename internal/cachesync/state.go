package cachesync

import (
	"time"
)

// BucketKind identifies one denormalized feed slice on the client.
// There is no single source of truth across buckets; consistency is
// maintained by propagation.
type BucketKind string

// Bucket kinds
const (
	BucketPosts      BucketKind = "posts"
	BucketNearby     BucketKind = "nearby"
	BucketEvents     BucketKind = "events"
	BucketPromotions BucketKind = "promotions"
	BucketTagged     BucketKind = "tagged"
	BucketHidden     BucketKind = "hidden"
)

// CachedPost is the denormalized copy of a post held by a bucket.
type CachedPost struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	OwnerID  string    `json:"ownerId"`
	SortDate time.Time `json:"sortDate"`

	Liked      bool     `json:"liked"`
	LikesCount int      `json:"likesCount"`
	Likes      []string `json:"likes,omitempty"`

	TaggedUsers []string      `json:"taggedUsers,omitempty"`
	Media       []CachedMedia `json:"media,omitempty"`

	// HiddenFrom records which buckets held the post before a hide,
	// so an unhide can restore it to exactly those slices.
	HiddenFrom []BucketKind `json:"hiddenFrom,omitempty"`
}

// CachedMedia is one media entry with its per-media tag list.
type CachedMedia struct {
	StorageKey  string   `json:"storageKey"`
	TaggedUsers []string `json:"taggedUsers,omitempty"`
}

// clone deep-copies the post.
func (p *CachedPost) clone() *CachedPost {
	out := *p
	out.Likes = append([]string(nil), p.Likes...)
	out.TaggedUsers = append([]string(nil), p.TaggedUsers...)
	out.HiddenFrom = append([]BucketKind(nil), p.HiddenFrom...)
	out.Media = make([]CachedMedia, len(p.Media))
	for i, m := range p.Media {
		out.Media[i] = CachedMedia{
			StorageKey:  m.StorageKey,
			TaggedUsers: append([]string(nil), m.TaggedUsers...),
		}
	}
	return &out
}

// Bucket is one cache slice: an ordered id list plus an id-keyed map,
// so membership tests are O(1) rather than a linear scan.
type Bucket struct {
	Order []string               `json:"order"`
	Items map[string]*CachedPost `json:"items"`
}

// NewBucket creates an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{Items: map[string]*CachedPost{}}
}

// Contains reports membership in O(1).
func (b *Bucket) Contains(id string) bool {
	if b == nil {
		return false
	}
	_, ok := b.Items[id]
	return ok
}

// Get returns the cached copy, or nil.
func (b *Bucket) Get(id string) *CachedPost {
	if b == nil {
		return nil
	}
	return b.Items[id]
}

// clone deep-copies the bucket so patches never alias prior state.
func (b *Bucket) clone() *Bucket {
	out := &Bucket{
		Order: append([]string(nil), b.Order...),
		Items: make(map[string]*CachedPost, len(b.Items)),
	}
	for id, item := range b.Items {
		out.Items[id] = item.clone()
	}
	return out
}

// remove splices the id out of the bucket. No-op when absent.
func (b *Bucket) remove(id string) {
	if !b.Contains(id) {
		return
	}
	delete(b.Items, id)
	for i, existing := range b.Order {
		if existing == id {
			b.Order = append(b.Order[:i], b.Order[i+1:]...)
			break
		}
	}
}

// insertSorted places the post at the position consistent with the
// bucket's ordering key (sortDate desc, id desc). Replaces in place if
// already present.
func (b *Bucket) insertSorted(p *CachedPost) {
	if b.Contains(p.ID) {
		b.Items[p.ID] = p
		return
	}
	b.Items[p.ID] = p

	pos := len(b.Order)
	for i, id := range b.Order {
		other := b.Items[id]
		if other == nil {
			continue
		}
		if p.SortDate.After(other.SortDate) ||
			(p.SortDate.Equal(other.SortDate) && p.ID > other.ID) {
			pos = i
			break
		}
	}
	b.Order = append(b.Order, "")
	copy(b.Order[pos+1:], b.Order[pos:])
	b.Order[pos] = p.ID
}

// State is the full client cache: several independent, possibly
// overlapping buckets. Values are treated as immutable; Apply returns
// a new State and never mutates its input.
type State struct {
	Buckets map[BucketKind]*Bucket `json:"buckets"`
}

// NewState creates a state with the standard bucket set.
func NewState() State {
	return State{Buckets: map[BucketKind]*Bucket{
		BucketPosts:      NewBucket(),
		BucketNearby:     NewBucket(),
		BucketEvents:     NewBucket(),
		BucketPromotions: NewBucket(),
		BucketTagged:     NewBucket(),
		BucketHidden:     NewBucket(),
	}}
}

// shallowClone copies the bucket map; individual buckets are cloned
// lazily only when a patch touches them.
func (s State) shallowClone() State {
	out := State{Buckets: make(map[BucketKind]*Bucket, len(s.Buckets))}
	for kind, bucket := range s.Buckets {
		out.Buckets[kind] = bucket
	}
	return out
}
