package hydrate

import (
	"time"

	"github.com/plazasocial/plaza/internal/models"
)

// Summary is a resolved user or business identity.
type Summary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// BusinessIdentity is the derived place/business identity of a post.
type BusinessIdentity struct {
	PlaceID string `json:"placeId,omitempty"`
	Name    string `json:"name,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Media is one media attachment with its storage key resolved to a
// fetchable URL and its tags resolved to identities.
type Media struct {
	StorageKey  string     `json:"storageKey"`
	URL         string     `json:"url,omitempty"`
	Uploader    *Summary   `json:"uploader,omitempty"`
	TaggedUsers []MediaTag `json:"taggedUsers,omitempty"`
}

// MediaTag is a resolved per-media tag with its anchor point.
type MediaTag struct {
	User *Summary `json:"user,omitempty"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
}

// Comment is a resolved comment; replies nest recursively.
type Comment struct {
	ID        string    `json:"id"`
	Author    *Summary  `json:"author,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Replies   []Comment `json:"replies,omitempty"`
}

// InviteRecipient is a resolved recipient or requester with status.
type InviteRecipient struct {
	User   *Summary `json:"user,omitempty"`
	Status string   `json:"status"`
}

// Share attaches the enriched snapshot and original to a shared post.
type Share struct {
	OriginalPostID string `json:"originalPostId"`
	Snapshot       *Post  `json:"snapshot,omitempty"`
	Original       *Post  `json:"original,omitempty"`
}

// Post is the fully hydrated response object: every identity reference
// replaced by its resolved form, every media key resolved to a URL,
// and needsRecap injected for invites.
type Post struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Owner      *Summary `json:"owner,omitempty"`
	OwnerModel string   `json:"ownerModel"`

	Message string  `json:"message,omitempty"`
	Media   []Media `json:"media,omitempty"`

	Venue    *models.Venue     `json:"venue,omitempty"`
	Business *BusinessIdentity `json:"business,omitempty"`

	TaggedUsers []Summary `json:"taggedUsers,omitempty"`
	Likes       []Summary `json:"likes,omitempty"`
	LikesCount  int       `json:"likesCount"`

	Comments      []Comment `json:"comments,omitempty"`
	CommentsCount int       `json:"commentsCount"`

	Privacy    string    `json:"privacy"`
	Visibility string    `json:"visibility"`
	SortDate   time.Time `json:"sortDate"`

	Details models.Details `json:"details,omitempty"`

	// Invite-only: recipients resolved, plus whether the viewer still
	// owes a recap.
	Recipients []InviteRecipient `json:"recipients,omitempty"`
	Requests   []InviteRecipient `json:"requests,omitempty"`
	NeedsRecap *bool             `json:"needsRecap,omitempty"`

	Shared          *Share `json:"shared,omitempty"`
	RelatedInviteID string `json:"relatedInviteId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
