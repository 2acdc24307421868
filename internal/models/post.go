package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Post type discriminator values
const (
	PostTypeReview     = "review"
	PostTypeCheckin    = "checkin"
	PostTypeInvite     = "invite"
	PostTypeEvent      = "event"
	PostTypePromotion  = "promotion"
	PostTypeShared     = "shared"
	PostTypeLiveStream = "livestream"
)

// Owner model values (ownership polymorphism, not inheritance)
const (
	OwnerModelUser     = "user"
	OwnerModelBusiness = "business"
)

// Privacy values
const (
	PrivacyPublic    = "public"
	PrivacyFollowers = "followers"
	PrivacyPrivate   = "private"
	PrivacyUnlisted  = "unlisted"
)

// Visibility values
const (
	VisibilityVisible = "visible"
	VisibilityHidden  = "hidden"
	VisibilityDeleted = "deleted"
)

// Post is the unified aggregate covering every feed-item kind.
// The variant payload lives in Details, keyed by Type.
type Post struct {
	ID         string `gorm:"primaryKey;type:varchar(36);column:id"`
	Type       string `gorm:"type:varchar(16);not null;index;column:type"`
	OwnerID    string `gorm:"type:varchar(36);not null;index;column:owner_id"`
	OwnerModel string `gorm:"type:varchar(16);not null;column:owner_model"`

	Message string    `gorm:"type:text;column:message"`
	Media   MediaList `gorm:"type:text;column:media"`

	// Venue is place XOR custom; a custom venue is never public.
	Venue *Venue `gorm:"type:text;column:venue"`

	// Denormalized business stamp, highest-priority source for the
	// business identity deriver. Nullable; older rows carry it in
	// Details or Refs instead.
	Business *BusinessRef `gorm:"type:text;column:business"`

	TaggedUsers StringList  `gorm:"type:text;column:tagged_users"`
	Likes       StringList  `gorm:"type:text;column:likes"`
	Comments    CommentList `gorm:"type:text;column:comments"`

	Privacy    string `gorm:"type:varchar(16);not null;default:'public';column:privacy"`
	Visibility string `gorm:"type:varchar(16);not null;default:'visible';column:visibility"`

	// SortDate is the feed ordering key, distinct from CreatedAt: an
	// invite sorts by its event time. Paired with ID for stable keyset
	// pagination when many posts share a timestamp.
	SortDate time.Time `gorm:"not null;index:plaza_posts_sort_ix,sort:desc,priority:1;column:sort_date"`

	Details Details    `gorm:"type:text;column:details"`
	Shared  *SharedRef `gorm:"type:text;column:shared"`

	// RelatedInviteID links a recap post back to the invite it
	// satisfies. Checked before the place/time heuristic.
	RelatedInviteID sql.NullString `gorm:"type:varchar(36);index;column:related_invite_id"`

	// RefBusiness is a legacy business reference shape, consulted by
	// the business identity deriver after Details.
	RefBusiness *BusinessRef `gorm:"type:text;column:ref_business"`

	// PlaceID is denormalized from Venue.Place at write time so recap
	// and per-business queries stay plain predicates. Custom venues
	// leave it empty on purpose.
	PlaceID sql.NullString `gorm:"type:varchar(64);index;column:place_id"`

	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "plaza_posts"
}

// MediaItem is one media attachment: a storage key plus optional
// per-media tagged users with x/y anchor coordinates.
type MediaItem struct {
	StorageKey  string     `json:"storageKey"`
	UploaderID  string     `json:"uploaderId,omitempty"`
	TaggedUsers []MediaTag `json:"taggedUsers,omitempty"`
}

// MediaTag anchors a tagged user at a point inside one media item.
type MediaTag struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Venue holds the post's place or custom location, never both.
type Venue struct {
	Place  *PlaceRef    `json:"place,omitempty"`
	Custom *CustomVenue `json:"custom,omitempty"`
}

// PlaceRef references an external place.
type PlaceRef struct {
	PlaceID string  `json:"placeId"`
	Name    string  `json:"name,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// CustomVenue is a free-text venue. Its coordinates are deliberately
// excluded from any public geospatial index; posts carrying one are
// forced to a non-public privacy at write time.
type CustomVenue struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// BusinessRef is a denormalized business identity stamp.
type BusinessRef struct {
	PlaceID string `json:"placeId,omitempty"`
	Name    string `json:"name,omitempty"`
	LogoKey string `json:"logoKey,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Comment is one comment; replies nest recursively without depth bound.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Replies   []Comment `json:"replies,omitempty"`
}

// SharedRef wraps an original post, one level deep only.
type SharedRef struct {
	OriginalPostID     string `json:"originalPostId"`
	OriginalOwnerID    string `json:"originalOwnerId,omitempty"`
	OriginalOwnerModel string `json:"originalOwnerModel,omitempty"`
	Snapshot           *Post  `json:"snapshot,omitempty"`
}

// validTypes is the closed set of post kinds.
var validTypes = map[string]bool{
	PostTypeReview:     true,
	PostTypeCheckin:    true,
	PostTypeInvite:     true,
	PostTypeEvent:      true,
	PostTypePromotion:  true,
	PostTypeShared:     true,
	PostTypeLiveStream: true,
}

// Validate enforces the aggregate's write-time invariants.
func (p *Post) Validate() error {
	if p.OwnerID == "" {
		return fmt.Errorf("post %s: missing owner", p.ID)
	}
	if p.OwnerModel != OwnerModelUser && p.OwnerModel != OwnerModelBusiness {
		return fmt.Errorf("post %s: invalid owner model %q", p.ID, p.OwnerModel)
	}
	if !validTypes[p.Type] {
		return fmt.Errorf("post %s: invalid type %q", p.ID, p.Type)
	}
	if p.Shared != nil && p.Type != PostTypeShared {
		return fmt.Errorf("post %s: shared payload on non-shared type %q", p.ID, p.Type)
	}
	if p.Type == PostTypeShared && (p.Shared == nil || p.Shared.OriginalPostID == "") {
		return fmt.Errorf("post %s: shared post missing original reference", p.ID)
	}
	if p.Venue != nil {
		if p.Venue.Place != nil && p.Venue.Custom != nil {
			return fmt.Errorf("post %s: venue must be place or custom, not both", p.ID)
		}
		if p.Venue.Custom != nil && (p.Privacy == PrivacyPublic || p.Privacy == PrivacyFollowers) {
			return fmt.Errorf("post %s: custom venue may not be %s", p.ID, p.Privacy)
		}
	}
	return p.Details.ValidateFor(p.Type)
}

// Normalize derives the denormalized query columns from the document
// body. Called before Validate on every write.
func (p *Post) Normalize() {
	if p.Venue != nil && p.Venue.Place != nil && p.Venue.Place.PlaceID != "" {
		p.PlaceID = sql.NullString{String: p.Venue.Place.PlaceID, Valid: true}
	} else {
		p.PlaceID = sql.NullString{}
	}
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.Visibility == VisibilityDeleted
}
