package cachesync

// EventKind names one mutation class.
type EventKind string

// Event kinds
const (
	EventLikeToggled  EventKind = "like_toggled"
	EventTagRemoved   EventKind = "tag_removed"
	EventPostHidden   EventKind = "post_hidden"
	EventPostUnhidden EventKind = "post_unhidden"
)

// HideScopeProfile limits a hide to the tagged slice; HideScopeGlobal
// removes the post from every visible slice.
const (
	HideScopeProfile = "profile"
	HideScopeGlobal  = "global"
)

// Event is one mutation to propagate across every bucket that holds a
// copy of the post. Exactly one payload field matches Kind.
type Event struct {
	Kind   EventKind `json:"kind"`
	PostID string    `json:"postId"`

	Like *LikePatch `json:"like,omitempty"`
	Tag  *TagPatch  `json:"tag,omitempty"`
	Hide *HidePatch `json:"hide,omitempty"`
}

// LikePatch carries a like toggle. LikesCount is the authoritative
// server-side count, not a delta, so replays converge.
type LikePatch struct {
	LikerID    string `json:"likerId"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}

// TagPatch removes a user's tag. A nil MediaIndex means the post-wide
// tag list; otherwise only the addressed media entry is touched.
type TagPatch struct {
	UserID     string `json:"userId"`
	MediaIndex *int   `json:"mediaIndex,omitempty"`
}

// HidePatch carries the hide scope. Unhide events ignore it.
type HidePatch struct {
	Scope string `json:"scope"`
}
