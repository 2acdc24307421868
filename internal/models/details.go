package models

import (
	"fmt"
	"time"
)

// Invite recipient status values
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Details is the type-keyed variant payload of a post. Exactly the
// member matching Post.Type is populated; the rest stay nil. A tagged
// union rather than subclassing keeps hydration exhaustive over one
// switch.
type Details struct {
	Review     *ReviewDetails     `json:"review,omitempty"`
	Checkin    *CheckinDetails    `json:"checkin,omitempty"`
	Invite     *InviteDetails     `json:"invite,omitempty"`
	Event      *EventDetails      `json:"event,omitempty"`
	Promotion  *PromotionDetails  `json:"promotion,omitempty"`
	LiveStream *LiveStreamDetails `json:"livestream,omitempty"`
}

// ReviewDetails carries rating and recommendation fields.
type ReviewDetails struct {
	Rating      int          `json:"rating"`
	Recommended bool         `json:"recommended"`
	Business    *BusinessRef `json:"business,omitempty"`
}

// CheckinDetails marks a visit at a place.
type CheckinDetails struct {
	Business *BusinessRef `json:"business,omitempty"`
}

// InviteDetails carries the invite's event time plus recipient and
// request lists with per-entry status.
type InviteDetails struct {
	StartAt    time.Time         `json:"startAt"`
	Recipients []InviteRecipient `json:"recipients,omitempty"`
	Requests   []InviteRecipient `json:"requests,omitempty"`
	Business   *BusinessRef      `json:"business,omitempty"`
}

// InviteRecipient is one recipient or requester with their status.
type InviteRecipient struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// EventDetails carries the event window.
type EventDetails struct {
	StartAt  time.Time    `json:"startAt"`
	EndAt    time.Time    `json:"endAt"`
	Business *BusinessRef `json:"business,omitempty"`
}

// PromotionDetails carries the promotion window.
type PromotionDetails struct {
	StartAt  time.Time    `json:"startAt"`
	EndAt    time.Time    `json:"endAt"`
	Business *BusinessRef `json:"business,omitempty"`
}

// LiveStreamDetails carries the stream reference.
type LiveStreamDetails struct {
	StreamKey string    `json:"streamKey"`
	StartedAt time.Time `json:"startedAt"`
}

// ValidateFor checks that the payload shape matches the post type.
func (d Details) ValidateFor(postType string) error {
	switch postType {
	case PostTypeReview:
		if d.Review == nil {
			return fmt.Errorf("review post missing review details")
		}
		if d.Review.Rating < 0 || d.Review.Rating > 5 {
			return fmt.Errorf("review rating %d out of range", d.Review.Rating)
		}
	case PostTypeInvite:
		if d.Invite == nil {
			return fmt.Errorf("invite post missing invite details")
		}
		if d.Invite.StartAt.IsZero() {
			return fmt.Errorf("invite missing start time")
		}
	case PostTypeEvent:
		if d.Event == nil {
			return fmt.Errorf("event post missing event details")
		}
	case PostTypePromotion:
		if d.Promotion == nil {
			return fmt.Errorf("promotion post missing promotion details")
		}
	case PostTypeCheckin, PostTypeShared, PostTypeLiveStream:
		// Checkin details are optional; shared posts carry their payload
		// in Shared; livestream details are optional until go-live.
	default:
		return fmt.Errorf("unknown post type %q", postType)
	}
	return nil
}

// BusinessStamp returns the business stamp embedded in the active
// variant, if any.
func (d Details) BusinessStamp() *BusinessRef {
	switch {
	case d.Review != nil && d.Review.Business != nil:
		return d.Review.Business
	case d.Checkin != nil && d.Checkin.Business != nil:
		return d.Checkin.Business
	case d.Invite != nil && d.Invite.Business != nil:
		return d.Invite.Business
	case d.Event != nil && d.Event.Business != nil:
		return d.Event.Business
	case d.Promotion != nil && d.Promotion.Business != nil:
		return d.Promotion.Business
	}
	return nil
}
