package cachesync

import (
	"go.uber.org/zap"
)

// visibleKinds lists every non-hidden bucket in deterministic order, so
// HiddenFrom records and restoration are reproducible.
var visibleKinds = []BucketKind{
	BucketPosts,
	BucketNearby,
	BucketEvents,
	BucketPromotions,
	BucketTagged,
}

// fieldHandler patches one bucket's copy of the post.
type fieldHandler func(b *Bucket, ev Event)

// Dispatcher propagates mutation events across the cache buckets.
// Apply is a pure transition: it never mutates the input state, and a
// handler panicking over one bucket leaves that bucket at its prior
// value without blocking the others.
type Dispatcher struct {
	handlers map[EventKind]fieldHandler
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with the standard patch handlers.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: map[EventKind]fieldHandler{
			EventLikeToggled: applyLike,
			EventTagRemoved:  applyTagRemoved,
		},
		logger: logger,
	}
}

// Apply returns the state with the event propagated to every bucket
// holding a copy of the post. An event for a post no bucket knows is a
// no-op, not an error: the server may reference items the client never
// cached.
func (d *Dispatcher) Apply(state State, ev Event) State {
	if ev.PostID == "" {
		return state
	}
	switch ev.Kind {
	case EventPostHidden:
		return d.applyHide(state, ev)
	case EventPostUnhidden:
		return d.applyUnhide(state, ev)
	case EventLikeToggled, EventTagRemoved:
		return d.applyField(state, ev)
	default:
		d.logger.Warn("Unknown cache event kind", zap.String("kind", string(ev.Kind)))
		return state
	}
}

// applyField runs the event's patch handler over every bucket that
// contains the post.
func (d *Dispatcher) applyField(state State, ev Event) State {
	handler := d.handlers[ev.Kind]
	if handler == nil {
		return state
	}
	out := state.shallowClone()
	for kind, bucket := range state.Buckets {
		if !bucket.Contains(ev.PostID) {
			continue
		}
		clone := bucket.clone()
		if d.invoke(kind, ev, func() { handler(clone, ev) }) {
			out.Buckets[kind] = clone
		}
	}
	return out
}

// applyHide moves the post out of the in-scope visible buckets into the
// hidden bucket, recording where it came from. Hiding an already hidden
// or unknown post is a no-op.
func (d *Dispatcher) applyHide(state State, ev Event) State {
	if state.Buckets[BucketHidden].Contains(ev.PostID) {
		return state
	}

	scoped := visibleKinds
	if ev.Hide != nil && ev.Hide.Scope == HideScopeProfile {
		scoped = []BucketKind{BucketTagged}
	}

	out := state.shallowClone()
	var moved *CachedPost
	var origins []BucketKind
	for _, kind := range scoped {
		bucket := state.Buckets[kind]
		if !bucket.Contains(ev.PostID) {
			continue
		}
		if moved == nil {
			moved = bucket.Get(ev.PostID).clone()
		}
		clone := bucket.clone()
		if d.invoke(kind, ev, func() { clone.remove(ev.PostID) }) {
			out.Buckets[kind] = clone
			origins = append(origins, kind)
		}
	}
	if moved == nil {
		return state
	}

	moved.HiddenFrom = origins
	hidden := state.Buckets[BucketHidden]
	if hidden == nil {
		hidden = NewBucket()
	}
	hiddenClone := hidden.clone()
	if d.invoke(BucketHidden, ev, func() { hiddenClone.insertSorted(moved) }) {
		out.Buckets[BucketHidden] = hiddenClone
	}
	return out
}

// applyUnhide restores the post from the hidden bucket into exactly the
// buckets it was hidden from, at the position its sort key dictates.
// Unhiding a post that is not hidden is a no-op.
func (d *Dispatcher) applyUnhide(state State, ev Event) State {
	hidden := state.Buckets[BucketHidden]
	item := hidden.Get(ev.PostID)
	if item == nil {
		return state
	}

	out := state.shallowClone()
	restored := item.clone()
	origins := restored.HiddenFrom
	restored.HiddenFrom = nil

	for _, kind := range origins {
		bucket := state.Buckets[kind]
		if bucket == nil {
			bucket = NewBucket()
		}
		clone := bucket.clone()
		entry := restored.clone()
		if d.invoke(kind, ev, func() { clone.insertSorted(entry) }) {
			out.Buckets[kind] = clone
		}
	}

	hiddenClone := hidden.clone()
	if d.invoke(BucketHidden, ev, func() { hiddenClone.remove(ev.PostID) }) {
		out.Buckets[BucketHidden] = hiddenClone
	}
	return out
}

// invoke runs one bucket's patch with panic isolation. On panic the
// bucket keeps its prior value and the remaining buckets still run.
func (d *Dispatcher) invoke(kind BucketKind, ev Event, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			d.logger.Error("Cache patch handler panicked",
				zap.String("bucket", string(kind)),
				zap.String("event", string(ev.Kind)),
				zap.String("postID", ev.PostID),
				zap.Any("panic", r))
		}
	}()
	fn()
	return true
}

// Apply propagates an event using a dispatcher with the standard
// handlers and no logging.
func Apply(state State, ev Event) State {
	return NewDispatcher(nil).Apply(state, ev)
}
