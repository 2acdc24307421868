package cachesync

// Field patches mutate a post's denormalized copy inside one bucket.
// All of them are idempotent: replaying a patch converges to the same
// state instead of drifting.

// applyLike rewrites the like fields from the event. The count is the
// authoritative server-side value, never a local increment.
func applyLike(b *Bucket, ev Event) {
	if ev.Like == nil {
		return
	}
	p := b.Get(ev.PostID)
	if p == nil {
		return
	}
	p.LikesCount = ev.Like.LikesCount
	p.Liked = ev.Like.Liked
	if ev.Like.Liked {
		p.Likes = addString(p.Likes, ev.Like.LikerID)
	} else {
		p.Likes = removeString(p.Likes, ev.Like.LikerID)
	}
}

// applyTagRemoved removes a user's tag. Without a media index the
// removal is post-wide: the post tag list and every media tag list.
// With one, only the addressed media entry changes; an out-of-range
// index is a no-op.
func applyTagRemoved(b *Bucket, ev Event) {
	if ev.Tag == nil {
		return
	}
	p := b.Get(ev.PostID)
	if p == nil {
		return
	}
	if ev.Tag.MediaIndex == nil {
		p.TaggedUsers = removeString(p.TaggedUsers, ev.Tag.UserID)
		for i := range p.Media {
			p.Media[i].TaggedUsers = removeString(p.Media[i].TaggedUsers, ev.Tag.UserID)
		}
		return
	}
	i := *ev.Tag.MediaIndex
	if i < 0 || i >= len(p.Media) {
		return
	}
	p.Media[i].TaggedUsers = removeString(p.Media[i].TaggedUsers, ev.Tag.UserID)
}

// addString appends id unless already present.
func addString(list []string, id string) []string {
	if id == "" {
		return list
	}
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

// removeString splices out every occurrence of id.
func removeString(list []string, id string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
