package hidden

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plazasocial/plaza/internal/cache"
	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/hydrate"
	"github.com/plazasocial/plaza/internal/models"
)

// Service maintains the two read models for hidden content: the record
// table as source of truth, and a Redis membership set for the O(1)
// feed-time filter. The set is best-effort; a cache outage degrades to
// rebuilding from the table.
type Service struct {
	records  *db.HiddenRepository
	posts    *db.PostRepository
	cache    *cache.Cache
	hydrator *hydrate.Orchestrator
	logger   *zap.Logger
}

// NewService creates a new hidden content service
func NewService(records *db.HiddenRepository, posts *db.PostRepository, c *cache.Cache, hydrator *hydrate.Orchestrator, logger *zap.Logger) *Service {
	return &Service{
		records:  records,
		posts:    posts,
		cache:    c,
		hydrator: hydrator,
		logger:   logger,
	}
}

// setKey names the owner's membership set for one scope.
func setKey(ownerID, scope string) string {
	return "hidden:" + ownerID + ":" + scope
}

func validScope(scope string) bool {
	return scope == models.HiddenScopeProfile || scope == models.HiddenScopeGlobal
}

// Hide records that the owner hid a target in a scope. Hiding an
// already hidden target is a no-op.
func (s *Service) Hide(ctx context.Context, ownerID, targetType, targetID, scope string) error {
	if ownerID == "" || targetType == "" || targetID == "" {
		return fmt.Errorf("hide requires owner, target type and target id")
	}
	if !validScope(scope) {
		return fmt.Errorf("invalid hide scope: %s", scope)
	}

	rec := &models.HiddenRecord{
		OwnerID:    ownerID,
		TargetType: targetType,
		TargetID:   targetID,
		Scope:      scope,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create hidden record: %w", err)
		}
	}

	if err := s.cache.SAdd(ctx, setKey(ownerID, scope), models.HiddenTargetKey(targetType, targetID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to update hidden set", zap.Error(err))
	}
	return nil
}

// Unhide removes a hidden record. Unhiding a target that is not hidden
// is a no-op.
func (s *Service) Unhide(ctx context.Context, ownerID, targetType, targetID, scope string) error {
	if !validScope(scope) {
		return fmt.Errorf("invalid hide scope: %s", scope)
	}

	if err := s.records.Delete(ctx, ownerID, targetType, targetID, scope); err != nil {
		return fmt.Errorf("failed to delete hidden record: %w", err)
	}

	if err := s.cache.SRem(ctx, setKey(ownerID, scope), models.HiddenTargetKey(targetType, targetID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to update hidden set", zap.Error(err))
	}
	return nil
}

// HiddenKeys returns the owner's hidden membership keys in one scope.
// Reads the Redis set first; a cold or unavailable set falls back to
// the record table and rewarms the cache.
func (s *Service) HiddenKeys(ctx context.Context, ownerID, scope string) (map[string]bool, error) {
	members, err := s.cache.SMembers(ctx, setKey(ownerID, scope))
	if err == nil && len(members) > 0 {
		return toSet(members), nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Hidden set read failed, falling back to store", zap.Error(err))
	}

	keys, err := s.records.TargetKeys(ctx, ownerID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load hidden records: %w", err)
	}
	if len(keys) > 0 {
		if err := s.cache.SAdd(ctx, setKey(ownerID, scope), keys...); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			s.logger.Warn("Failed to rewarm hidden set", zap.Error(err))
		}
	}
	return toSet(keys), nil
}

// IsHidden checks one membership without loading the whole set.
func (s *Service) IsHidden(ctx context.Context, ownerID, targetType, targetID, scope string) (bool, error) {
	member, err := s.cache.SIsMember(ctx, setKey(ownerID, scope), models.HiddenTargetKey(targetType, targetID))
	if err == nil {
		return member, nil
	}
	keys, kerr := s.HiddenKeys(ctx, ownerID, scope)
	if kerr != nil {
		return false, kerr
	}
	return keys[models.HiddenTargetKey(targetType, targetID)], nil
}

// List returns the owner's hidden posts in one scope, hydrated, newest
// hide first. Records pointing at posts that no longer exist are
// skipped.
func (s *Service) List(ctx context.Context, ownerID, scope string, limit int) ([]*hydrate.Post, error) {
	if !validScope(scope) {
		return nil, fmt.Errorf("invalid hide scope: %s", scope)
	}

	recs, err := s.records.ListByOwner(ctx, ownerID, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list hidden records: %w", err)
	}

	var ids []string
	for _, rec := range recs {
		if rec.TargetType == "post" {
			ids = append(ids, rec.TargetID)
		}
	}
	if len(ids) == 0 {
		return []*hydrate.Post{}, nil
	}

	posts, err := s.posts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load hidden posts: %w", err)
	}
	byID := make(map[string]*models.Post, len(posts))
	for _, p := range posts {
		if !p.IsDeleted() {
			byID[p.ID] = p
		}
	}

	// Preserve record order (hide recency), not store order.
	ordered := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p := byID[id]; p != nil {
			ordered = append(ordered, p)
		}
	}

	hydrated, err := s.hydrator.HydrateMany(ctx, ordered, hydrate.Options{ViewerID: ownerID})
	if err != nil {
		return nil, err
	}
	out := make([]*hydrate.Post, 0, len(hydrated))
	for _, h := range hydrated {
		if h != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = true
		}
	}
	return set
}
