package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/plazasocial/plaza/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts in one batched query. Missing ids
// are simply absent from the result.
func (r *PostRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Create normalizes, validates and inserts a post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.Normalize()
	if err := post.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(post).Error
}

// Update normalizes, validates and saves a post.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.Normalize()
	if err := post.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(post).Error
}

// SoftDelete marks a post deleted without removing the row; it may
// still be referenced by shares and hidden records.
func (r *PostRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("visibility", models.VisibilityDeleted).Error
}

// ListQuery describes one raw keyset chunk request.
type ListQuery struct {
	Authors    []string
	Types      []string
	PlaceID    string
	TaggedUser string

	// Cursor boundary; both set or both empty. The page is strictly
	// below (BeforeSortDate, BeforeID) in (sort_date, id) order.
	BeforeSortDate time.Time
	BeforeID       string

	Limit int
}

// ListChunk returns one raw page of non-deleted posts, newest first by
// (sort_date desc, id desc). Privacy and hidden filtering happen after
// hydration, so callers request chunks larger than their limit.
func (r *PostRepository) ListChunk(ctx context.Context, q ListQuery) ([]*models.Post, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("visibility <> ?", models.VisibilityDeleted)

	if len(q.Authors) > 0 {
		query = query.Where("owner_id IN ?", q.Authors)
	}
	if len(q.Types) > 0 {
		query = query.Where("type IN ?", q.Types)
	}
	if q.PlaceID != "" {
		query = query.Where("place_id = ?", q.PlaceID)
	}
	if q.TaggedUser != "" {
		// tagged_users is a JSON array column; membership is matched on
		// the quoted id so it works on both postgres and sqlite.
		query = query.Where("tagged_users LIKE ?", "%\""+q.TaggedUser+"\"%")
	}
	if q.BeforeID != "" {
		query = query.Where(
			"sort_date < ? OR (sort_date = ? AND id < ?)",
			q.BeforeSortDate, q.BeforeSortDate, q.BeforeID,
		)
	}

	var posts []*models.Post
	err := query.
		Order("sort_date DESC").
		Order("id DESC").
		Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// FindRecapInviteIDs returns the subset of inviteIDs for which the
// owner has a review or check-in explicitly linked by related invite
// id. One query regardless of page size.
func (r *PostRepository) FindRecapInviteIDs(ctx context.Context, ownerID string, inviteIDs []string) ([]string, error) {
	if len(inviteIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Distinct("related_invite_id").
		Where("owner_id = ?", ownerID).
		Where("type IN ?", []string{models.PostTypeReview, models.PostTypeCheckin}).
		Where("related_invite_id IN ?", inviteIDs).
		Where("visibility <> ?", models.VisibilityDeleted).
		Pluck("related_invite_id", &ids).Error
	return ids, err
}

// HasRecapAtPlace reports whether the owner posted a review or
// check-in at the place inside [from, to).
func (r *PostRepository) HasRecapAtPlace(ctx context.Context, ownerID, placeID string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("owner_id = ?", ownerID).
		Where("type IN ?", []string{models.PostTypeReview, models.PostTypeCheckin}).
		Where("place_id = ?", placeID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("visibility <> ?", models.VisibilityDeleted).
		Count(&count).Error
	return count > 0, err
}

// HiddenRepository provides hidden-record database operations
type HiddenRepository struct {
	*Repository
}

// NewHiddenRepository creates a new hidden repository
func NewHiddenRepository(repo *Repository) *HiddenRepository {
	return &HiddenRepository{Repository: repo}
}

// Create inserts a hidden record.
func (r *HiddenRepository) Create(ctx context.Context, rec *models.HiddenRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Delete removes the record matching the hide key, if present.
func (r *HiddenRepository) Delete(ctx context.Context, ownerID, targetType, targetID, scope string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND target_type = ? AND target_id = ? AND scope = ?",
			ownerID, targetType, targetID, scope).
		Delete(&models.HiddenRecord{}).Error
}

// ListByOwner returns the owner's records in one scope, newest first.
func (r *HiddenRepository) ListByOwner(ctx context.Context, ownerID, scope string, limit int) ([]*models.HiddenRecord, error) {
	var recs []*models.HiddenRecord
	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND scope = ?", ownerID, scope).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// TargetKeys returns the owner's hidden membership keys in one scope.
// Used to rebuild the fast set when the cache is cold.
func (r *HiddenRepository) TargetKeys(ctx context.Context, ownerID, scope string) ([]string, error) {
	recs, err := r.ListByOwner(ctx, ownerID, scope, 0)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		keys = append(keys, rec.TargetKey())
	}
	return keys, nil
}
