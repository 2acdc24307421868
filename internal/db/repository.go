package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/plazasocial/plaza/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying connection for query builders.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDs retrieves multiple accounts in one batched query. Missing
// ids are simply absent from the result.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// BusinessRepository provides business-related database operations
type BusinessRepository struct {
	*Repository
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(repo *Repository) *BusinessRepository {
	return &BusinessRepository{Repository: repo}
}

// GetByID retrieves a business by ID
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}

// GetByIDs retrieves multiple businesses in one batched query.
func (r *BusinessRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Business, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var businesses []*models.Business
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&businesses).Error; err != nil {
		return nil, err
	}
	return businesses, nil
}

// Create creates a new business
func (r *BusinessRepository) Create(ctx context.Context, business *models.Business) error {
	return r.db.WithContext(ctx).Create(business).Error
}

// FollowRepository provides follow/block database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// GetFollowingIDs returns the ids the account actively follows.
func (r *FollowRepository) GetFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower = ? AND state = ?", followerID, models.FollowStateActive).
		Pluck("following", &ids).Error
	return ids, err
}

// GetBlockedIDs returns the ids the account has blocked.
func (r *FollowRepository) GetBlockedIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower = ? AND state = ?", followerID, models.FollowStateBlock).
		Pluck("following", &ids).Error
	return ids, err
}

// IsFollowing reports whether follower actively follows following.
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower = ? AND following = ? AND state = ?", followerID, followingID, models.FollowStateActive).
		Count(&count).Error
	return count > 0, err
}

// FollowingSet returns the viewer's following ids as a membership set.
func (r *FollowRepository) FollowingSet(ctx context.Context, followerID string) (map[string]bool, error) {
	ids, err := r.GetFollowingIDs(ctx, followerID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// SetState upserts a relationship state between two accounts.
func (r *FollowRepository) SetState(ctx context.Context, followerID, followingID string, state int16) error {
	follow := models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		State:       state,
	}
	var existing models.Follow
	err := r.db.WithContext(ctx).
		Where("follower = ? AND following = ?", followerID, followingID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&follow).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower = ? AND following = ?", followerID, followingID).
		Update("state", state).Error
}
