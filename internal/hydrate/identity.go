package hydrate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/media"
	"github.com/plazasocial/plaza/internal/models"
)

// AccountLookup loads accounts in one batched query.
type AccountLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.Account, error)
}

// BusinessLookup loads businesses in one batched query.
type BusinessLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.Business, error)
}

// IdentityResolver turns sets of user/business reference ids into
// resolved summaries. Exactly one batched lookup per backing
// collection per call, regardless of how many posts referenced the
// ids. Missing ids are absent from the result maps, never an error.
type IdentityResolver struct {
	accounts   AccountLookup
	businesses BusinessLookup
	signer     media.Signer
	fanout     int
	logger     *zap.Logger
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(accounts AccountLookup, businesses BusinessLookup, signer media.Signer, fanout int, logger *zap.Logger) *IdentityResolver {
	if fanout <= 0 {
		fanout = 8
	}
	return &IdentityResolver{
		accounts:   accounts,
		businesses: businesses,
		signer:     signer,
		fanout:     fanout,
		logger:     logger,
	}
}

// Resolve resolves user and business ids to summaries. Profile image
// keys are signed concurrently with a bounded fan-out; a signing
// failure leaves that summary's URL empty.
func (r *IdentityResolver) Resolve(ctx context.Context, userIDs, businessIDs []string) (map[string]*Summary, map[string]*Summary, error) {
	users := make(map[string]*Summary)
	businesses := make(map[string]*Summary)

	userKeys := make(map[string]string)     // id -> image key
	businessKeys := make(map[string]string) // id -> logo key

	if ids := dedupeIDs(userIDs); len(ids) > 0 {
		accounts, err := r.accounts.GetByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range accounts {
			users[a.ID] = &Summary{ID: a.ID, DisplayName: a.Name()}
			if a.ImageKey != "" {
				userKeys[a.ID] = a.ImageKey
			}
		}
	}

	if ids := dedupeIDs(businessIDs); len(ids) > 0 {
		records, err := r.businesses.GetByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range records {
			businesses[b.ID] = &Summary{ID: b.ID, DisplayName: b.Name}
			if b.LogoKey != "" {
				businessKeys[b.ID] = b.LogoKey
			}
		}
	}

	// Sign every distinct key once.
	keySet := make(map[string]bool, len(userKeys)+len(businessKeys))
	for _, key := range userKeys {
		keySet[key] = true
	}
	for _, key := range businessKeys {
		keySet[key] = true
	}
	urls := signKeys(ctx, r.signer, r.fanout, r.logger, keySet)

	for id, key := range userKeys {
		users[id].ImageURL = urls[key]
	}
	for id, key := range businessKeys {
		businesses[id].ImageURL = urls[key]
	}

	return users, businesses, nil
}

// signKeys signs a set of storage keys concurrently, bounded by the
// fan-out limit. Failures resolve to an empty URL; they never fail the
// batch.
func signKeys(ctx context.Context, signer media.Signer, fanout int, logger *zap.Logger, keys map[string]bool) map[string]string {
	urls := make(map[string]string, len(keys))
	if signer == nil || len(keys) == 0 {
		return urls
	}
	if fanout <= 0 {
		fanout = 8
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, fanout)

	for key := range keys {
		wg.Add(1)
		sem <- struct{}{}
		go func(key string) {
			defer wg.Done()
			defer func() { <-sem }()

			url, err := signer.SignURL(ctx, key)
			if err != nil {
				logger.Warn("Failed to sign media URL",
					zap.String("key", key),
					zap.Error(err))
				return
			}
			mu.Lock()
			urls[key] = url
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	return urls
}

// dedupeIDs drops empty and duplicate ids, preserving first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
