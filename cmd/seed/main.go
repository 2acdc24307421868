package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/models"
	"github.com/plazasocial/plaza/pkg/config"
	"github.com/plazasocial/plaza/pkg/logging"
)

// Seeds the database with fake accounts, businesses, follows and posts
// for local development.
func main() {
	accounts := flag.Int("accounts", 50, "number of accounts to create")
	businesses := flag.Int("businesses", 10, "number of businesses to create")
	posts := flag.Int("posts", 400, "number of posts to create")
	seed := flag.Int64("seed", 0, "random seed, 0 for time-based")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := logging.GetLogger()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gofakeit.Seed(*seed)
	rng := rand.New(rand.NewSource(*seed))

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&models.Account{},
		&models.Business{},
		&models.Follow{},
		&models.Post{},
		&models.HiddenRecord{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	ctx := context.Background()
	repo := db.NewRepository(database.DB)
	s := &seeder{
		accounts:   db.NewAccountRepository(repo),
		businesses: db.NewBusinessRepository(repo),
		follows:    db.NewFollowRepository(repo),
		posts:      db.NewPostRepository(repo),
		rng:        rng,
		logger:     logger,
	}

	accountIDs, err := s.seedAccounts(ctx, *accounts)
	if err != nil {
		logger.Fatal("Failed to seed accounts", zap.Error(err))
	}
	businessRefs, err := s.seedBusinesses(ctx, *businesses)
	if err != nil {
		logger.Fatal("Failed to seed businesses", zap.Error(err))
	}
	if err := s.seedFollows(ctx, accountIDs); err != nil {
		logger.Fatal("Failed to seed follows", zap.Error(err))
	}
	if err := s.seedPosts(ctx, accountIDs, businessRefs, *posts); err != nil {
		logger.Fatal("Failed to seed posts", zap.Error(err))
	}

	logger.Info("Seed complete",
		zap.Int("accounts", *accounts),
		zap.Int("businesses", *businesses),
		zap.Int("posts", *posts))
}

type seeder struct {
	accounts   *db.AccountRepository
	businesses *db.BusinessRepository
	follows    *db.FollowRepository
	posts      *db.PostRepository
	rng        *rand.Rand
	logger     *zap.Logger
}

func (s *seeder) seedAccounts(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		account := &models.Account{
			ID:       uuid.NewString(),
			Username: gofakeit.Username(),
			ImageKey: fmt.Sprintf("avatars/%s.jpg", uuid.NewString()),
			CreatedAt: gofakeit.DateRange(
				time.Now().AddDate(-2, 0, 0), time.Now()),
		}
		if s.rng.Intn(2) == 0 {
			account.DisplayName.String = gofakeit.Name()
			account.DisplayName.Valid = true
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, err
		}
		ids = append(ids, account.ID)
	}
	return ids, nil
}

func (s *seeder) seedBusinesses(ctx context.Context, n int) ([]*models.BusinessRef, error) {
	refs := make([]*models.BusinessRef, 0, n)
	for i := 0; i < n; i++ {
		business := &models.Business{
			ID:      uuid.NewString(),
			Name:    gofakeit.Company(),
			LogoKey: fmt.Sprintf("logos/%s.png", uuid.NewString()),
			About:   sql.NullString{String: gofakeit.Sentence(12), Valid: true},
			Address: sql.NullString{String: gofakeit.Street(), Valid: true},
			Website: sql.NullString{String: gofakeit.URL(), Valid: true},
			Lat:     gofakeit.Latitude(),
			Lng:     gofakeit.Longitude(),
		}
		business.PlaceID.String = fmt.Sprintf("place-%s", uuid.NewString())
		business.PlaceID.Valid = true
		if err := s.businesses.Create(ctx, business); err != nil {
			return nil, err
		}
		refs = append(refs, &models.BusinessRef{
			PlaceID: business.PlaceID.String,
			Name:    business.Name,
			LogoKey: business.LogoKey,
		})
	}
	return refs, nil
}

func (s *seeder) seedFollows(ctx context.Context, accountIDs []string) error {
	for _, follower := range accountIDs {
		for i := 0; i < 5 && len(accountIDs) > 1; i++ {
			following := accountIDs[s.rng.Intn(len(accountIDs))]
			if following == follower {
				continue
			}
			if err := s.follows.SetState(ctx, follower, following, models.FollowStateActive); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) seedPosts(ctx context.Context, accountIDs []string, businessRefs []*models.BusinessRef, n int) error {
	types := []string{
		models.PostTypeReview,
		models.PostTypeCheckin,
		models.PostTypeInvite,
		models.PostTypeEvent,
	}
	privacies := []string{
		models.PrivacyPublic,
		models.PrivacyPublic,
		models.PrivacyFollowers,
		models.PrivacyPrivate,
	}

	var inviteIDs []string
	for i := 0; i < n; i++ {
		owner := accountIDs[s.rng.Intn(len(accountIDs))]
		postType := types[s.rng.Intn(len(types))]
		business := businessRefs[s.rng.Intn(len(businessRefs))]
		created := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now())

		post := &models.Post{
			ID:         uuid.NewString(),
			Type:       postType,
			OwnerID:    owner,
			OwnerModel: models.OwnerModelUser,
			Message:    gofakeit.Sentence(10),
			Venue: &models.Venue{Place: &models.PlaceRef{
				PlaceID: business.PlaceID,
				Name:    business.Name,
			}},
			Privacy:    privacies[s.rng.Intn(len(privacies))],
			Visibility: models.VisibilityVisible,
			SortDate:   created,
			CreatedAt:  created,
		}

		switch postType {
		case models.PostTypeReview:
			post.Details.Review = &models.ReviewDetails{
				Rating:      1 + s.rng.Intn(5),
				Recommended: s.rng.Intn(2) == 0,
				Business:    business,
			}
			// Some reviews recap an earlier invite.
			if len(inviteIDs) > 0 && s.rng.Intn(3) == 0 {
				post.RelatedInviteID.String = inviteIDs[s.rng.Intn(len(inviteIDs))]
				post.RelatedInviteID.Valid = true
			}
		case models.PostTypeCheckin:
			post.Details.Checkin = &models.CheckinDetails{Business: business}
		case models.PostTypeInvite:
			post.Details.Invite = &models.InviteDetails{
				StartAt:  created.Add(time.Duration(s.rng.Intn(72)) * time.Hour),
				Business: business,
			}
			for j := 0; j < 3; j++ {
				post.Details.Invite.Recipients = append(post.Details.Invite.Recipients, models.InviteRecipient{
					UserID: accountIDs[s.rng.Intn(len(accountIDs))],
					Status: models.InviteStatusAccepted,
				})
			}
		case models.PostTypeEvent:
			start := created.Add(time.Duration(s.rng.Intn(240)) * time.Hour)
			post.Details.Event = &models.EventDetails{
				StartAt:  start,
				EndAt:    start.Add(3 * time.Hour),
				Business: business,
			}
		}

		if s.rng.Intn(3) == 0 {
			post.Media = models.MediaList{{
				StorageKey: fmt.Sprintf("media/%s.jpg", uuid.NewString()),
				UploaderID: owner,
			}}
		}
		for j := 0; j < s.rng.Intn(4); j++ {
			post.Likes = append(post.Likes, accountIDs[s.rng.Intn(len(accountIDs))])
		}

		if err := s.posts.Create(ctx, post); err != nil {
			return err
		}
		if postType == models.PostTypeInvite {
			inviteIDs = append(inviteIDs, post.ID)
		}
	}
	return nil
}
