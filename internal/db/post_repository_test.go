package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plazasocial/plaza/internal/models"
)

// newTestRepo opens an in-memory SQLite database with the full schema.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Account{},
		&models.Business{},
		&models.Follow{},
		&models.Post{},
		&models.HiddenRecord{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return NewRepository(gdb)
}

func storedPost(id, owner string, sortDate time.Time) *models.Post {
	return &models.Post{
		ID:         id,
		Type:       models.PostTypeCheckin,
		OwnerID:    owner,
		OwnerModel: models.OwnerModelUser,
		Privacy:    models.PrivacyPublic,
		Visibility: models.VisibilityVisible,
		SortDate:   sortDate,
		CreatedAt:  sortDate,
	}
}

func TestPostRepository_KeysetOrdering(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Two posts share a sort date; id breaks the tie.
	for _, p := range []*models.Post{
		storedPost("b", "u1", base),
		storedPost("a", "u1", base),
		storedPost("c", "u1", base.Add(-time.Hour)),
		storedPost("d", "u1", base.Add(time.Hour)),
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", p.ID, err)
		}
	}

	page, err := repo.ListChunk(ctx, ListQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListChunk() error = %v", err)
	}
	want := []string{"d", "b", "a", "c"}
	if len(page) != len(want) {
		t.Fatalf("ListChunk() returned %d posts, want %d", len(page), len(want))
	}
	for i, id := range want {
		if page[i].ID != id {
			t.Errorf("ListChunk()[%d] = %s, want %s", i, page[i].ID, id)
		}
	}

	// A cursor at "b" pages strictly below it, picking up the
	// tied-timestamp sibling first.
	below, err := repo.ListChunk(ctx, ListQuery{
		BeforeSortDate: base,
		BeforeID:       "b",
		Limit:          10,
	})
	if err != nil {
		t.Fatalf("ListChunk() with cursor error = %v", err)
	}
	want = []string{"a", "c"}
	if len(below) != len(want) {
		t.Fatalf("cursor page returned %d posts, want %d", len(below), len(want))
	}
	for i, id := range want {
		if below[i].ID != id {
			t.Errorf("cursor page[%d] = %s, want %s", i, below[i].ID, id)
		}
	}
}

func TestPostRepository_FiltersAndTaggedUser(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tagged := storedPost("tagged", "u1", base)
	tagged.TaggedUsers = models.StringList{"friend", "other"}
	plain := storedPost("plain", "u2", base.Add(-time.Minute))
	placed := storedPost("placed", "u3", base.Add(-2*time.Minute))
	placed.Venue = &models.Venue{Place: &models.PlaceRef{PlaceID: "place-7"}}

	for _, p := range []*models.Post{tagged, plain, placed} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", p.ID, err)
		}
	}

	byTag, err := repo.ListChunk(ctx, ListQuery{TaggedUser: "friend", Limit: 10})
	if err != nil {
		t.Fatalf("ListChunk(tagged) error = %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != "tagged" {
		t.Errorf("tagged query = %v posts, want [tagged]", len(byTag))
	}

	byPlace, err := repo.ListChunk(ctx, ListQuery{PlaceID: "place-7", Limit: 10})
	if err != nil {
		t.Fatalf("ListChunk(place) error = %v", err)
	}
	if len(byPlace) != 1 || byPlace[0].ID != "placed" {
		t.Errorf("place query = %v posts, want [placed]", len(byPlace))
	}

	byAuthor, err := repo.ListChunk(ctx, ListQuery{Authors: []string{"u1", "u2"}, Limit: 10})
	if err != nil {
		t.Fatalf("ListChunk(authors) error = %v", err)
	}
	if len(byAuthor) != 2 {
		t.Errorf("author query = %d posts, want 2", len(byAuthor))
	}
}

func TestPostRepository_CreateRejectsPublicCustomVenue(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))

	p := storedPost("p1", "u1", time.Now())
	p.Venue = &models.Venue{Custom: &models.CustomVenue{Address: "someone's flat"}}

	if err := repo.Create(context.Background(), p); err == nil {
		t.Error("Create() accepted a public post with a custom venue")
	}
}

func TestPostRepository_SoftDelete(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))
	ctx := context.Background()

	p := storedPost("p1", "u1", time.Now())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.SoftDelete(ctx, "p1"); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	page, err := repo.ListChunk(ctx, ListQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListChunk() error = %v", err)
	}
	if len(page) != 0 {
		t.Error("ListChunk() returned a soft-deleted post")
	}

	// The row survives for shares and hidden records to reference.
	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil || !got.IsDeleted() {
		t.Error("GetByID() should return the soft-deleted row")
	}
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))

	got, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() = %+v, want nil", got)
	}
}

func TestPostRepository_RecapQueries(t *testing.T) {
	repo := NewPostRepository(newTestRepo(t))
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)

	// Explicitly linked recap.
	linked := storedPost("recap-1", "viewer", start.Add(2*time.Hour))
	linked.Type = models.PostTypeReview
	linked.Details.Review = &models.ReviewDetails{Rating: 4}
	linked.RelatedInviteID = sql.NullString{String: "inv-1", Valid: true}

	// Heuristic match: a check-in at the place inside the window.
	atPlace := storedPost("recap-2", "viewer", start.Add(time.Hour))
	atPlace.Venue = &models.Venue{Place: &models.PlaceRef{PlaceID: "place-7"}}
	atPlace.CreatedAt = start.Add(time.Hour)

	for _, p := range []*models.Post{linked, atPlace} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", p.ID, err)
		}
	}

	ids, err := repo.FindRecapInviteIDs(ctx, "viewer", []string{"inv-1", "inv-2"})
	if err != nil {
		t.Fatalf("FindRecapInviteIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "inv-1" {
		t.Errorf("FindRecapInviteIDs() = %v, want [inv-1]", ids)
	}

	found, err := repo.HasRecapAtPlace(ctx, "viewer", "place-7", start.Add(-time.Hour), start.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("HasRecapAtPlace() error = %v", err)
	}
	if !found {
		t.Error("HasRecapAtPlace() = false, want true")
	}

	found, err = repo.HasRecapAtPlace(ctx, "viewer", "place-7", start.Add(4*time.Hour), start.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("HasRecapAtPlace() error = %v", err)
	}
	if found {
		t.Error("HasRecapAtPlace() matched outside the window")
	}
}

func TestHiddenRepository(t *testing.T) {
	repo := newTestRepo(t)
	hiddenRepo := NewHiddenRepository(repo)
	ctx := context.Background()

	rec := &models.HiddenRecord{
		OwnerID:    "u1",
		TargetType: "post",
		TargetID:   "p1",
		Scope:      models.HiddenScopeGlobal,
	}
	if err := hiddenRepo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	keys, err := hiddenRepo.TargetKeys(ctx, "u1", models.HiddenScopeGlobal)
	if err != nil {
		t.Fatalf("TargetKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "post:p1" {
		t.Errorf("TargetKeys() = %v, want [post:p1]", keys)
	}

	// Other scopes stay empty.
	keys, err = hiddenRepo.TargetKeys(ctx, "u1", models.HiddenScopeProfile)
	if err != nil {
		t.Fatalf("TargetKeys(profile) error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("TargetKeys(profile) = %v, want empty", keys)
	}

	if err := hiddenRepo.Delete(ctx, "u1", "post", "p1", models.HiddenScopeGlobal); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	keys, err = hiddenRepo.TargetKeys(ctx, "u1", models.HiddenScopeGlobal)
	if err != nil {
		t.Fatalf("TargetKeys() after delete error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("TargetKeys() after delete = %v, want empty", keys)
	}
}
