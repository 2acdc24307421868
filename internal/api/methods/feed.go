package methods

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/feed"
)

// FeedAPI provides feed query methods
type FeedAPI struct {
	engine  *feed.Engine
	follows *db.FollowRepository
}

// NewFeedAPI creates a new feed API
func NewFeedAPI(engine *feed.Engine, follows *db.FollowRepository) *FeedAPI {
	return &FeedAPI{engine: engine, follows: follows}
}

// GetFeed handles plaza.get_feed: the observer's home feed, authored by
// the accounts they follow plus themselves, minus anyone they blocked.
func (a *FeedAPI) GetFeed(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	observer := paramString(pMap, "observer")
	if observer == "" {
		return nil, fmt.Errorf("missing required parameter: observer")
	}

	following, err := a.follows.GetFollowingIDs(ctx.Request.Context(), observer)
	if err != nil {
		return nil, err
	}
	blocked, err := a.follows.GetBlockedIDs(ctx.Request.Context(), observer)
	if err != nil {
		return nil, err
	}

	req := feed.Request{
		ViewerID: observer,
		Authors:  append(following, observer),
		Excluded: blocked,
		Types:    paramStrings(pMap, "types"),
		Limit:    paramInt(pMap, "limit"),
		Cursor:   paramString(pMap, "cursor"),
	}
	return a.engine.Query(ctx.Request.Context(), req)
}

// GetAccountPosts handles plaza.get_account_posts: one account's posts
// as seen by the observer.
func (a *FeedAPI) GetAccountPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	account := paramString(pMap, "account")
	if account == "" {
		return nil, fmt.Errorf("missing required parameter: account")
	}

	req := feed.Request{
		ViewerID: paramString(pMap, "observer"),
		Authors:  []string{account},
		Types:    paramStrings(pMap, "types"),
		Limit:    paramInt(pMap, "limit"),
		Cursor:   paramString(pMap, "cursor"),
	}
	return a.engine.Query(ctx.Request.Context(), req)
}

// GetTaggedPosts handles plaza.get_tagged_posts: posts an account is
// tagged in.
func (a *FeedAPI) GetTaggedPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	account := paramString(pMap, "account")
	if account == "" {
		return nil, fmt.Errorf("missing required parameter: account")
	}

	req := feed.Request{
		ViewerID:   paramString(pMap, "observer"),
		TaggedUser: account,
		Types:      paramStrings(pMap, "types"),
		Limit:      paramInt(pMap, "limit"),
		Cursor:     paramString(pMap, "cursor"),
	}
	return a.engine.Query(ctx.Request.Context(), req)
}

// GetBusinessPosts handles plaza.get_business_posts: posts anchored to
// one place.
func (a *FeedAPI) GetBusinessPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	placeID := paramString(pMap, "place_id")
	if placeID == "" {
		return nil, fmt.Errorf("missing required parameter: place_id")
	}

	req := feed.Request{
		ViewerID: paramString(pMap, "observer"),
		PlaceID:  placeID,
		Types:    paramStrings(pMap, "types"),
		Limit:    paramInt(pMap, "limit"),
		Cursor:   paramString(pMap, "cursor"),
	}
	return a.engine.Query(ctx.Request.Context(), req)
}
