package methods

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/hydrate"
)

// ErrNotFound marks a lookup whose target entity does not exist or has
// been deleted. The transport maps it onto the not-found RPC code.
var ErrNotFound = errors.New("not found")

// PostAPI provides single-post methods
type PostAPI struct {
	posts    *db.PostRepository
	hydrator *hydrate.Orchestrator
}

// NewPostAPI creates a new post API
func NewPostAPI(posts *db.PostRepository, hydrator *hydrate.Orchestrator) *PostAPI {
	return &PostAPI{posts: posts, hydrator: hydrator}
}

// GetPost handles plaza.get_post
func (p *PostAPI) GetPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	id := paramString(pMap, "id")
	if id == "" {
		return nil, fmt.Errorf("missing required parameter: id")
	}
	observer := paramString(pMap, "observer")

	post, err := p.posts.GetByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if post == nil || post.IsDeleted() {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	return p.hydrator.HydrateOne(ctx.Request.Context(), post, hydrate.Options{ViewerID: observer})
}
