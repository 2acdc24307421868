package methods

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/plazasocial/plaza/internal/hidden"
	"github.com/plazasocial/plaza/internal/models"
)

// HiddenAPI provides hidden content methods
type HiddenAPI struct {
	svc *hidden.Service
}

// NewHiddenAPI creates a new hidden content API
func NewHiddenAPI(svc *hidden.Service) *HiddenAPI {
	return &HiddenAPI{svc: svc}
}

// hideParams extracts the shared hide/unhide parameter set.
func hideParams(params json.RawMessage) (observer, targetType, targetID, scope string, err error) {
	pMap, err := parseParams(params)
	if err != nil {
		return "", "", "", "", err
	}

	observer = paramString(pMap, "observer")
	targetID = paramString(pMap, "id")
	if observer == "" || targetID == "" {
		return "", "", "", "", fmt.Errorf("missing required parameters: observer, id")
	}

	targetType = paramString(pMap, "target_type")
	if targetType == "" {
		targetType = "post"
	}
	scope = paramString(pMap, "scope")
	if scope == "" {
		scope = models.HiddenScopeGlobal
	}
	return observer, targetType, targetID, scope, nil
}

// HidePost handles plaza.hide_post
func (h *HiddenAPI) HidePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	observer, targetType, targetID, scope, err := hideParams(params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Hide(ctx.Request.Context(), observer, targetType, targetID, scope); err != nil {
		return nil, err
	}
	return gin.H{"hidden": true}, nil
}

// UnhidePost handles plaza.unhide_post
func (h *HiddenAPI) UnhidePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	observer, targetType, targetID, scope, err := hideParams(params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Unhide(ctx.Request.Context(), observer, targetType, targetID, scope); err != nil {
		return nil, err
	}
	return gin.H{"hidden": false}, nil
}

// GetHiddenPosts handles plaza.get_hidden_posts
func (h *HiddenAPI) GetHiddenPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	pMap, err := parseParams(params)
	if err != nil {
		return nil, err
	}

	observer := paramString(pMap, "observer")
	if observer == "" {
		return nil, fmt.Errorf("missing required parameter: observer")
	}
	scope := paramString(pMap, "scope")
	if scope == "" {
		scope = models.HiddenScopeGlobal
	}

	posts, err := h.svc.List(ctx.Request.Context(), observer, scope, paramInt(pMap, "limit"))
	if err != nil {
		return nil, err
	}
	return gin.H{"items": posts}, nil
}
