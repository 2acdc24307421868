package api

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plazasocial/plaza/internal/api/methods"
	"github.com/plazasocial/plaza/internal/cache"
	"github.com/plazasocial/plaza/internal/db"
	"github.com/plazasocial/plaza/internal/feed"
	"github.com/plazasocial/plaza/internal/hidden"
	"github.com/plazasocial/plaza/internal/hydrate"
	"github.com/plazasocial/plaza/internal/media"
	"github.com/plazasocial/plaza/pkg/config"
	"github.com/plazasocial/plaza/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      *db.DB
	cache   *cache.Cache
	signer  media.Signer
	cfg     *config.Config
	gate    *SequenceGate
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, signer media.Signer, cfg *config.Config) *Router {
	handler := NewJSONRPCHandler()
	router := &Router{
		handler: handler,
		db:      database,
		cache:   redisCache,
		signer:  signer,
		cfg:     cfg,
		gate:    NewSequenceGate(),
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}

	// Register all API methods
	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods wires the hydration pipeline and registers all API
// methods
func (r *Router) registerMethods() {
	repo := db.NewRepository(r.db.DB)
	accounts := db.NewAccountRepository(repo)
	businesses := db.NewBusinessRepository(repo)
	follows := db.NewFollowRepository(repo)
	posts := db.NewPostRepository(repo)
	hiddenRecords := db.NewHiddenRepository(repo)

	logger := logging.GetLogger()
	fanout := r.cfg.Hydrate.SignFanout
	window := hydrate.RecapWindow{
		Before:     r.cfg.Recap.WindowBefore,
		After:      r.cfg.Recap.WindowAfter,
		NeedsAfter: r.cfg.Recap.NeedsAfter,
	}

	identities := hydrate.NewIdentityResolver(accounts, businesses, r.signer, fanout, logger)
	recaps := hydrate.NewRecapBuilder(posts, window, logger)
	enricher := hydrate.NewEnricher(identities, recaps, r.signer, fanout, logger)
	hydrator := hydrate.NewOrchestrator(enricher, posts, logger)

	hiddenSvc := hidden.NewService(hiddenRecords, posts, r.cache, hydrator, logger)
	engine := feed.NewEngine(posts, hydrator, hiddenSvc, follows, feed.Config{
		ChunkMultiplier: r.cfg.Feed.ChunkMultiplier,
		MaxChunk:        r.cfg.Feed.MaxChunk,
		MaxPasses:       r.cfg.Feed.MaxPasses,
	}, logger)

	feedAPI := methods.NewFeedAPI(engine, follows)
	postAPI := methods.NewPostAPI(posts, hydrator)
	hiddenAPI := methods.NewHiddenAPI(hiddenSvc)

	// Feed queries are sequence-gated: a response that raced a newer
	// request from the same observer is discarded at the edge.
	r.handler.RegisterMethod("plaza.get_feed", r.withSequence(feedAPI.GetFeed))
	r.handler.RegisterMethod("plaza.get_account_posts", r.withSequence(feedAPI.GetAccountPosts))
	r.handler.RegisterMethod("plaza.get_tagged_posts", r.withSequence(feedAPI.GetTaggedPosts))
	r.handler.RegisterMethod("plaza.get_business_posts", r.withSequence(feedAPI.GetBusinessPosts))

	r.handler.RegisterMethod("plaza.get_post", r.withNotFound(postAPI.GetPost))

	r.handler.RegisterMethod("plaza.hide_post", hiddenAPI.HidePost)
	r.handler.RegisterMethod("plaza.unhide_post", hiddenAPI.UnhidePost)
	r.handler.RegisterMethod("plaza.get_hidden_posts", hiddenAPI.GetHiddenPosts)
}

// withSequence wraps a handler with the superseded-request check. The
// optional observer/seq pair in the params identifies the client and
// its monotonic request counter.
func (r *Router) withSequence(handler MethodHandler) MethodHandler {
	return func(c *gin.Context, params json.RawMessage) (interface{}, error) {
		var peek struct {
			Observer string `json:"observer"`
			Seq      int64  `json:"seq"`
		}
		_ = json.Unmarshal(params, &peek)

		if !r.gate.Begin(peek.Observer, peek.Seq) {
			return nil, ErrSuperseded
		}
		result, err := handler(c, params)
		if err != nil {
			return nil, err
		}
		if !r.gate.Current(peek.Observer, peek.Seq) {
			return nil, ErrSuperseded
		}
		return result, nil
	}
}

// withNotFound maps a missing target entity onto the not-found RPC
// error code.
func (r *Router) withNotFound(handler MethodHandler) MethodHandler {
	return func(c *gin.Context, params json.RawMessage) (interface{}, error) {
		result, err := handler(c, params)
		if err != nil && errors.Is(err, methods.ErrNotFound) {
			return nil, ErrNotFound
		}
		return result, err
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "plaza-api",
	})
}
