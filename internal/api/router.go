package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/postrank/pkg/telemetry"
)

// HealthChecker reports whether a backend is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	posts   *PostsAPI
	checks  map[string]HealthChecker
	logger  *zap.Logger
}

// NewRouter creates a new API router. checks are probed by the health endpoint.
func NewRouter(postsAPI *PostsAPI, checks map[string]HealthChecker, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := &Router{
		handler: NewJSONRPCHandler(logger),
		posts:   postsAPI,
		checks:  checks,
		logger:  logger.With(zap.String("component", "api-router")),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestID(r.logger))

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	r.handler.RegisterMethod("posts.exists", r.posts.Exists)
	r.handler.RegisterMethod("posts.get_pids_from_set", r.posts.GetPidsFromSet)
	r.handler.RegisterMethod("posts.get_posts_by_pids", r.posts.GetPostsByPids)
	r.handler.RegisterMethod("posts.update_vote_count", r.posts.UpdateVoteCount)
	r.handler.RegisterMethod("posts.record_vote", r.posts.RecordVote)
	r.handler.RegisterMethod("posts.get_pid_index", r.posts.GetPidIndex)
	r.handler.RegisterMethod("posts.get_post_indices", r.posts.GetPostIndices)

	methods := r.handler.Methods()
	sort.Strings(methods)
	r.logger.Debug("Registered JSON-RPC methods", zap.Strings("methods", methods))
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	backends := make(gin.H, len(r.checks))
	for name, check := range r.checks {
		if err := check.Health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.String("backend", name), zap.Error(err))
			backends[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		backends[name] = "OK"
	}

	result := "OK"
	if status != http.StatusOK {
		result = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":   result,
		"service":  "postrank-api",
		"backends": backends,
	})
}
