package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/infrastructure/logger"
	"github.com/hospital/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on an API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router assembles the gin engine with the standard middleware chain and a
// versioned API group
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion sets the API version prefix (default "v1")
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New creates a Router over a fresh gin engine. Ordering matters: the
// request ID must exist before logging, and the hospital check runs last so
// rejections are still logged.
func New(log *zap.Logger, opts ...Option) *Router {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine exposes the underlying gin engine for routes registered outside
// the API group, such as health endpoints
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Register queues a handler's routes for the API group
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup wires the hospital-scoped API group and registers all routes
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/"+r.apiVersion, middleware.Hospital())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}
