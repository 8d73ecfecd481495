// Package router defines how HTTP routes are registered for the API.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/config"
	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/middleware"
)

// Handlers groups the endpoint implementations.
type Handlers struct {
	Movies *handler.MovieHandler
	Store  *handler.StoreHandler
	Users  *handler.UserHandler
}

// Options carries the infrastructure shared by the API middleware. A nil
// Redis client disables the response cache and switches rate limiting to
// the in-process limiter.
type Options struct {
	Resolver  *auth.Resolver
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Logger    *slog.Logger
}

// RegisterRoutes exposes the health check outside of the API group so that
// load balancers are never rate limited.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAPI mounts every endpoint under /api. Session resolution is
// lazy, so attaching it to the whole group costs nothing on routes that
// ignore the caller.
func RegisterAPI(e *echo.Echo, h Handlers, o Options) {
	api := e.Group("/api",
		middleware.NewTokenBucket(o.RateLimit, o.Redis, o.Logger),
		middleware.Session(o.Resolver),
	)

	// Catalog reads. Only anonymous responses are cached.
	cache := middleware.NewRedisCache(o.Cache, o.Redis)
	api.GET("/movies", h.Movies.List, cache)
	api.GET("/movies/sort", h.Movies.Sort, cache)
	api.GET("/movies/search/:title", h.Movies.Search, cache)

	// Anything that changes stock, likes or the catalog drops the cache.
	w := api.Group("/movies", middleware.PurgeOnWrite(o.Cache, o.Redis, o.Logger))
	w.POST("/like", h.Movies.Like)
	w.POST("", h.Movies.Create)
	w.PUT("/:id", h.Movies.Update)
	w.DELETE("/:id", h.Movies.Delete)
	w.POST("/store/:transaction/:title", h.Store.Transact)
	w.POST("/ret/:title", h.Store.Return)

	api.POST("/users", h.Users.Register)
	api.GET("/users/me", h.Users.Me)
	api.POST("/login", h.Users.Login)
	api.POST("/logout", h.Users.Logout)
}
