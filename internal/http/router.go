package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/geocoder89/recipehub/internal/observability"
)

// UserRepository is what the auth and admin user routes need from the user store.
type UserRepository interface {
	handlers.UsersStore
	handlers.UserReader
}

type Deps struct {
	Users    UserRepository
	Recipes  handlers.RecipesStore
	Comments handlers.CommentsStore

	Tokens *auth.Manager
	Hasher handlers.PasswordHasher
	Policy handlers.Scoper

	Cache    cache.Store
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.OTelServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// wire up handlers
	readCache := handlers.NewReadCache(deps.Cache, deps.Prom)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, deps.Hasher, deps.Tokens, deps.Prom)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Hasher, readCache)
	recipesHandler := handlers.NewRecipesHandler(deps.Recipes, deps.Policy, readCache)
	commentsHandler := handlers.NewCommentsHandler(deps.Comments, deps.Policy, readCache)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Prom)

	// public auth
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	// authenticated
	authed := r.Group("/")
	authed.Use(authMW.RequireAuth())
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.POST("/recipes", recipesHandler.CreateRecipe)
		authed.GET("/recipes", recipesHandler.ListRecipes)
		authed.GET("/recipes/:id", recipesHandler.GetRecipe)
		authed.PUT("/recipes/:id", recipesHandler.UpdateRecipe)
		authed.DELETE("/recipes/:id", recipesHandler.DeleteRecipe)

		authed.POST("/comments", commentsHandler.CreateComment)
		authed.GET("/comments", commentsHandler.ListComments)
		authed.GET("/comments/recipe/:id", commentsHandler.ListRecipeComments)
		authed.PUT("/comments/:id", commentsHandler.UpdateComment)
		authed.DELETE("/comments/:id", commentsHandler.DeleteComment)
	}

	// admin
	admin := authed.Group("/users")
	admin.Use(authMW.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", usersHandler.ListUsers)
		admin.GET("/:id", usersHandler.GetUser)
		admin.POST("", usersHandler.CreateUser)
		admin.PUT("/:id", usersHandler.UpdateUser)
		admin.DELETE("/:id", usersHandler.DeleteUser)
	}

	return r
}
