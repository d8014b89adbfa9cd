package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/policy"
)

type RecipesStore interface {
	Create(ctx context.Context, authorID int64, req recipe.CreateRequest) (recipe.Recipe, error)
	List(ctx context.Context) ([]recipe.Recipe, error)
	GetByID(ctx context.Context, id int64) (recipe.Recipe, error)
	Update(ctx context.Context, id int64, scope policy.Scope, req recipe.UpdateRequest) (recipe.Recipe, error)
	Delete(ctx context.Context, id int64, scope policy.Scope) error
}

// Scoper resolves how far a principal's grant for an action reaches.
type Scoper interface {
	Scope(who auth.Principal, res policy.Resource, act policy.Action) (policy.Scope, error)
}

type RecipesHandler struct {
	repo   RecipesStore
	policy Scoper
	cache  *ReadCache
}

func NewRecipesHandler(repo RecipesStore, p Scoper, readCache *ReadCache) *RecipesHandler {
	if readCache == nil {
		readCache = NewReadCache(nil, nil)
	}
	return &RecipesHandler{repo: repo, policy: p, cache: readCache}
}

// allowed answers 403 itself when the role holds no grant at all.
func allowed(ctx *gin.Context, p Scoper, who auth.Principal, res policy.Resource, act policy.Action) (policy.Scope, bool) {
	scope, err := p.Scope(who, res, act)
	if err != nil {
		if errors.Is(err, policy.ErrDenied) {
			RespondForbidden(ctx, "Access denied")
			return policy.Scope{}, false
		}
		respondStoreFailure(ctx, err, "Could not authorize request")
		return policy.Scope{}, false
	}
	return scope, true
}

// mutationScope resolves the scope for an ownership-gated write. A missing
// grant is reported like a missing row so callers cannot probe for ids.
func mutationScope(ctx *gin.Context, p Scoper, who auth.Principal, res policy.Resource, act policy.Action, notFound string) (policy.Scope, bool) {
	scope, err := p.Scope(who, res, act)
	if err != nil {
		if errors.Is(err, policy.ErrDenied) {
			RespondNotFound(ctx, notFound)
			return policy.Scope{}, false
		}
		respondStoreFailure(ctx, err, "Could not authorize request")
		return policy.Scope{}, false
	}
	return scope, true
}

func (h *RecipesHandler) CreateRecipe(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Recipes, policy.Create); !ok {
		return
	}

	var req recipe.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	rc, err := h.repo.Create(cctx, who.UserID, req)
	if err != nil {
		respondStoreFailure(ctx, err, "Could not create recipe")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), cache.RecipesListKey())

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Recipe created successfully",
		"recipeId": rc.ID,
	})
}

func (h *RecipesHandler) ListRecipes(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Recipes, policy.Read); !ok {
		return
	}

	err := h.cache.Serve(ctx, cache.RecipesListKey(), func(c context.Context) (any, error) {
		cctx, cancel := config.WithTimeout(c, 2*time.Second)
		defer cancel()

		return h.repo.List(cctx)
	})
	if err != nil {
		respondStoreFailure(ctx, err, "Could not list recipes")
	}
}

func (h *RecipesHandler) GetRecipe(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Recipes, policy.Read); !ok {
		return
	}

	err := h.cache.Serve(ctx, cache.RecipeKey(id), func(c context.Context) (any, error) {
		cctx, cancel := config.WithTimeout(c, 2*time.Second)
		defer cancel()

		return h.repo.GetByID(cctx, id)
	})
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found")
			return
		}
		respondStoreFailure(ctx, err, "Could not fetch recipe")
	}
}

func (h *RecipesHandler) UpdateRecipe(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req recipe.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	scope, ok := mutationScope(ctx, h.policy, who, policy.Recipes, policy.Update, "Recipe not found or not authorized")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	rc, err := h.repo.Update(cctx, id, scope, req)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found or not authorized")
			return
		}
		respondStoreFailure(ctx, err, "Could not update recipe")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), cache.RecipesPrefix)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Recipe updated successfully",
		"recipe":  rc,
	})
}

func (h *RecipesHandler) DeleteRecipe(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	scope, ok := mutationScope(ctx, h.policy, who, policy.Recipes, policy.Delete, "Recipe not found or not authorized")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id, scope); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found or not authorized")
			return
		}
		respondStoreFailure(ctx, err, "Could not delete recipe")
		return
	}

	// comments cascade with the recipe
	h.cache.Invalidate(ctx.Request.Context(), cache.RecipesPrefix, cache.CommentsPrefix)

	ctx.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}
