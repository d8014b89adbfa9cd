package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/policy"
)

type CommentsStore interface {
	Create(ctx context.Context, authorID int64, req comment.CreateRequest) (comment.Comment, error)
	List(ctx context.Context) ([]comment.Comment, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]comment.Comment, error)
	GetByID(ctx context.Context, id int64) (comment.Comment, error)
	Update(ctx context.Context, id int64, scope policy.Scope, req comment.UpdateRequest) (comment.Comment, error)
	Delete(ctx context.Context, id int64, scope policy.Scope) error
}

type CommentsHandler struct {
	repo   CommentsStore
	policy Scoper
	cache  *ReadCache
}

func NewCommentsHandler(repo CommentsStore, p Scoper, readCache *ReadCache) *CommentsHandler {
	if readCache == nil {
		readCache = NewReadCache(nil, nil)
	}
	return &CommentsHandler{repo: repo, policy: p, cache: readCache}
}

func (h *CommentsHandler) CreateComment(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Comments, policy.Create); !ok {
		return
	}

	var req comment.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, who.UserID, req)
	if err != nil {
		if errors.Is(err, comment.ErrRecipeNotFound) {
			RespondBadRequest(ctx, "recipe_not_found", "Recipe does not exist")
			return
		}
		respondStoreFailure(ctx, err, "Could not create comment")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), cache.RecipeCommentsKey(req.RecipeID))

	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Comment created successfully",
		"commentId": c.ID,
	})
}

func (h *CommentsHandler) ListComments(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Comments, policy.Read); !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	comments, err := h.repo.List(cctx)
	if err != nil {
		respondStoreFailure(ctx, err, "Could not list comments")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, comments)
}

func (h *CommentsHandler) ListRecipeComments(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	recipeID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if _, ok := allowed(ctx, h.policy, who, policy.Comments, policy.Read); !ok {
		return
	}

	err := h.cache.Serve(ctx, cache.RecipeCommentsKey(recipeID), func(c context.Context) (any, error) {
		cctx, cancel := config.WithTimeout(c, 2*time.Second)
		defer cancel()

		return h.repo.ListByRecipe(cctx, recipeID)
	})
	if err != nil {
		respondStoreFailure(ctx, err, "Could not list comments")
	}
}

func (h *CommentsHandler) UpdateComment(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req comment.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	scope, ok := mutationScope(ctx, h.policy, who, policy.Comments, policy.Update, "Comment not found or not authorized")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Update(cctx, id, scope, req)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found or not authorized")
			return
		}
		respondStoreFailure(ctx, err, "Could not update comment")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), cache.RecipeCommentsKey(c.RecipeID))

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": c,
	})
}

func (h *CommentsHandler) DeleteComment(ctx *gin.Context) {
	who, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	scope, ok := mutationScope(ctx, h.policy, who, policy.Comments, policy.Delete, "Comment not found or not authorized")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// the recipe id goes with the row, so read it before deleting
	existing, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found or not authorized")
			return
		}
		respondStoreFailure(ctx, err, "Could not delete comment")
		return
	}

	if err := h.repo.Delete(cctx, id, scope); err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found or not authorized")
			return
		}
		respondStoreFailure(ctx, err, "Could not delete comment")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), cache.RecipeCommentsKey(existing.RecipeID))

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
