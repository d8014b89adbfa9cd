package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/policy"
)

type CommentsRepo struct {
	s *Store
}

func NewCommentsRepo(s *Store) *CommentsRepo {
	return &CommentsRepo{s: s}
}

// view joins author name and recipe title; mu must be held.
func (r *CommentsRepo) view(c comment.Comment) comment.Comment {
	c.Author = r.s.authorName(c.AuthorID)
	c.Recipe = r.s.recipes[c.RecipeID].Title
	return c
}

func (r *CommentsRepo) filter(keep func(comment.Comment) bool) []comment.Comment {
	out := make([]comment.Comment, 0)
	for _, c := range r.s.comments {
		if keep(c) {
			out = append(out, r.view(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *CommentsRepo) Create(_ context.Context, authorID int64, req comment.CreateRequest) (comment.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.recipes[req.RecipeID]; !ok {
		return comment.Comment{}, comment.ErrRecipeNotFound
	}

	r.s.commentSeq++
	now := r.s.now()
	c := comment.Comment{
		ID:        r.s.commentSeq,
		Comment:   req.Comment,
		AuthorID:  authorID,
		RecipeID:  req.RecipeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.comments[c.ID] = c

	return r.view(c), nil
}

func (r *CommentsRepo) List(_ context.Context) ([]comment.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.filter(func(comment.Comment) bool { return true }), nil
}

func (r *CommentsRepo) ListByRecipe(_ context.Context, recipeID int64) ([]comment.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.filter(func(c comment.Comment) bool { return c.RecipeID == recipeID })
	for i := range out {
		out[i].Recipe = ""
	}
	return out, nil
}

func (r *CommentsRepo) GetByID(_ context.Context, id int64) (comment.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	return r.view(c), nil
}

func (r *CommentsRepo) Update(_ context.Context, id int64, scope policy.Scope, req comment.UpdateRequest) (comment.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok || !scope.Permits(c.AuthorID) {
		return comment.Comment{}, comment.ErrNotFound
	}

	c.Comment = req.Comment
	c.UpdatedAt = r.s.now()
	r.s.comments[id] = c

	return r.view(c), nil
}

func (r *CommentsRepo) Delete(_ context.Context, id int64, scope policy.Scope) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok || !scope.Permits(c.AuthorID) {
		return comment.ErrNotFound
	}

	delete(r.s.comments, id)
	return nil
}
