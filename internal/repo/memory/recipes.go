package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/policy"
)

type RecipesRepo struct {
	s *Store
}

func NewRecipesRepo(s *Store) *RecipesRepo {
	return &RecipesRepo{s: s}
}

// view fills in the author name; mu must be held.
func (r *RecipesRepo) view(rc recipe.Recipe) recipe.Recipe {
	rc.Author = r.s.authorName(rc.AuthorID)
	return rc
}

func (r *RecipesRepo) Create(_ context.Context, authorID int64, req recipe.CreateRequest) (recipe.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.recipeSeq++
	now := r.s.now()
	rc := recipe.Recipe{
		ID:           r.s.recipeSeq,
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		AuthorID:     authorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.recipes[rc.ID] = rc

	return r.view(rc), nil
}

func (r *RecipesRepo) List(_ context.Context) ([]recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]recipe.Recipe, 0, len(r.s.recipes))
	for _, rc := range r.s.recipes {
		out = append(out, r.view(rc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *RecipesRepo) GetByID(_ context.Context, id int64) (recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rc, ok := r.s.recipes[id]
	if !ok {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return r.view(rc), nil
}

func (r *RecipesRepo) Update(_ context.Context, id int64, scope policy.Scope, req recipe.UpdateRequest) (recipe.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rc, ok := r.s.recipes[id]
	if !ok || !scope.Permits(rc.AuthorID) {
		return recipe.Recipe{}, recipe.ErrNotFound
	}

	rc.Title = req.Title
	rc.Ingredients = req.Ingredients
	rc.Instructions = req.Instructions
	rc.UpdatedAt = r.s.now()
	r.s.recipes[id] = rc

	return r.view(rc), nil
}

// Delete drops the recipe together with its comments.
func (r *RecipesRepo) Delete(_ context.Context, id int64, scope policy.Scope) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rc, ok := r.s.recipes[id]
	if !ok || !scope.Permits(rc.AuthorID) {
		return recipe.ErrNotFound
	}

	delete(r.s.recipes, id)
	for cid, c := range r.s.comments {
		if c.RecipeID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}
