package comment

import (
	"errors"
	"time"
)

var (
	// ErrNotFound also stands in for "exists but not yours" on mutations.
	ErrNotFound = errors.New("comment not found")
	// ErrRecipeNotFound is returned when a comment targets a recipe that does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
)

type Comment struct {
	ID        int64     `json:"id"`
	Comment   string    `json:"comment"`
	AuthorID  int64     `json:"authorId"`
	Author    string    `json:"author"`
	RecipeID  int64     `json:"recipeId"`
	Recipe    string    `json:"recipe,omitempty"` // recipe title, only on the global listing
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Comment  string `json:"comment" binding:"required"`
	RecipeID int64  `json:"recipe_id" binding:"required"`
}

type UpdateRequest struct {
	Comment string `json:"comment" binding:"required"`
}
