package recipe

import (
	"errors"
	"time"
)

// ErrNotFound also stands in for "exists but not yours" on mutations.
var ErrNotFound = errors.New("recipe not found")

type Recipe struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	AuthorID     int64     `json:"authorId"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Title        string `json:"title" binding:"required"`
	Ingredients  string `json:"ingredients" binding:"required"`
	Instructions string `json:"instructions" binding:"required"`
}

// a full update payload
type UpdateRequest struct {
	Title        string `json:"title" binding:"required"`
	Ingredients  string `json:"ingredients" binding:"required"`
	Instructions string `json:"instructions" binding:"required"`
}
