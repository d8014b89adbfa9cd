package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/policy"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// recipeSelect joins the author name onto a recipes row set aliased as r.
const recipeSelect = `
	SELECT r.id, r.title, r.ingredients, r.instructions, r.user_id, u.name, r.created_at, r.updated_at
	FROM %s r
	JOIN users u ON u.id = r.user_id`

func selectRecipes(from string) string {
	return fmt.Sprintf(recipeSelect, from)
}

type RecipesRepo struct {
	observed
	pool *pgxpool.Pool
}

func NewRecipesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RecipesRepo {
	return &RecipesRepo{pool: pool, observed: observed{prom: prom}}
}

func scanRecipe(row pgx.Row, rc *recipe.Recipe) error {
	return row.Scan(
		&rc.ID,
		&rc.Title,
		&rc.Ingredients,
		&rc.Instructions,
		&rc.AuthorID,
		&rc.Author,
		&rc.CreatedAt,
		&rc.UpdatedAt,
	)
}

func (r *RecipesRepo) Create(ctx context.Context, authorID int64, req recipe.CreateRequest) (recipe.Recipe, error) {
	var rc recipe.Recipe

	err := r.observe("recipes.create", func() error {
		return scanRecipe(r.pool.QueryRow(ctx, `
			WITH ins AS (
				INSERT INTO recipes (title, ingredients, instructions, user_id)
				VALUES ($1, $2, $3, $4)
				RETURNING *
			)`+selectRecipes("ins"),
			req.Title, req.Ingredients, req.Instructions, authorID,
		), &rc)
	})

	if err != nil {
		return recipe.Recipe{}, err
	}
	return rc, nil
}

func (r *RecipesRepo) List(ctx context.Context) ([]recipe.Recipe, error) {
	var out []recipe.Recipe

	err := r.observe("recipes.list", func() error {
		rows, err := r.pool.Query(ctx, selectRecipes("recipes")+` ORDER BY r.id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]recipe.Recipe, 0)
		for rows.Next() {
			var rc recipe.Recipe
			if err := scanRecipe(rows, &rc); err != nil {
				return err
			}
			out = append(out, rc)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecipesRepo) GetByID(ctx context.Context, id int64) (recipe.Recipe, error) {
	var rc recipe.Recipe

	err := r.observe("recipes.get_by_id", func() error {
		return scanRecipe(r.pool.QueryRow(ctx, selectRecipes("recipes")+` WHERE r.id = $1`, id), &rc)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}
	return rc, nil
}

// Update touches the row only when it falls inside scope; otherwise it reports ErrNotFound.
func (r *RecipesRepo) Update(ctx context.Context, id int64, scope policy.Scope, req recipe.UpdateRequest) (recipe.Recipe, error) {
	var rc recipe.Recipe

	err := r.observe("recipes.update", func() error {
		return scanRecipe(r.pool.QueryRow(ctx, `
			WITH upd AS (
				UPDATE recipes
				SET title = $2,
					ingredients = $3,
					instructions = $4,
					updated_at = NOW()
				WHERE id = $1 AND ($5::boolean OR user_id = $6)
				RETURNING *
			)`+selectRecipes("upd"),
			id, req.Title, req.Ingredients, req.Instructions, scope.Any, scope.OwnerID,
		), &rc)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}
	return rc, nil
}

// Delete removes the recipe and, through the foreign key, its comments.
func (r *RecipesRepo) Delete(ctx context.Context, id int64, scope policy.Scope) error {
	var tag pgconn.CommandTag

	err := r.observe("recipes.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM recipes WHERE id = $1 AND ($2::boolean OR user_id = $3)`,
			id, scope.Any, scope.OwnerID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return recipe.ErrNotFound
	}
	return nil
}
