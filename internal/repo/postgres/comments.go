package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/policy"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentSelect = `
	SELECT c.id, c.comment, c.user_id, u.name, c.recipe_id, rc.title, c.created_at, c.updated_at
	FROM %s c
	JOIN users u ON u.id = c.user_id
	JOIN recipes rc ON rc.id = c.recipe_id`

func selectComments(from string) string {
	return fmt.Sprintf(commentSelect, from)
}

type CommentsRepo struct {
	observed
	pool *pgxpool.Pool
}

func NewCommentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CommentsRepo {
	return &CommentsRepo{pool: pool, observed: observed{prom: prom}}
}

func scanComment(row pgx.Row, c *comment.Comment) error {
	return row.Scan(
		&c.ID,
		&c.Comment,
		&c.AuthorID,
		&c.Author,
		&c.RecipeID,
		&c.Recipe,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *CommentsRepo) queryList(ctx context.Context, op, sql string, args ...any) ([]comment.Comment, error) {
	var out []comment.Comment

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]comment.Comment, 0)
		for rows.Next() {
			var c comment.Comment
			if err := scanComment(rows, &c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CommentsRepo) Create(ctx context.Context, authorID int64, req comment.CreateRequest) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.create", func() error {
		return scanComment(r.pool.QueryRow(ctx, `
			WITH ins AS (
				INSERT INTO comments (comment, user_id, recipe_id)
				VALUES ($1, $2, $3)
				RETURNING *
			)`+selectComments("ins"),
			req.Comment, authorID, req.RecipeID,
		), &c)
	})

	if err != nil {
		if IsForeignKeyViolation(err, "recipe_id") {
			return comment.Comment{}, comment.ErrRecipeNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

// List returns every comment with its recipe title.
func (r *CommentsRepo) List(ctx context.Context) ([]comment.Comment, error) {
	return r.queryList(ctx, "comments.list", selectComments("comments")+` ORDER BY c.id ASC`)
}

// ListByRecipe returns the comments on one recipe; an unknown recipe yields an empty list.
func (r *CommentsRepo) ListByRecipe(ctx context.Context, recipeID int64) ([]comment.Comment, error) {
	out, err := r.queryList(ctx, "comments.list_by_recipe",
		selectComments("comments")+` WHERE c.recipe_id = $1 ORDER BY c.id ASC`, recipeID)
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Recipe = ""
	}
	return out, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id int64) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.get_by_id", func() error {
		return scanComment(r.pool.QueryRow(ctx, selectComments("comments")+` WHERE c.id = $1`, id), &c)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *CommentsRepo) Update(ctx context.Context, id int64, scope policy.Scope, req comment.UpdateRequest) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.update", func() error {
		return scanComment(r.pool.QueryRow(ctx, `
			WITH upd AS (
				UPDATE comments
				SET comment = $2,
					updated_at = NOW()
				WHERE id = $1 AND ($3::boolean OR user_id = $4)
				RETURNING *
			)`+selectComments("upd"),
			id, req.Comment, scope.Any, scope.OwnerID,
		), &c)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id int64, scope policy.Scope) error {
	var tag pgconn.CommandTag

	err := r.observe("comments.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM comments WHERE id = $1 AND ($2::boolean OR user_id = $3)`,
			id, scope.Any, scope.OwnerID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return comment.ErrNotFound
	}
	return nil
}
