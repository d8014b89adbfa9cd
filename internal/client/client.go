// Package client is a typed HTTP client for the recipe API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken swaps the bearer token used for later calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

type LoginResult struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Identity struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

func (c *Client) Register(ctx context.Context, req user.CreateRequest) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", req, &out)
	return out.UserID, err
}

// Login authenticates and, on success, uses the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", user.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token
	return out, nil
}

func (c *Client) Me(ctx context.Context) (Identity, error) {
	var out Identity
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

// users (admin)

func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var out []user.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id int64) (user.User, error) {
	var out user.User
	err := c.do(ctx, http.MethodGet, idPath("/users", id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, req user.CreateRequest) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/users", req, &out)
	return out.UserID, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	var out struct {
		User user.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, idPath("/users", id), req, &out)
	return out.User, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/users", id), nil, nil)
}

// recipes

func (c *Client) CreateRecipe(ctx context.Context, req recipe.CreateRequest) (int64, error) {
	var out struct {
		RecipeID int64 `json:"recipeId"`
	}
	err := c.do(ctx, http.MethodPost, "/recipes", req, &out)
	return out.RecipeID, err
}

func (c *Client) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	var out []recipe.Recipe
	err := c.do(ctx, http.MethodGet, "/recipes", nil, &out)
	return out, err
}

func (c *Client) GetRecipe(ctx context.Context, id int64) (recipe.Recipe, error) {
	var out recipe.Recipe
	err := c.do(ctx, http.MethodGet, idPath("/recipes", id), nil, &out)
	return out, err
}

func (c *Client) UpdateRecipe(ctx context.Context, id int64, req recipe.UpdateRequest) (recipe.Recipe, error) {
	var out struct {
		Recipe recipe.Recipe `json:"recipe"`
	}
	err := c.do(ctx, http.MethodPut, idPath("/recipes", id), req, &out)
	return out.Recipe, err
}

func (c *Client) DeleteRecipe(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/recipes", id), nil, nil)
}

// comments

func (c *Client) CreateComment(ctx context.Context, req comment.CreateRequest) (int64, error) {
	var out struct {
		CommentID int64 `json:"commentId"`
	}
	err := c.do(ctx, http.MethodPost, "/comments", req, &out)
	return out.CommentID, err
}

func (c *Client) ListComments(ctx context.Context) ([]comment.Comment, error) {
	var out []comment.Comment
	err := c.do(ctx, http.MethodGet, "/comments", nil, &out)
	return out, err
}

func (c *Client) ListRecipeComments(ctx context.Context, recipeID int64) ([]comment.Comment, error) {
	var out []comment.Comment
	err := c.do(ctx, http.MethodGet, idPath("/comments/recipe", recipeID), nil, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, id int64, req comment.UpdateRequest) (comment.Comment, error) {
	var out struct {
		Comment comment.Comment `json:"comment"`
	}
	err := c.do(ctx, http.MethodPut, idPath("/comments", id), req, &out)
	return out.Comment, err
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/comments", id), nil, nil)
}
