package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/observability"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

type TokenIssuer interface {
	Issue(userID int64, role string) (string, time.Time, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	hasher     PasswordHasher
	tokens     TokenIssuer
	prom       *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, hasher PasswordHasher, tokens TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		hasher:     hasher,
		tokens:     tokens,
		prom:       prom,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	hash, err := h.hasher.Hash(req.Password)

	if err != nil {
		respondStoreFailure(ctx, err, "Could not register user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash, user.NormalizeRole(req.Role))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "Email is already in use")
			return
		}

		respondStoreFailure(ctx, err, "Could not register user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  u.ID,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			respondStoreFailure(ctx, err, "Could not log in")
			return
		}
		h.prom.IncAuthFailure("bad_credentials")
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if err := h.hasher.Verify(foundUser.PasswordHash, req.Password); err != nil {
		h.prom.IncAuthFailure("bad_credentials")
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	token, expiresAt, err := h.tokens.Issue(foundUser.ID, foundUser.Role)

	if err != nil {
		respondStoreFailure(ctx, err, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     token,
		"role":      foundUser.Role,
		"expiresAt": expiresAt,
	})
}

// Me echoes the identity carried by the bearer token.
func (h *AuthHandler) Me(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"userId": p.UserID,
		"role":   p.Role,
	})
}
