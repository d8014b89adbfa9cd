package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
)

// pathID parses a positive integer path parameter; it answers 400 itself on failure.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "invalid_id", "Invalid id")
		return 0, false
	}
	return id, true
}

// principal returns the caller identity set by RequireAuth; it answers 401 itself when absent.
func principal(ctx *gin.Context) (auth.Principal, bool) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return auth.Principal{}, false
	}
	return p, true
}
