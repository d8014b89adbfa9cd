package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/observability"
)

// ReadCache serves rendered GET responses from a cache.Store and drops them
// again when a write touches the same prefix.
type ReadCache struct {
	store cache.Store
	prom  *observability.Prom
}

func NewReadCache(store cache.Store, prom *observability.Prom) *ReadCache {
	if store == nil {
		store = cache.Noop{}
	}
	return &ReadCache{store: store, prom: prom}
}

// Serve writes the cached body for key, or renders load's result, caches it
// and writes it. A load error is returned untouched for the caller to map.
//
// The entry is stored under the family generation read before load runs, so
// a fill that races with Invalidate lands on a generation nobody reads.
func (rc *ReadCache) Serve(ctx *gin.Context, key string, load func(context.Context) (any, error)) error {
	reqCtx := ctx.Request.Context()

	gen, cacheable := rc.store.Generation(reqCtx, cache.Family(key))
	stored := cache.Versioned(key, gen)

	if cacheable {
		if body, ok := rc.store.Get(reqCtx, stored); ok {
			rc.prom.ObserveCache(true)
			ctx.Header("X-Cache", "HIT")
			respondBytesWithETag(ctx, http.StatusOK, body)
			return nil
		}
	}
	rc.prom.ObserveCache(false)

	v, err := load(reqCtx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if cacheable {
		rc.store.Set(reqCtx, stored, body)
	}
	ctx.Header("X-Cache", "MISS")
	respondBytesWithETag(ctx, http.StatusOK, body)
	return nil
}

// Invalidate bumps the generation of every family the prefixes belong to and
// then drops the entries already stored under them.
func (rc *ReadCache) Invalidate(ctx context.Context, prefixes ...string) {
	bumped := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		if f := cache.Family(p); !bumped[f] {
			rc.store.Bump(ctx, f)
			bumped[f] = true
		}
		rc.store.DeletePrefix(ctx, p)
	}
}
