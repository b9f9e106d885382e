package photocache

import (
	"context"

	"go.uber.org/zap"
)

// ResolveFunc fetches a photo URL from the upstream API.
type ResolveFunc func(ctx context.Context, photoName string, maxDimPx int) (string, error)

// Resolver layers the memory cache and the optional persistent store in
// front of an upstream resolve call.
type Resolver struct {
	mem      *Cache
	store    *Store // nil when persistence is disabled
	upstream ResolveFunc
}

// NewResolver builds a Resolver. store may be nil.
func NewResolver(mem *Cache, store *Store, upstream ResolveFunc) *Resolver {
	return &Resolver{mem: mem, store: store, upstream: upstream}
}

// Resolve returns the photo URL for the given handle, consulting the memory
// tier, then the persistent tier, then the upstream API. Store errors are
// logged and treated as misses so a broken cache file never fails a run.
func (r *Resolver) Resolve(ctx context.Context, photoName string, maxDimPx int) (string, error) {
	key := Key(photoName, maxDimPx)

	if url, ok := r.mem.Get(key); ok {
		return url, nil
	}

	if r.store != nil {
		url, ok, err := r.store.Get(ctx, key)
		if err != nil {
			zap.L().Warn("photo store read failed", zap.Error(err))
		} else if ok {
			r.mem.Put(key, url)
			return url, nil
		}
	}

	url, err := r.upstream(ctx, photoName, maxDimPx)
	if err != nil {
		return "", err
	}

	r.mem.Put(key, url)
	if r.store != nil {
		if err := r.store.Put(ctx, key, url); err != nil {
			zap.L().Warn("photo store write failed", zap.Error(err))
		}
	}
	return url, nil
}
