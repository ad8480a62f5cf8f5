package oscore

import (
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Logger is used for derivation failures and evictions. Nil disables
	// logging.
	Logger *slog.Logger

	// OnEvict is called with each context removed from the cache.
	OnEvict func(ctx *Context)
}

// DefaultResolverConfig returns a configuration without logging.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{}
}

// Resolver resolves recipient ids to cached security contexts, deriving
// them from a ParameterStore on first use.
type Resolver struct {
	store    ParameterStore
	fallback *Fallback
	config   ResolverConfig

	mu       sync.RWMutex
	contexts map[string]*Context
	inflight map[string]*derivation

	group singleflight.Group
}

// NewResolver creates a resolver over store. fallback may be nil, in which
// case contexts are never derived for re-derivation.
func NewResolver(store ParameterStore, fallback *Fallback, config ResolverConfig) *Resolver {
	return &Resolver{
		store:    store,
		fallback: fallback,
		config:   config,
		contexts: make(map[string]*Context),
		inflight: make(map[string]*derivation),
	}
}

// derivation tracks one in-flight derivation. An eviction of its key sets
// evicted so the result is handed out but not cached.
type derivation struct {
	evicted bool
}

// cacheKey separates a nil ID Context from an empty one.
func cacheKey(rid, idContext []byte) string {
	k := hex.EncodeToString(rid) + "/"
	if idContext == nil {
		return k + "-"
	}
	return k + "+" + hex.EncodeToString(idContext)
}

func ridPrefix(rid []byte) string {
	return hex.EncodeToString(rid) + "/"
}

// Context returns the context for rid and idContext.
//
// A cached context is returned without consulting the store. On a miss the
// parameters for rid are looked up and derived; the new context is cached.
// While fallback is detected, a cached context that is not being
// re-derived is replaced by one derived in PhaseClientInitiate.
//
// Missing parameters and derivation failures both report false.
func (r *Resolver) Context(rid, idContext []byte) (*Context, bool) {
	key := cacheKey(rid, idContext)

	r.mu.RLock()
	cached := r.contexts[key]
	r.mu.RUnlock()
	if r.usable(cached) {
		return cached, true
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		cur := r.contexts[key]
		if r.usable(cur) {
			r.mu.Unlock()
			return cur, nil
		}
		d := &derivation{}
		r.inflight[key] = d
		r.mu.Unlock()
		defer r.finish(key, d)

		params, ok := r.store.Parameters(rid)
		if !ok || params == nil {
			r.debugLog("no oscore parameters", "rid", hex.EncodeToString(rid))
			return (*Context)(nil), nil
		}

		ctx, err := Derive(*params, idContext)
		if err != nil {
			r.errorLog("oscore context derivation failed", "parameters", params.String(), "error", err)
			return (*Context)(nil), nil
		}
		if r.fallback != nil && r.fallback.Detected() {
			ctx.SetRederivationPhase(PhaseClientInitiate)
		}

		r.mu.Lock()
		if !d.evicted {
			r.contexts[key] = ctx
		}
		r.mu.Unlock()
		return ctx, nil
	})

	ctx, _ := v.(*Context)
	return ctx, ctx != nil
}

func (r *Resolver) finish(key string, d *derivation) {
	r.mu.Lock()
	if r.inflight[key] == d {
		delete(r.inflight, key)
	}
	r.mu.Unlock()
}

// evictInflight marks the in-flight derivation for key as evicted.
// Callers hold r.mu.
func (r *Resolver) evictInflight(key string) {
	if d := r.inflight[key]; d != nil {
		d.evicted = true
	}
}

// usable reports whether a cached context can be handed out as is.
func (r *Resolver) usable(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	if r.fallback != nil && r.fallback.Detected() && ctx.RederivationPhase() == PhaseNone {
		return false
	}
	return true
}

// ContextByURI resolves the recipient id for uri through the store and
// returns its context without an ID Context. The context is cached under
// its recipient id only.
func (r *Resolver) ContextByURI(uri string) (*Context, bool) {
	rid, ok := r.store.RecipientID(uri)
	if !ok {
		return nil, false
	}
	return r.Context(rid, nil)
}

// Cached returns the cached context for rid and idContext without deriving.
func (r *Resolver) Cached(rid, idContext []byte) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[cacheKey(rid, idContext)]
	return ctx, ok
}

// Len returns the number of cached contexts.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Remove evicts ctx from the cache. Removing a context that is not cached
// is a no-op.
func (r *Resolver) Remove(ctx *Context) {
	if ctx == nil {
		return
	}
	var evicted []*Context

	r.mu.Lock()
	for key, cur := range r.contexts {
		if cur == ctx {
			delete(r.contexts, key)
			r.evictInflight(key)
			evicted = append(evicted, cur)
		}
	}
	r.mu.Unlock()

	r.notifyEvicted(evicted)
}

// RemoveByRecipientID evicts every context for rid, whatever its ID
// Context. Removing an unknown rid is a no-op.
func (r *Resolver) RemoveByRecipientID(rid []byte) {
	prefix := ridPrefix(rid)
	var evicted []*Context

	r.mu.Lock()
	for key, cur := range r.contexts {
		if strings.HasPrefix(key, prefix) {
			delete(r.contexts, key)
			evicted = append(evicted, cur)
		}
	}
	for key := range r.inflight {
		if strings.HasPrefix(key, prefix) {
			r.evictInflight(key)
		}
	}
	r.mu.Unlock()

	r.notifyEvicted(evicted)
}

func (r *Resolver) notifyEvicted(evicted []*Context) {
	for _, ctx := range evicted {
		r.debugLog("oscore context evicted", "rid", hex.EncodeToString(ctx.recipientID))
		if r.config.OnEvict != nil {
			r.config.OnEvict(ctx)
		}
	}
}

func (r *Resolver) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}

func (r *Resolver) errorLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Error(msg, args...)
	}
}
