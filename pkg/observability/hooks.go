// Package observability lets the layout, render, sync, cache and store
// packages emit events without importing a metrics framework.
//
// Each concern has a hooks interface and a registered implementation that
// defaults to a no-op. A binary swaps in real backends at startup:
//
//	prom.NewRegistry().Install()
//
// and library code reports through the accessors:
//
//	observability.Layout().OnLayoutComplete(ctx, string(res.Strategy), len(nodes), elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// LayoutHooks receives events from the layout and render pipeline.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, nodeCount int)
	// OnLayoutComplete reports the strategy that produced the positions.
	OnLayoutComplete(ctx context.Context, strategy string, nodeCount int, duration time.Duration, err error)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// SyncHooks receives events from position persistence.
type SyncHooks interface {
	OnSyncComplete(ctx context.Context, backend string, count int, duration time.Duration, err error)
}

// CacheHooks receives events from the listing and artifact caches. keyType
// is "listing" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the domain store client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	// OnError reports a transport failure where no response arrived.
	OnError(ctx context.Context, method, path string, err error)
}

type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, int)                                  {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}
func (NoopLayoutHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

type NoopSyncHooks struct{}

func (NoopSyncHooks) OnSyncComplete(context.Context, string, int, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// slot holds one registered implementation and its no-op fallback.
type slot[H any] struct {
	mu   sync.RWMutex
	cur  H
	noop H
}

func newSlot[H any](noop H) *slot[H] { return &slot[H]{cur: noop, noop: noop} }

func (s *slot[H]) get() H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set ignores a nil implementation.
func (s *slot[H]) set(h H) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[H]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	layoutSlot = newSlot[LayoutHooks](NoopLayoutHooks{})
	syncSlot   = newSlot[SyncHooks](NoopSyncHooks{})
	cacheSlot  = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot   = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetLayoutHooks registers h. Nil is ignored, as in every setter here.
func SetLayoutHooks(h LayoutHooks) { layoutSlot.set(h) }
func SetSyncHooks(h SyncHooks)     { syncSlot.set(h) }
func SetCacheHooks(h CacheHooks)   { cacheSlot.set(h) }
func SetHTTPHooks(h HTTPHooks)     { httpSlot.set(h) }

func Layout() LayoutHooks { return layoutSlot.get() }
func Sync() SyncHooks     { return syncSlot.get() }
func Cache() CacheHooks   { return cacheSlot.get() }
func HTTP() HTTPHooks     { return httpSlot.get() }

// Reset restores every no-op default. Tests call it in cleanup.
func Reset() {
	layoutSlot.reset()
	syncSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
