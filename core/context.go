package core

import (
	"context"

	"github.com/huangsam/healthgap/internal/contract"
)

// Context keys for analysis options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	cacheManagerKey   contextKey = "cacheManager"
	analysisIDKey     contextKey = "analysisID"
)

// WithSuppressHeader marks the context so run headers are not printed.
// The MCP server uses it since stdout carries the protocol.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// contextWithCacheManager stores the cache manager for use in worker goroutines.
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager, or nil when none was stored.
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}

// withAnalysisID stores the tracking ID of the current run.
func withAnalysisID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, analysisIDKey, id)
}

// getAnalysisID returns the tracking ID of the current run, if any.
func getAnalysisID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(analysisIDKey).(int64)
	return id, ok
}
