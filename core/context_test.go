package core

import (
	"context"
	"sync"
	"testing"

	"github.com/huangsam/healthgap/internal/iocache"
	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	mgr := &iocache.MockCacheManager{}

	ctx := WithSuppressHeader(context.Background())
	ctx = contextWithCacheManager(ctx, mgr)
	ctx = withAnalysisID(ctx, 12345)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Go(func() {
			// Concurrent reads should be safe
			analysisID, ok := getAnalysisID(ctx)
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", i)
			assert.True(t, ok, "Goroutine %d: getAnalysisID should return true", i)
			assert.Equal(t, int64(12345), analysisID, "Goroutine %d: analysisID should be 12345", i)
			assert.Same(t, mgr, cacheManagerFromContext(ctx))
		})
	}
	wg.Wait()
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	baseCtx := context.Background()

	ctx1 := withAnalysisID(baseCtx, 1)
	ctx2 := withAnalysisID(baseCtx, 2)
	ctx3 := WithSuppressHeader(baseCtx)

	id1, ok1 := getAnalysisID(ctx1)
	assert.True(t, ok1)
	assert.Equal(t, int64(1), id1)
	assert.False(t, shouldSuppressHeader(ctx1))

	id2, ok2 := getAnalysisID(ctx2)
	assert.True(t, ok2)
	assert.Equal(t, int64(2), id2)

	id3, ok3 := getAnalysisID(ctx3)
	assert.False(t, ok3)
	assert.Zero(t, id3)
	assert.True(t, shouldSuppressHeader(ctx3))
}

func TestCacheManagerFromContext(t *testing.T) {
	assert.Nil(t, cacheManagerFromContext(context.Background()))
	assert.Nil(t, cacheManagerFromContext(contextWithCacheManager(context.Background(), nil)))
}

func TestShouldSuppressHeader_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx))
}
