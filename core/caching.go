package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/healthgap/core/algo"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a cached matrix stays valid.
const cacheTTL = 7 * 24 * time.Hour

// matrixRequest describes one correlation matrix computation.
type matrixRequest struct {
	digest     string
	district   string
	cohort     schema.Cohort
	indicators []string
	records    []*schema.SurveyRecord
	positive   algo.PositivityFunc
	workers    int
}

// cachedCorrelationMatrix returns the matrix from the correlation store when a
// fresh entry exists, and computes and stores it otherwise.
func cachedCorrelationMatrix(mgr contract.CacheManager, req matrixRequest) *schema.CorrelationMatrix {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetCorrelationStore()
	}
	if store == nil {
		// Fallback to direct computation
		return algo.BuildMatrix(req.records, req.indicators, req.positive, req.workers)
	}

	key := generateCacheKey(req)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		return result
	}

	// Cache miss: compute and store
	return computeAndStore(store, key, req)
}

// checkCacheHit attempts to retrieve and validate a cached matrix
func checkCacheHit(store contract.CacheStore, key string) *schema.CorrelationMatrix {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}

	var result schema.CorrelationMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore computes the matrix and stores it in cache
func computeAndStore(store contract.CacheStore, key string, req matrixRequest) *schema.CorrelationMatrix {
	result := algo.BuildMatrix(req.records, req.indicators, req.positive, req.workers)

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache correlation matrix", err)
		}
	}
	return result
}

// generateCacheKey creates a unique key based on the snapshot and the
// matrix parameters. A changed input file changes the digest.
func generateCacheKey(req matrixRequest) string {
	key := fmt.Sprintf("%s:%s:%s:%s",
		req.digest,
		req.district,
		req.cohort,
		strings.Join(req.indicators, ","),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
